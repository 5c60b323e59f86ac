package main

import (
	"RideInsight/src/config"
	"RideInsight/src/datasource/file"
	"RideInsight/src/storage"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron"
)

func main() {
	// 本地开发时从 .env 读取环境变量
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Println("Failed to load .env:", err)
	}

	jsonFolder := "./config"
	if dir := os.Getenv(config.EnvConfigDir); dir != "" {
		jsonFolder = dir
	}
	jsonFile := "config.json"
	dataJsonFile := "dataconfig.json"
	cfg, dcfg, err := config.LoadConfig(jsonFolder, jsonFile, dataJsonFile)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if err := config.ApplyEnv(cfg); err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// 初始化日志系统
	logger, err := storage.NewLogger(cfg.LogName)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := NewApp(cfg, dcfg, logger)
	if err := app.Refresh(ctx); err != nil {
		logger.Fatal(err.Error())
		logger.Close()
		os.Exit(1)
	}

	// 设置定时任务
	c := cron.New()
	if spec, ok := cronSpec(cfg.RefreshInterval); ok {
		err = c.AddFunc(spec, func() {
			if err := logger.CheckRotate(cfg); err != nil {
				logger.Error("日志轮转失败: " + err.Error())
			}
			app.RefreshLogged(ctx, spec)
		})
		if err != nil {
			logger.Fatal("创建定时任务失败: " + err.Error())
			return
		}
		c.Start()
		defer c.Stop()
		logger.Info(fmt.Sprintf("定时刷新已启动(%s)", spec))
	}

	if cfg.Watch {
		monitor, err := file.NewFileMonitor(cfg.SourcePath())
		if err != nil {
			logger.Error("文件监控启动失败: " + err.Error())
		} else {
			defer monitor.Close()
			go func() {
				err := monitor.Watch(ctx, func(path string) {
					app.RefreshLogged(ctx, "文件变化: "+path)
				})
				if err != nil {
					logger.Error("文件监控错误: " + err.Error())
				}
			}()
			logger.Info("正在监控数据文件: " + cfg.SourcePath())
		}
	}

	waitForShutdown(logger, cfg)
}

// waitForShutdown SIGHUP重新打开日志文件，SIGINT/SIGTERM退出
func waitForShutdown(logger *storage.Logger, cfg *config.Config) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for sig := range sigChan {
		if sig == syscall.SIGHUP {
			if err := logger.Reopen(cfg.LogName); err != nil {
				log.Println("Failed to reopen log:", err)
			}
			continue
		}
		logger.Info("Received signal: " + sig.String() + ", shutting down...")
		return
	}
}
