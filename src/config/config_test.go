package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	cfg, dcfg, err := loadConfigs(".", "config.json", "dataconfig.json")
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if time.Duration(cfg.RefreshInterval) != 10*time.Minute {
		t.Errorf("refresh_interval = %v", time.Duration(cfg.RefreshInterval))
	}
	if dcfg.Column(ColBookingValue) != "Booking Value" {
		t.Errorf("booking_value 列 = %q", dcfg.Column(ColBookingValue))
	}
	if dcfg.RollingWindow != 7 || dcfg.TopReasons != 8 || dcfg.HistogramBins != 50 {
		t.Errorf("计算参数不正确: %+v", dcfg)
	}
}

func TestDataConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "config.json", `{"data_path": "x.csv"}`)
	writeJSON(t, dir, "dataconfig.json", `{"columns": {"date": "Ride Date"}, "delimiter": ";"}`)

	cfg, dcfg, err := loadConfigs(dir, "config.json", "dataconfig.json")
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if cfg.LogName != "app.log" {
		t.Errorf("默认日志名 = %q", cfg.LogName)
	}
	if got := dcfg.Column(ColDate); got != "Ride Date" {
		t.Errorf("自定义列被覆盖: %q", got)
	}
	if got := dcfg.Column(ColTime); got != "Time" {
		t.Errorf("缺省列未补齐: %q", got)
	}
	if dcfg.Comma() != ';' {
		t.Errorf("分隔符 = %q", dcfg.Comma())
	}
	if !dcfg.IsNumeric(ColAvgVTAT) || dcfg.IsNumeric(ColVehicleType) {
		t.Error("数值列判定错误")
	}
	if dcfg.CompletedStatus != "Completed" || dcfg.CancelKeyword != "cancel" {
		t.Errorf("状态默认值错误: %+v", dcfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "config.json", `{"refresh_interval": "soon"}`)
	writeJSON(t, dir, "dataconfig.json", `{"columns": [}`)

	_, _, err := loadConfigs(dir, "config.json", "dataconfig.json")
	if err == nil {
		t.Fatal("期望解析错误")
	}
	if !strings.Contains(err.Error(), "Config") || !strings.Contains(err.Error(), "DataConfig") {
		t.Errorf("两个错误都应合并返回: %v", err)
	}

	if _, _, err := loadConfigs(dir, "missing.json", "dataconfig.json"); err == nil {
		t.Error("缺少配置文件应返回错误")
	}
}

func writeJSON(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := &Config{DataPath: "a.csv", LogName: "app.log"}
	t.Setenv(EnvDataPath, "/data/b.xlsx")
	t.Setenv(EnvRefreshInt, "90s")

	if err := ApplyEnv(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.DataPath != "/data/b.xlsx" || cfg.LogName != "app.log" {
		t.Errorf("cfg = %+v", cfg)
	}
	if time.Duration(cfg.RefreshInterval) != 90*time.Second {
		t.Errorf("refresh_interval = %v", time.Duration(cfg.RefreshInterval))
	}

	t.Setenv(EnvRefreshInt, "soon")
	if err := ApplyEnv(cfg); err == nil {
		t.Error("非法间隔应返回错误")
	}
}

func TestSourcePath(t *testing.T) {
	cfg := &Config{DataDir: "../data", DataPath: "ncr_ride_bookings.csv"}
	if got := cfg.SourcePath(); got != filepath.Join("../data", "ncr_ride_bookings.csv") {
		t.Errorf("SourcePath = %q", got)
	}
	abs, _ := filepath.Abs("bookings.csv")
	cfg.DataPath = abs
	if got := cfg.SourcePath(); got != abs {
		t.Errorf("绝对路径不应拼接: %q", got)
	}
}

