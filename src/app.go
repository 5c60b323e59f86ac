package main

import (
	"RideInsight/src/config"
	"RideInsight/src/datapush"
	"RideInsight/src/processor"
	"RideInsight/src/storage"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// App 持有当前生效的快照和看板，刷新失败时保留上一次结果
type App struct {
	cfg      *config.Config
	dcfg     *config.DataConfig
	logger   *storage.Logger
	reporter *datapush.Reporter

	snap *processor.Snapshot
	dash *processor.Dashboard
	mu   sync.RWMutex

	refreshMu sync.Mutex // 定时任务与文件监控可能同时触发
}

func NewApp(cfg *config.Config, dcfg *config.DataConfig, logger *storage.Logger) *App {
	return &App{
		cfg:      cfg,
		dcfg:     dcfg,
		logger:   logger,
		reporter: datapush.NewReporter(cfg.Export.Dir, cfg.Export.XLSX, cfg.Export.CSV),
	}
}

// Dashboard 获取当前看板(线程安全)，尚未成功加载时为nil
func (a *App) Dashboard() *processor.Dashboard {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dash
}

// Snapshot 获取当前快照(线程安全)
func (a *App) Snapshot() *processor.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snap
}

func (a *App) set(snap *processor.Snapshot, dash *processor.Dashboard) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snap, a.dash = snap, dash
}

// Refresh 重新加载数据文件并计算全部视图
func (a *App) Refresh(ctx context.Context) error {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	t1 := time.Now()
	run := uuid.NewString()[:8]
	snap, err := processor.Load(a.cfg.SourcePath(), a.cfg.SheetName, a.dcfg)
	if err != nil {
		return fmt.Errorf("加载数据失败: %w", err)
	}

	criteria, err := processor.CriteriaFromConfig(a.cfg.Filter, snap.Domain())
	if err != nil {
		return fmt.Errorf("筛选条件错误: %w", err)
	}

	dash, err := processor.BuildDashboard(ctx, snap.Filter(criteria), criteria, a.dcfg)
	if err != nil {
		return fmt.Errorf("计算看板失败: %w", err)
	}
	a.set(snap, dash)

	info := func(msg string) { a.logger.Info(fmt.Sprintf("[%s] %s", run, msg)) }
	a.logStats(run, snap.Stats())
	info(dash.Caption())
	for _, card := range dash.KPIs.Cards() {
		info(fmt.Sprintf("%s: %s", card.Title, card.Value))
	}

	written, err := a.reporter.Push(dash)
	if err != nil {
		// 报表失败不影响已生效的看板
		a.logger.Error(fmt.Sprintf("[%s] 输出报表失败: %v", run, err))
	}
	for _, path := range written {
		info("报表已保存到: " + path)
	}

	info(fmt.Sprintf("数据处理时间: %v", time.Since(t1)))
	return nil
}

// logStats run 为本次刷新的编号，用于关联同一次刷新的日志
func (a *App) logStats(run string, stats processor.LoadStats) {
	a.logger.Info(fmt.Sprintf("[%s] 读取 %d 行, 日期为空 %d 行, 日期时间为空 %d 行",
		run, stats.Rows, stats.NullDates, stats.NullDateTimes))

	if len(stats.MissingCols) > 0 {
		a.logger.Warning(fmt.Sprintf("[%s] 缺少可选列: %s", run, strings.Join(stats.MissingCols, ", ")))
	}

	cols := make([]string, 0, len(stats.NullNumeric))
	for col := range stats.NullNumeric {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		a.logger.Debug(fmt.Sprintf("[%s] %s 空值 %d 个", run, col, stats.NullNumeric[col]))
	}
}

// RefreshLogged 定时任务/文件监控使用，失败时记录日志并保留当前看板
func (a *App) RefreshLogged(ctx context.Context, trigger string) {
	a.logger.Info(fmt.Sprintf("开始刷新(%s)...", trigger))
	if err := a.Refresh(ctx); err != nil {
		a.logger.Error(err.Error() + "，继续使用上一次的结果")
	}
}

// cronSpec 刷新间隔转换为cron表达式，如 "@every 10m0s"
func cronSpec(d config.Duration) (string, bool) {
	interval := time.Duration(d)
	if interval <= 0 {
		return "", false
	}
	return fmt.Sprintf("@every %s", interval), true
}
