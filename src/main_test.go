package main

import (
	"RideInsight/src/config"
	"RideInsight/src/processor"
	"RideInsight/src/storage"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const bookings = `Date,Time,Booking ID,Booking Status,Vehicle Type,Booking Value,Ride Distance,Avg VTAT,Reason for cancelling by Customer,Driver Cancellation Reason
2024-03-01,08:15:00,CNR1,Completed,Go Mini,100,5.2,4,null,null
2024-03-01,09:40:00,CNR2,Cancelled by Driver,Go Mini,null,null,6,null,Driver delay
`

func newTestApp(t *testing.T, data string) (*App, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "bookings.csv")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{DataPath: path}
	cfg.Export.Dir = filepath.Join(dir, "report")
	cfg.Export.CSV = true

	var buf bytes.Buffer
	return NewApp(cfg, config.DefaultDataConfig(), storage.NewWriterLogger(&buf)), &buf, path
}

func TestAppRefresh(t *testing.T) {
	app, buf, path := newTestApp(t, bookings)
	if app.Dashboard() != nil {
		t.Fatal("加载前不应有看板")
	}

	if err := app.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	d := app.Dashboard()
	if d.KPIs.Bookings != 2 || d.KPIs.TotalRevenue != 100 || d.KPIs.CompletionRate != 50 {
		t.Errorf("KPIs = %+v", d.KPIs)
	}
	if app.Snapshot().Source() != path {
		t.Errorf("Source = %q", app.Snapshot().Source())
	}

	out := buf.String()
	for _, want := range []string{
		"Mar 01, 2024 - Mar 01, 2024 | Total Records: 2",
		"Completion Rate: 50.0%",
		"缺少可选列: Avg CTAT, Customer Rating, Driver Ratings",
		"daily_revenue.csv",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("日志缺少 %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(filepath.Join(app.cfg.Export.Dir, "cancel_reasons.csv")); err != nil {
		t.Error(err)
	}
}

func TestAppRefreshKeepsPrevious(t *testing.T) {
	app, buf, path := newTestApp(t, bookings)
	if err := app.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := app.Dashboard()

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	err := app.Refresh(context.Background())
	if !errors.Is(err, processor.ErrSourceNotFound) {
		t.Errorf("err = %v", err)
	}
	if app.Dashboard() != before {
		t.Error("刷新失败时应保留上一次的看板")
	}

	// 结构错误同样保留
	if err := os.WriteFile(path, []byte("Date,Time\n2024-03-01,08:00:00\n"), 0644); err != nil {
		t.Fatal(err)
	}
	app.RefreshLogged(context.Background(), "test")
	if app.Dashboard() != before {
		t.Error("刷新失败时应保留上一次的看板")
	}
	if !strings.Contains(buf.String(), "继续使用上一次的结果") {
		t.Errorf("失败未记录日志:\n%s", buf.String())
	}
}

func TestAppRefreshFilter(t *testing.T) {
	app, _, _ := newTestApp(t, bookings)
	app.cfg.Filter.Statuses = []string{"Completed"}
	if err := app.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := app.Dashboard().KPIs.Bookings; n != 1 {
		t.Errorf("Bookings = %d", n)
	}

	app.cfg.Filter.DateFrom = "2024/03/01"
	if err := app.Refresh(context.Background()); err == nil {
		t.Error("非法日期应返回错误")
	}
}

func TestCronSpec(t *testing.T) {
	if spec, ok := cronSpec(config.Duration(10 * time.Minute)); !ok || spec != "@every 10m0s" {
		t.Errorf("cronSpec = %q, %v", spec, ok)
	}
	if _, ok := cronSpec(0); ok {
		t.Error("0 表示不定时")
	}
}
