package datapush

import (
	"RideInsight/src/processor"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func dashboard(t *testing.T, value float64) *processor.Dashboard {
	t.Helper()
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	dt := date.Add(8 * time.Hour)
	snap := processor.NewSnapshot([]processor.Booking{
		{BookingID: "CNR1", Date: &date, DateTime: &dt, VehicleType: "Auto", BookingStatus: "Completed", BookingValue: &value},
	})
	c := snap.Domain()
	d, err := processor.BuildDashboard(context.Background(), snap.Filter(c), c, nil)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestFileName(t *testing.T) {
	if got := FileName("Daily Revenue"); got != "daily_revenue" {
		t.Errorf("FileName = %q", got)
	}
	if got := FileName("KPI"); got != "kpi" {
		t.Errorf("FileName = %q", got)
	}
}

func TestReporterPush(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "report")
	r := NewReporter(dir, true, true)

	written, err := r.Push(dashboard(t, 250))
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 9 {
		t.Fatalf("写出 %d 个文件: %v", len(written), written)
	}

	f, err := excelize.OpenFile(filepath.Join(dir, reportName))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if sheets := f.GetSheetList(); len(sheets) != 8 || sheets[0] != "KPI" {
		t.Errorf("工作表 = %v", sheets)
	}
	if v, _ := f.GetCellValue("Daily Revenue", "B2"); v != "250" {
		t.Errorf("Daily Revenue!B2 = %q", v)
	}

	data, err := os.ReadFile(filepath.Join(dir, "cancel_rate.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "Vehicle Type,Total,Cancelled,Rate\nAuto,1,0,") {
		t.Errorf("cancel_rate.csv = %q", data)
	}

	// 内容未变化时不重复输出
	if again, err := r.Push(dashboard(t, 250)); err != nil || again != nil {
		t.Errorf("重复输出: %v %v", again, err)
	}
	if changed, err := r.Push(dashboard(t, 300)); err != nil || len(changed) != 9 {
		t.Errorf("内容变化后应重新输出: %v %v", changed, err)
	}
}

func TestReporterDisabled(t *testing.T) {
	r := NewReporter("", true, true)
	if r.Enabled() {
		t.Error("未配置目录时不输出")
	}
	if written, err := r.Push(dashboard(t, 1)); written != nil || err != nil {
		t.Errorf("Push = %v %v", written, err)
	}
}

func TestRetry(t *testing.T) {
	calls := 0
	err := retry(func() error {
		calls++
		if calls < 2 {
			return errors.New("busy")
		}
		return nil
	}, 3, time.Millisecond)
	if err != nil || calls != 2 {
		t.Errorf("retry = %v, calls = %d", err, calls)
	}

	calls = 0
	if err := retry(func() error { calls++; return errors.New("busy") }, 3, time.Millisecond); err == nil || calls != 3 {
		t.Errorf("retry = %v, calls = %d", err, calls)
	}
}
