package datapush

import (
	"RideInsight/src/processor"
	"RideInsight/src/utils"
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	RETRY_TIMES    = 3
	RETRY_INTERVAL = 500 * time.Millisecond

	reportName = "ride_dashboard.xlsx"
)

// Reporter 将看板结果输出为xlsx/csv文件
type Reporter struct {
	Dir  string
	XLSX bool
	CSV  bool

	interval  time.Duration
	lastPrint string // 上次输出内容的指纹
	mu        sync.Mutex
}

func NewReporter(dir string, xlsx, csv bool) *Reporter {
	return &Reporter{Dir: dir, XLSX: xlsx, CSV: csv, interval: RETRY_INTERVAL}
}

// Enabled 是否需要输出
func (r *Reporter) Enabled() bool {
	return r.Dir != "" && (r.XLSX || r.CSV)
}

// Push 输出报表，返回写出的文件路径
// 内容与上次相同时不重复写文件，返回 nil
func (r *Reporter) Push(d *processor.Dashboard) ([]string, error) {
	if !r.Enabled() {
		return nil, nil
	}

	frames := d.Frames()
	csvData := make([][]byte, len(frames))
	for i, nf := range frames {
		var buf bytes.Buffer
		if err := nf.Frame.WriteCSV(&buf); err != nil {
			return nil, fmt.Errorf("生成 %s 数据失败: %w", nf.Sheet, err)
		}
		csvData[i] = buf.Bytes()
	}

	sum := fingerprint(d, csvData)
	r.mu.Lock()
	defer r.mu.Unlock()
	if sum == r.lastPrint {
		return nil, nil
	}

	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return nil, fmt.Errorf("创建目录失败: %v", err)
	}

	var written []string
	if r.XLSX {
		path := filepath.Join(r.Dir, reportName)
		err := retry(func() error { return utils.SaveSheets(path, frames) }, RETRY_TIMES, r.interval)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if r.CSV {
		for i, nf := range frames {
			path := filepath.Join(r.Dir, FileName(nf.Sheet)+".csv")
			data := csvData[i]
			err := retry(func() error { return os.WriteFile(path, data, 0644) }, RETRY_TIMES, r.interval)
			if err != nil {
				return written, fmt.Errorf("保存 %s 失败: %w", path, err)
			}
			written = append(written, path)
		}
	}

	r.lastPrint = sum
	return written, nil
}

// FileName 工作表名转文件名，如 "Daily Revenue" -> "daily_revenue"
func FileName(sheet string) string {
	return strings.ToLower(strings.Join(strings.Fields(sheet), "_"))
}

// fingerprint 按筛选条件和各视图内容计算MD5
func fingerprint(d *processor.Dashboard, csvData [][]byte) string {
	h := md5.New()
	fmt.Fprintf(h, "%s|%v|%v\n", d.Caption(), d.Criteria.VehicleTypes, d.Criteria.Statuses)
	for _, data := range csvData {
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// 重试函数
func retry(fn func() error, times int, interval time.Duration) error {
	var err error
	for i := 0; i < times; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < times-1 {
			time.Sleep(interval)
		}
	}
	return fmt.Errorf("重试 %d 次后失败: %v", times, err)
}
