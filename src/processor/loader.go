package processor

import (
	"RideInsight/src/config"
	"RideInsight/src/datasource/file"
	"RideInsight/src/utils"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// 必须存在的列，其余列缺失时按空值处理
var requiredColumns = []string{
	config.ColBookingID,
	config.ColDate,
	config.ColTime,
	config.ColVehicleType,
	config.ColBookingStatus,
	config.ColBookingValue,
}

type numericField struct {
	logical string
	field   func(*Booking) **float64
}

var numericFields = []numericField{
	{config.ColBookingValue, func(b *Booking) **float64 { return &b.BookingValue }},
	{config.ColRideDistance, func(b *Booking) **float64 { return &b.RideDistance }},
	{config.ColDriverRating, func(b *Booking) **float64 { return &b.DriverRating }},
	{config.ColCustomerRating, func(b *Booking) **float64 { return &b.CustomerRating }},
	{config.ColAvgVTAT, func(b *Booking) **float64 { return &b.AvgVTAT }},
	{config.ColAvgCTAT, func(b *Booking) **float64 { return &b.AvgCTAT }},
}

// Load 读取数据文件并构建快照
// 文件不存在返回 ErrSourceNotFound，其他整体性错误返回 *LoadError
func Load(path, sheetName string, dcfg *config.DataConfig) (*Snapshot, error) {
	if dcfg == nil {
		dcfg = config.DefaultDataConfig()
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceNotFound, path, err)
	}
	f.Close()

	df, err := file.ReadTable(path, file.ReadOptions{
		Delimiter: dcfg.Comma(),
		Encoding:  dcfg.Encoding,
		SheetName: sheetName,
		HeaderRow: dcfg.HeaderRow,
	})
	if err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}

	snap, err := FromDataFrame(df, dcfg)
	if err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}
	snap.source = path
	return snap, nil
}

// FromDataFrame 将字符串类型的DataFrame清洗为订单记录
// 单元格解析失败只会得到空值，不会返回错误
func FromDataFrame(df dataframe.DataFrame, dcfg *config.DataConfig) (*Snapshot, error) {
	if dcfg == nil {
		dcfg = config.DefaultDataConfig()
	}

	stats := LoadStats{Rows: df.Nrow(), NullNumeric: map[string]int{}}
	cols := map[string]series.Series{}
	for _, logical := range config.LogicalColumns {
		header := dcfg.Column(logical)
		if header != "" && utils.HasColumn(df, header) {
			cols[logical] = df.Col(header)
			continue
		}
		if utils.Contains(requiredColumns, logical) {
			return nil, fmt.Errorf("缺少必需列 %q", header)
		}
		if header == "" {
			header = logical
		}
		stats.MissingCols = append(stats.MissingCols, header)
	}
	sort.Strings(stats.MissingCols)

	// 需要数值化且文件中存在的列
	var numericTargets []numericField
	for _, nf := range numericFields {
		if _, ok := cols[nf.logical]; ok && dcfg.IsNumeric(nf.logical) {
			numericTargets = append(numericTargets, nf)
		}
	}

	cell := func(logical string, row int) (string, bool) {
		col, ok := cols[logical]
		if !ok {
			return "", false
		}
		el := col.Elem(row)
		if el.IsNA() {
			return "", false
		}
		s := strings.TrimSpace(el.String())
		if utils.IsNullToken(s) {
			return "", false
		}
		return s, true
	}

	numeric := func(logical string, row int) *float64 {
		s, ok := cell(logical, row)
		if !ok {
			stats.NullNumeric[logical]++
			return nil
		}
		v, ok := coerceFloat(s)
		if !ok {
			stats.NullNumeric[logical]++
			return nil
		}
		return &v
	}

	text := func(logical string, row int) *string {
		s, ok := cell(logical, row)
		if !ok {
			return nil
		}
		return &s
	}

	records := make([]Booking, df.Nrow())
	for i := range records {
		b := Booking{}
		if id, ok := cell(config.ColBookingID, i); ok {
			b.BookingID = strings.Trim(id, `"`)
		}
		if v, ok := cell(config.ColVehicleType, i); ok {
			b.VehicleType = v
		}
		if v, ok := cell(config.ColBookingStatus, i); ok {
			b.BookingStatus = v
		}

		dateStr, _ := cell(config.ColDate, i)
		timeStr, _ := cell(config.ColTime, i)
		b.Date = ParseDate(dateStr)
		b.DateTime = CombineDateTime(b.Date, timeStr)
		if b.Date == nil {
			stats.NullDates++
		}
		if b.DateTime == nil {
			stats.NullDateTimes++
		}

		for _, nf := range numericTargets {
			*nf.field(&b) = numeric(nf.logical, i)
		}

		b.CancelReasonCustomer = text(config.ColReasonCustomer, i)
		b.CancelReasonDriver = text(config.ColReasonDriver, i)

		records[i] = Derive(b)
	}

	return &Snapshot{records: records, stats: stats}, nil
}

// excel序列号至少5位整数(10000 即 1927-05-18)，"2024" 这类短数字按年份解析
var excelSerial = regexp.MustCompile(`^\d{5,}(\.\d+)?$`)

// 时间列允许的格式，日期部分由 Date 列提供
var clockLayouts = []string{
	"15:04:05",
	"15:04:05.999999999",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
	"3:04:05PM",
	"3:04PM",
}

// ParseDate 宽松解析日期，只保留年月日，失败返回nil
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if utils.IsNullToken(s) {
		return nil
	}
	var t time.Time
	ok := false
	if excelSerial.MatchString(s) {
		t, ok = utils.ExcelSerialToTime(s)
	}
	if !ok {
		var err error
		t, err = dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return nil
		}
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// CombineDateTime 日期加上时间文本，任一部分缺失或时间不合法返回nil
func CombineDateTime(date *time.Time, clock string) *time.Time {
	clock = strings.TrimSpace(clock)
	if date == nil || utils.IsNullToken(clock) {
		return nil
	}
	if c, ok := utils.ExcelFractionToClock(clock); ok {
		clock = c
	}
	t, ok := parseClock(strings.ToUpper(clock))
	if !ok {
		return nil
	}
	dt := time.Date(date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	return &dt
}

func parseClock(clock string) (time.Time, bool) {
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, clock); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// coerceFloat 数值转换，非数值或非有限值视为空
func coerceFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
