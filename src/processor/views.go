package processor

import (
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DailyRevenueRow 按日期汇总的收入
type DailyRevenueRow struct {
	Date     time.Time
	Revenue  float64 // 当日 booking_value 之和，空值不计
	Bookings int     // 当日全部记录数
	Rolling  float64 // 截至当日(含)最近window个日期点的收入均值
}

// DailyRevenue 日收入序列，只包含出现过的日期，按日期升序
// 滚动均值最少使用1个点，不做空值填充
func DailyRevenue(v View, window int) []DailyRevenueRow {
	if window < 1 {
		window = 1
	}

	byDate := map[time.Time]*DailyRevenueRow{}
	for _, b := range v.rows {
		if b.Date == nil {
			continue
		}
		d := dayOf(*b.Date)
		row, ok := byDate[d]
		if !ok {
			row = &DailyRevenueRow{Date: d}
			byDate[d] = row
		}
		row.Bookings++
		if b.BookingValue != nil {
			row.Revenue += *b.BookingValue
		}
	}

	rows := make([]DailyRevenueRow, 0, len(byDate))
	for _, row := range byDate {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	revenue := make([]float64, len(rows))
	for i := range rows {
		revenue[i] = rows[i].Revenue
	}
	for i, m := range RollingMean(revenue, window) {
		rows[i].Rolling = m
	}
	return rows
}

// RollingMean 尾随滚动均值，窗口包含当前点及之前最多window-1个点
func RollingMean(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		out[i] = stat.Mean(values[start:i+1], nil)
	}
	return out
}

// VehicleRevenueRow 车型收入构成
type VehicleRevenueRow struct {
	VehicleType string
	Revenue     float64
	Rides       int
	AvgPrice    *float64 // 没有有效金额时为空
}

// VehicleMix 按车型汇总收入，结果按车型名称排序
func VehicleMix(v View) []VehicleRevenueRow {
	type acc struct {
		rides  int
		values []float64
	}
	groups := map[string]*acc{}
	for _, b := range v.rows {
		if b.VehicleType == "" {
			continue
		}
		g, ok := groups[b.VehicleType]
		if !ok {
			g = &acc{}
			groups[b.VehicleType] = g
		}
		g.rides++
		if b.BookingValue != nil {
			g.values = append(g.values, *b.BookingValue)
		}
	}

	rows := make([]VehicleRevenueRow, 0, len(groups))
	for name, g := range groups {
		row := VehicleRevenueRow{
			VehicleType: name,
			Revenue:     floats.Sum(g.values),
			Rides:       g.rides,
		}
		if len(g.values) > 0 {
			mean := stat.Mean(g.values, nil)
			row.AvgPrice = &mean
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].VehicleType < rows[j].VehicleType })
	return rows
}

// SortByRevenue 按收入升序排序(横向条形图自下而上)，返回新切片
func SortByRevenue(rows []VehicleRevenueRow) []VehicleRevenueRow {
	out := append([]VehicleRevenueRow(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Revenue < out[j].Revenue })
	return out
}

// WeekOrder 热力图的行顺序，周一到周日
var WeekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// Heatmap 星期×小时订单量，没有记录的格子为0
type Heatmap struct {
	Counts [7][24]int // 行按 WeekOrder，列为0~23时
}

// Row 某一天的24小时计数
func (h Heatmap) Row(day time.Weekday) [24]int {
	return h.Counts[weekIndex(day)]
}

func (h Heatmap) Total() int {
	total := 0
	for _, row := range h.Counts {
		for _, c := range row {
			total += c
		}
	}
	return total
}

func weekIndex(day time.Weekday) int {
	return (int(day) + 6) % 7
}

// DemandHeatmap 按(星期, 小时)计数，日期时间为空的记录不参与
func DemandHeatmap(v View) Heatmap {
	var h Heatmap
	for _, b := range v.rows {
		if b.DayOfWeek == nil || b.Hour == nil {
			continue
		}
		h.Counts[weekIndex(*b.DayOfWeek)][*b.Hour]++
	}
	return h
}

// HourCount 每小时订单量
type HourCount struct {
	Hour     int
	Bookings int
}

// HourlyProfile 按小时计数，只包含出现过的小时，升序
func HourlyProfile(v View) []HourCount {
	var counts [24]int
	for _, b := range v.rows {
		if b.Hour != nil {
			counts[*b.Hour]++
		}
	}
	var out []HourCount
	for hour, n := range counts {
		if n > 0 {
			out = append(out, HourCount{Hour: hour, Bookings: n})
		}
	}
	return out
}

// ReasonCount 取消原因频次
type ReasonCount struct {
	Reason string
	Count  int
}

// IsCancelled 状态包含关键字(不区分大小写)即视为取消
func IsCancelled(status, keyword string) bool {
	if keyword == "" {
		keyword = "cancel"
	}
	return strings.Contains(strings.ToLower(status), strings.ToLower(keyword))
}

// CoalesceReason 取消原因合并规则：乘客原因优先，其次司机原因
func CoalesceReason(customer, driver *string) *string {
	if customer != nil {
		return customer
	}
	return driver
}

// CancellationReasons 取消订单中出现最多的topN个原因
// 按次数降序，次数相同按首次出现顺序；topN<0 表示不截断
func CancellationReasons(v View, keyword string, topN int) []ReasonCount {
	index := map[string]int{}
	var out []ReasonCount
	for _, b := range v.rows {
		if !IsCancelled(b.BookingStatus, keyword) {
			continue
		}
		reason := CoalesceReason(b.CancelReasonCustomer, b.CancelReasonDriver)
		if reason == nil {
			continue
		}
		if i, ok := index[*reason]; ok {
			out[i].Count++
			continue
		}
		index[*reason] = len(out)
		out = append(out, ReasonCount{Reason: *reason, Count: 1})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if topN >= 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// CancelRateRow 车型取消率
type CancelRateRow struct {
	VehicleType string
	Total       int
	Cancelled   int
	Rate        float64 // 百分比，Total为0时为0
}

// CancellationRateByVehicle 按车型统计取消率，按车型名称排序
func CancellationRateByVehicle(v View, keyword string) []CancelRateRow {
	groups := map[string]*CancelRateRow{}
	for _, b := range v.rows {
		if b.VehicleType == "" {
			continue
		}
		row, ok := groups[b.VehicleType]
		if !ok {
			row = &CancelRateRow{VehicleType: b.VehicleType}
			groups[b.VehicleType] = row
		}
		row.Total++
		if IsCancelled(b.BookingStatus, keyword) {
			row.Cancelled++
		}
	}

	out := make([]CancelRateRow, 0, len(groups))
	for _, row := range groups {
		row.Rate = percent(row.Cancelled, row.Total)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleType < out[j].VehicleType })
	return out
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// Histogram 等宽分箱直方图，Edges 比 Counts 多一个
type Histogram struct {
	Edges  []float64
	Counts []int
}

// DistanceHistogram 行程距离分布，空值不计
// 所有值相同时只有一个宽度为1的箱
func DistanceHistogram(v View, bins int) Histogram {
	var values []float64
	for _, b := range v.rows {
		if b.RideDistance != nil {
			values = append(values, *b.RideDistance)
		}
	}
	return EqualWidthHistogram(values, bins)
}

// EqualWidthHistogram 计算等宽直方图，最后一个箱包含最大值
func EqualWidthHistogram(values []float64, bins int) Histogram {
	if len(values) == 0 {
		return Histogram{}
	}
	if bins < 1 {
		bins = 1
	}

	x := append([]float64(nil), values...)
	sort.Float64s(x)
	lo, hi := x[0], x[len(x)-1]

	var dividers []float64
	if lo == hi {
		dividers = []float64{lo, lo + 1}
	} else {
		dividers = floats.Span(make([]float64, bins+1), lo, hi)
	}
	edges := append([]float64(nil), dividers...)
	// stat.Histogram 要求最大值严格小于最后一个分割点
	last := len(dividers) - 1
	if lo != hi {
		edges[last] = hi
		dividers[last] = math.Nextafter(hi, math.Inf(1))
	}

	counts := stat.Histogram(nil, dividers, x, nil)
	h := Histogram{Edges: edges, Counts: make([]int, len(counts))}
	for i, c := range counts {
		h.Counts[i] = int(c)
	}
	return h
}
