package processor

import (
	"RideInsight/src/config"
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// KPIs 顶部指标
type KPIs struct {
	TotalRevenue    float64
	Bookings        int
	CompletionRate  float64 // 百分比
	AvgBookingValue float64 // 没有有效金额时为0
	AvgVTAT         float64 // 分钟，没有有效值时为0
}

// ComputeKPIs 计算顶部指标，空视图返回零值
func ComputeKPIs(v View, completedStatus string) KPIs {
	var (
		values    []float64
		vtat      []float64
		completed int
	)
	for _, b := range v.rows {
		if b.BookingValue != nil {
			values = append(values, *b.BookingValue)
		}
		if b.AvgVTAT != nil {
			vtat = append(vtat, *b.AvgVTAT)
		}
		if b.BookingStatus == completedStatus {
			completed++
		}
	}

	k := KPIs{
		Bookings:       v.Len(),
		CompletionRate: percent(completed, v.Len()),
	}
	for _, x := range values {
		k.TotalRevenue += x
	}
	if len(values) > 0 {
		k.AvgBookingValue = stat.Mean(values, nil)
	}
	if len(vtat) > 0 {
		k.AvgVTAT = stat.Mean(vtat, nil)
	}
	return k
}

// Dashboard 一次筛选对应的全部结果
type Dashboard struct {
	Criteria    Criteria
	GeneratedAt time.Time

	KPIs        KPIs
	Daily       []DailyRevenueRow
	VehicleMix  []VehicleRevenueRow // 按收入升序
	Heatmap     Heatmap
	Hourly      []HourCount
	Reasons     []ReasonCount
	CancelRates []CancelRateRow
	Distance    Histogram
}

// BuildDashboard 并发计算全部视图，各视图只读共享同一个View
func BuildDashboard(ctx context.Context, v View, c Criteria, dcfg *config.DataConfig) (*Dashboard, error) {
	if dcfg == nil {
		dcfg = config.DefaultDataConfig()
	}
	d := &Dashboard{Criteria: c, GeneratedAt: time.Now()}

	g, ctx := errgroup.WithContext(ctx)
	run := func(fn func()) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn()
			return nil
		})
	}

	run(func() { d.KPIs = ComputeKPIs(v, dcfg.CompletedStatus) })
	run(func() { d.Daily = DailyRevenue(v, dcfg.RollingWindow) })
	run(func() { d.VehicleMix = SortByRevenue(VehicleMix(v)) })
	run(func() { d.Heatmap = DemandHeatmap(v) })
	run(func() { d.Hourly = HourlyProfile(v) })
	run(func() { d.Reasons = CancellationReasons(v, dcfg.CancelKeyword, dcfg.TopReasons) })
	run(func() { d.CancelRates = CancellationRateByVehicle(v, dcfg.CancelKeyword) })
	run(func() { d.Distance = DistanceHistogram(v, dcfg.HistogramBins) })

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}
