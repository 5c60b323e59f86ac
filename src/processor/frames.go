package processor

import (
	"RideInsight/src/utils"
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// 各视图转换为DataFrame，供报表输出使用

func (d *Dashboard) KPIFrame() dataframe.DataFrame {
	cards := d.KPIs.Cards()
	titles := make([]string, len(cards))
	values := make([]string, len(cards))
	for i, c := range cards {
		titles[i], values[i] = c.Title, c.Value
	}
	raw := []float64{
		d.KPIs.TotalRevenue,
		float64(d.KPIs.Bookings),
		d.KPIs.CompletionRate,
		d.KPIs.AvgBookingValue,
		d.KPIs.AvgVTAT,
	}
	return dataframe.New(
		series.New(titles, series.String, "Metric"),
		series.New(values, series.String, "Display"),
		series.New(raw, series.Float, "Value"),
	)
}

func (d *Dashboard) DailyFrame() dataframe.DataFrame {
	n := len(d.Daily)
	dates := make([]string, n)
	revenue := make([]float64, n)
	bookings := make([]int, n)
	rolling := make([]float64, n)
	for i, r := range d.Daily {
		dates[i] = r.Date.Format("2006-01-02")
		revenue[i], bookings[i], rolling[i] = r.Revenue, r.Bookings, r.Rolling
	}
	return dataframe.New(
		series.New(dates, series.String, "Date"),
		series.New(revenue, series.Float, "Booking Value"),
		series.New(bookings, series.Int, "Bookings"),
		series.New(rolling, series.Float, "Revenue (7d Avg)"),
	)
}

func (d *Dashboard) VehicleMixFrame() dataframe.DataFrame {
	n := len(d.VehicleMix)
	names := make([]string, n)
	revenue := make([]float64, n)
	rides := make([]int, n)
	avg := make([]float64, n)
	for i, r := range d.VehicleMix {
		names[i], revenue[i], rides[i] = r.VehicleType, r.Revenue, r.Rides
		avg[i] = math.NaN()
		if r.AvgPrice != nil {
			avg[i] = *r.AvgPrice
		}
	}
	return dataframe.New(
		series.New(names, series.String, "Vehicle Type"),
		series.New(revenue, series.Float, "Revenue"),
		series.New(rides, series.Int, "Rides"),
		series.New(avg, series.Float, "Avg_Price"),
	)
}

func (d *Dashboard) HeatmapFrame() dataframe.DataFrame {
	cols := make([]series.Series, 0, 25)
	days := make([]string, len(WeekOrder))
	for i, day := range WeekOrder {
		days[i] = day.String()
	}
	cols = append(cols, series.New(days, series.String, "DayOfWeek"))
	for hour := 0; hour < 24; hour++ {
		counts := make([]int, len(WeekOrder))
		for i := range WeekOrder {
			counts[i] = d.Heatmap.Counts[i][hour]
		}
		cols = append(cols, series.New(counts, series.Int, strconv.Itoa(hour)))
	}
	return dataframe.New(cols...)
}

func (d *Dashboard) HourlyFrame() dataframe.DataFrame {
	hours := make([]int, len(d.Hourly))
	counts := make([]int, len(d.Hourly))
	for i, h := range d.Hourly {
		hours[i], counts[i] = h.Hour, h.Bookings
	}
	return dataframe.New(
		series.New(hours, series.Int, "Hour"),
		series.New(counts, series.Int, "Bookings"),
	)
}

func (d *Dashboard) ReasonsFrame() dataframe.DataFrame {
	reasons := make([]string, len(d.Reasons))
	counts := make([]int, len(d.Reasons))
	for i, r := range d.Reasons {
		reasons[i], counts[i] = r.Reason, r.Count
	}
	return dataframe.New(
		series.New(reasons, series.String, "Reason"),
		series.New(counts, series.Int, "Count"),
	)
}

func (d *Dashboard) CancelRateFrame() dataframe.DataFrame {
	n := len(d.CancelRates)
	names := make([]string, n)
	total := make([]int, n)
	cancelled := make([]int, n)
	rate := make([]float64, n)
	for i, r := range d.CancelRates {
		names[i], total[i], cancelled[i], rate[i] = r.VehicleType, r.Total, r.Cancelled, r.Rate
	}
	return dataframe.New(
		series.New(names, series.String, "Vehicle Type"),
		series.New(total, series.Int, "Total"),
		series.New(cancelled, series.Int, "Cancelled"),
		series.New(rate, series.Float, "Rate"),
	)
}

func (d *Dashboard) DistanceFrame() dataframe.DataFrame {
	n := len(d.Distance.Counts)
	lo := make([]float64, n)
	hi := make([]float64, n)
	counts := make([]int, n)
	for i, c := range d.Distance.Counts {
		lo[i], hi[i], counts[i] = d.Distance.Edges[i], d.Distance.Edges[i+1], c
	}
	return dataframe.New(
		series.New(lo, series.Float, "From"),
		series.New(hi, series.Float, "To"),
		series.New(counts, series.Int, "Rides"),
	)
}

// Frames 全部视图，按报表工作表顺序
func (d *Dashboard) Frames() []utils.NamedFrame {
	return []utils.NamedFrame{
		{Sheet: "KPI", Frame: d.KPIFrame()},
		{Sheet: "Daily Revenue", Frame: d.DailyFrame()},
		{Sheet: "Vehicle Mix", Frame: d.VehicleMixFrame()},
		{Sheet: "Demand Heatmap", Frame: d.HeatmapFrame()},
		{Sheet: "Hourly Profile", Frame: d.HourlyFrame()},
		{Sheet: "Cancel Reasons", Frame: d.ReasonsFrame()},
		{Sheet: "Cancel Rate", Frame: d.CancelRateFrame()},
		{Sheet: "Ride Distance", Frame: d.DistanceFrame()},
	}
}
