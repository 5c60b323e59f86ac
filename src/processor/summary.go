package processor

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// KPICard 指标卡片的标题与显示值
type KPICard struct {
	Title string
	Value string
}

// Cards 格式化顶部指标卡片
func (k KPIs) Cards() []KPICard {
	printer := message.NewPrinter(language.English)
	return []KPICard{
		{"Total Revenue", printer.Sprintf("₹%.1fM", k.TotalRevenue/1e6)},
		{"Total Bookings", printer.Sprintf("%d", k.Bookings)},
		{"Completion Rate", printer.Sprintf("%.1f%%", k.CompletionRate)},
		{"Avg Order Value", printer.Sprintf("₹%.0f", k.AvgBookingValue)},
		{"Avg Arrival Time", printer.Sprintf("%.1f min", k.AvgVTAT)},
	}
}

// Caption 数据范围说明，如 "Jan 01, 2024 - Dec 30, 2024 | Total Records: 148,770"
func (d *Dashboard) Caption() string {
	printer := message.NewPrinter(language.English)
	return printer.Sprintf("%s - %s | Total Records: %d",
		d.Criteria.From.Format("Jan 02, 2006"),
		d.Criteria.To.Format("Jan 02, 2006"),
		d.KPIs.Bookings)
}
