package processor

import (
	"sort"
	"time"
)

// Features 由DateTime派生的时间特征，DateTime为空时全部为空
type Features struct {
	Hour      *int
	DayOfWeek *time.Weekday
	Month     *time.Month
	IsWeekend *bool // 三值：DayOfWeek为空时为空，不默认为工作日
}

// Booking 一条打车订单记录，创建后不再修改
type Booking struct {
	BookingID     string
	Date          *time.Time // 日期(UTC零点)
	DateTime      *time.Time // Date + Time
	VehicleType   string
	BookingStatus string

	BookingValue   *float64
	RideDistance   *float64
	DriverRating   *float64
	CustomerRating *float64
	AvgVTAT        *float64
	AvgCTAT        *float64

	CancelReasonCustomer *string
	CancelReasonDriver   *string

	Features
}

// DeriveFeatures 计算时间特征，纯函数
func DeriveFeatures(dt *time.Time) Features {
	if dt == nil {
		return Features{}
	}
	hour := dt.Hour()
	day := dt.Weekday()
	month := dt.Month()
	weekend := day == time.Saturday || day == time.Sunday
	return Features{
		Hour:      &hour,
		DayOfWeek: &day,
		Month:     &month,
		IsWeekend: &weekend,
	}
}

// Derive 返回带有派生特征的副本
func Derive(b Booking) Booking {
	b.Features = DeriveFeatures(b.DateTime)
	return b
}

// DayName 星期名称，空值返回空字符串
func (b *Booking) DayName() string {
	if b.DayOfWeek == nil {
		return ""
	}
	return b.DayOfWeek.String()
}

// MonthName 月份名称，空值返回空字符串
func (b *Booking) MonthName() string {
	if b.Month == nil {
		return ""
	}
	return b.Month.String()
}

// LoadStats 加载过程中的数据质量统计
type LoadStats struct {
	Rows          int
	NullDates     int            // 日期为空或无法解析
	NullDateTimes int            // 日期时间为空或无法解析
	NullNumeric   map[string]int // 逻辑列 -> 空值/无法转换的单元格数
	MissingCols   []string       // 文件中不存在的可选列
}

// Snapshot 一次加载得到的不可变订单集合，由调用方持有并传递
type Snapshot struct {
	records []Booking
	stats   LoadStats
	source  string
}

// NewSnapshot 由内存中的记录构建快照，会重新计算派生特征
func NewSnapshot(records []Booking) *Snapshot {
	s := &Snapshot{records: make([]Booking, len(records))}
	for i, b := range records {
		s.records[i] = Derive(b)
	}
	s.stats = LoadStats{Rows: len(records), NullNumeric: map[string]int{}}
	for i := range s.records {
		if s.records[i].Date == nil {
			s.stats.NullDates++
		}
		if s.records[i].DateTime == nil {
			s.stats.NullDateTimes++
		}
	}
	return s
}

func (s *Snapshot) Len() int { return len(s.records) }

// Source 数据文件路径，内存构建时为空
func (s *Snapshot) Source() string { return s.source }

func (s *Snapshot) Stats() LoadStats { return s.stats }

// At 返回第i条记录的副本
func (s *Snapshot) At(i int) Booking { return s.records[i] }

// All 不加筛选的视图
func (s *Snapshot) All() View {
	rows := make([]*Booking, len(s.records))
	for i := range s.records {
		rows[i] = &s.records[i]
	}
	return View{rows: rows}
}

// Domain 返回覆盖全部数据的筛选条件
// 日期取最小/最大值，车型与状态去重后排序
func (s *Snapshot) Domain() Criteria {
	var c Criteria
	vehicles := map[string]struct{}{}
	statuses := map[string]struct{}{}

	for i := range s.records {
		b := &s.records[i]
		if b.Date != nil {
			if c.From.IsZero() || b.Date.Before(c.From) {
				c.From = *b.Date
			}
			if c.To.IsZero() || b.Date.After(c.To) {
				c.To = *b.Date
			}
		}
		if b.VehicleType != "" {
			vehicles[b.VehicleType] = struct{}{}
		}
		if b.BookingStatus != "" {
			statuses[b.BookingStatus] = struct{}{}
		}
	}

	c.VehicleTypes = sortedKeys(vehicles)
	c.Statuses = sortedKeys(statuses)
	return c
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// View 快照的筛选结果，只引用快照中的记录
type View struct {
	rows []*Booking
}

func (v View) Len() int { return len(v.rows) }

// Records 返回记录副本
func (v View) Records() []Booking {
	out := make([]Booking, len(v.rows))
	for i, b := range v.rows {
		out[i] = *b
	}
	return out
}

// IDs 订单号列表，按视图顺序
func (v View) IDs() []string {
	out := make([]string, len(v.rows))
	for i, b := range v.rows {
		out[i] = b.BookingID
	}
	return out
}
