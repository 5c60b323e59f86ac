package processor

import (
	"RideInsight/src/config"
	"fmt"
	"time"
)

// Criteria 筛选条件，各条件同时满足
// 空的车型/状态集合不匹配任何记录，不受限制时需显式传入全集(见 Snapshot.Domain)
type Criteria struct {
	From         time.Time // 起始日期(含)
	To           time.Time // 结束日期(含)
	VehicleTypes []string
	Statuses     []string
}

// Match 判断单条记录是否满足条件
func (c Criteria) Match(b *Booking) bool {
	return c.compile().match(b)
}

type compiledCriteria struct {
	from, to time.Time
	vehicles map[string]struct{}
	statuses map[string]struct{}
}

func (c Criteria) compile() compiledCriteria {
	cc := compiledCriteria{
		from:     dayOf(c.From),
		to:       dayOf(c.To),
		vehicles: make(map[string]struct{}, len(c.VehicleTypes)),
		statuses: make(map[string]struct{}, len(c.Statuses)),
	}
	for _, v := range c.VehicleTypes {
		cc.vehicles[v] = struct{}{}
	}
	for _, s := range c.Statuses {
		cc.statuses[s] = struct{}{}
	}
	return cc
}

func (cc compiledCriteria) match(b *Booking) bool {
	if b.Date == nil {
		return false
	}
	d := dayOf(*b.Date)
	if d.Before(cc.from) || d.After(cc.to) {
		return false
	}
	if _, ok := cc.vehicles[b.VehicleType]; !ok {
		return false
	}
	_, ok := cc.statuses[b.BookingStatus]
	return ok
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Filter 按条件筛选快照，不修改快照
func (s *Snapshot) Filter(c Criteria) View {
	return s.All().Filter(c)
}

// Filter 在视图上再次筛选
func (v View) Filter(c Criteria) View {
	if len(c.VehicleTypes) == 0 || len(c.Statuses) == 0 {
		return View{}
	}
	cc := c.compile()
	rows := make([]*Booking, 0, len(v.rows))
	for _, b := range v.rows {
		if cc.match(b) {
			rows = append(rows, b)
		}
	}
	return View{rows: rows}
}

// CriteriaFromConfig 由配置生成筛选条件，未配置的项取 domain 中的值
func CriteriaFromConfig(fc config.FilterConfig, domain Criteria) (Criteria, error) {
	c := domain
	if fc.DateFrom != "" {
		t, err := time.Parse("2006-01-02", fc.DateFrom)
		if err != nil {
			return Criteria{}, fmt.Errorf("date_from 格式错误: %w", err)
		}
		c.From = t
	}
	if fc.DateTo != "" {
		t, err := time.Parse("2006-01-02", fc.DateTo)
		if err != nil {
			return Criteria{}, fmt.Errorf("date_to 格式错误: %w", err)
		}
		c.To = t
	}
	if len(fc.VehicleTypes) > 0 {
		c.VehicleTypes = fc.VehicleTypes
	}
	if len(fc.Statuses) > 0 {
		c.Statuses = fc.Statuses
	}
	return c, nil
}
