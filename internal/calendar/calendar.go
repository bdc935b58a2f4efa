package calendar

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/tradejournal/internal/analyticsconfig"
)

// Calendar answers market-local time questions for the analytics engine
// ⭐ SSOT: 거래일/세션/변동성 구간 판정은 여기서만
type Calendar struct {
	Code     string
	Location *time.Location

	sessionOpen  int // minutes after midnight
	sessionClose int
	weekend      map[time.Weekday]struct{}

	mu         sync.RWMutex
	holidays   map[string]Holiday
	volatility []clockWindow
}

type clockWindow struct {
	start, end int
}

// Holiday is one non-trading calendar day
type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name,omitempty"`
}

// DayKey formats the holiday date as YYYY-MM-DD
func (h Holiday) DayKey() string {
	return h.Date.Format("2006-01-02")
}

// New builds a Calendar from the market section of the thresholds config
func New(m analyticsconfig.Market) (*Calendar, error) {
	loc, err := time.LoadLocation(m.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", m.Timezone, err)
	}

	open, err := analyticsconfig.ParseClock(m.SessionOpen)
	if err != nil {
		return nil, fmt.Errorf("session open: %w", err)
	}
	closeAt, err := analyticsconfig.ParseClock(m.SessionClose)
	if err != nil {
		return nil, fmt.Errorf("session close: %w", err)
	}

	c := &Calendar{
		Code:         m.Code,
		Location:     loc,
		sessionOpen:  open,
		sessionClose: closeAt,
		weekend:      make(map[time.Weekday]struct{}, len(m.WeekendDays)),
		holidays:     make(map[string]Holiday, len(m.Holidays)),
	}

	for _, name := range m.WeekendDays {
		d, ok := analyticsconfig.ParseWeekday(name)
		if !ok {
			return nil, fmt.Errorf("unknown weekend day %q", name)
		}
		c.weekend[d] = struct{}{}
	}

	for _, w := range m.HighVolatilityWindows {
		start, err := analyticsconfig.ParseClock(w.Start)
		if err != nil {
			return nil, fmt.Errorf("volatility window start: %w", err)
		}
		end, err := analyticsconfig.ParseClock(w.End)
		if err != nil {
			return nil, fmt.Errorf("volatility window end: %w", err)
		}
		c.volatility = append(c.volatility, clockWindow{start: start, end: end})
	}

	for _, d := range m.Holidays {
		day, err := time.ParseInLocation("2006-01-02", d, loc)
		if err != nil {
			return nil, fmt.Errorf("holiday %q: %w", d, err)
		}
		c.AddHoliday(Holiday{Date: day})
	}

	return c, nil
}

// MustDefault returns the calendar of analyticsconfig.Default()
func MustDefault() *Calendar {
	c, err := New(analyticsconfig.Default().Market)
	if err != nil {
		panic(err)
	}
	return c
}

// AddHoliday registers a non-trading day, returning false if the day was already known.
// Only the year/month/day of h.Date are used (DB DATE 값은 UTC 자정으로 들어옴).
func (c *Calendar) AddHoliday(h Holiday) bool {
	y, m, d := h.Date.Date()
	h.Date = time.Date(y, m, d, 0, 0, 0, 0, c.Location)
	key := h.DayKey()

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.holidays[key]; exists {
		return false
	}
	c.holidays[key] = h
	return true
}

// Holidays returns registered holidays sorted by date
func (c *Calendar) Holidays() []Holiday {
	c.mu.RLock()
	out := make([]Holiday, 0, len(c.holidays))
	for _, h := range c.holidays {
		out = append(out, h)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Local converts t into the market location
func (c *Calendar) Local(t time.Time) time.Time {
	return t.In(c.Location)
}

// DayKey returns the market-local calendar day as YYYY-MM-DD
func (c *Calendar) DayKey(t time.Time) string {
	return c.Local(t).Format("2006-01-02")
}

// LocalMinutes returns minutes after market-local midnight
func (c *Calendar) LocalMinutes(t time.Time) int {
	lt := c.Local(t)
	return lt.Hour()*60 + lt.Minute()
}

// IsTradingDay reports whether t falls on a regular session day
func (c *Calendar) IsTradingDay(t time.Time) bool {
	lt := c.Local(t)
	if _, weekend := c.weekend[lt.Weekday()]; weekend {
		return false
	}
	c.mu.RLock()
	_, holiday := c.holidays[lt.Format("2006-01-02")]
	c.mu.RUnlock()
	return !holiday
}

// InHighVolatility reports entries inside a configured [start, end) window
func (c *Calendar) InHighVolatility(t time.Time) bool {
	m := c.LocalMinutes(t)
	for _, w := range c.volatility {
		if m >= w.start && m < w.end {
			return true
		}
	}
	return false
}

// InSessionEdge reports entries in the first or last window of the regular session
// 장 시작 [open, open+w), 장 마감 [close-w, close] (분 단위)
func (c *Calendar) InSessionEdge(t time.Time, window time.Duration) bool {
	m := c.LocalMinutes(t)
	w := int(window / time.Minute)

	if m >= c.sessionOpen && m < c.sessionOpen+w {
		return true
	}
	return m >= c.sessionClose-w && m <= c.sessionClose
}
