// Package billing holds the pure billing rules: period arithmetic, due dates,
// amounts and the derived payment status. Nothing here touches storage.
package billing

import (
	"fmt"
	"time"
)

// DefaultMaxPeriods caps a single schedule expansion at ten years of monthly periods.
const DefaultMaxPeriods = 120

// Period is one monthly billing window.
type Period struct {
	Start   time.Time
	End     time.Time
	DueDate time.Time
}

// Description is the label stored on generated installments, e.g. "Aluguel 01/2025".
func (p Period) Description() string {
	return fmt.Sprintf("Aluguel %02d/%d", int(p.Start.Month()), p.Start.Year())
}

// Calculator expands a contract period into monthly billing periods.
type Calculator struct {
	MaxPeriods int
}

// NewCalculator returns a calculator with the given cap, or the default cap when max <= 0.
func NewCalculator(max int) Calculator {
	if max <= 0 {
		max = DefaultMaxPeriods
	}
	return Calculator{MaxPeriods: max}
}

// Periods starts a lazy sequence anchored at start. Without an end bound the
// sequence stops at the cap.
func (c Calculator) Periods(start time.Time, end *time.Time, dueDay int) *Sequence {
	return c.Continue(start, start.Day(), end, dueDay)
}

// Continue starts a sequence at start whose later boundaries fall on
// anchorDay of each month (clamped to month end). A start off that grid
// yields a short first period ending the day before the next grid date.
func (c Calculator) Continue(start time.Time, anchorDay int, end *time.Time, dueDay int) *Sequence {
	max := c.MaxPeriods
	if max <= 0 {
		max = DefaultMaxPeriods
	}
	first := truncate(start)
	if anchorDay < 1 || anchorDay > 31 {
		anchorDay = first.Day()
	}
	s := &Sequence{
		first:     first,
		anchorDay: anchorDay,
		dueDay:    dueDay,
		max:       max,
	}
	if dayInMonth(first.Year(), first.Month(), anchorDay, first.Location()).After(first) {
		s.lead = -1
	}
	if end != nil {
		e := truncate(*end)
		s.end = &e
	}
	return s
}

// Sequence yields contiguous periods. Period 0 starts at the first date;
// period i starts on the i-th anchor-day date after it and every period ends
// the day before the next one starts.
type Sequence struct {
	first     time.Time
	anchorDay int
	lead      int
	end       *time.Time
	dueDay    int
	max       int
	index     int
}

// Next returns the next period, or false once the end bound or the cap is reached.
func (s *Sequence) Next() (Period, bool) {
	if s.index >= s.max {
		return Period{}, false
	}

	start := s.startAt(s.index)
	if s.end != nil && !start.Before(*s.end) {
		return Period{}, false
	}

	end := s.startAt(s.index+1).AddDate(0, 0, -1)
	if s.end != nil && end.After(*s.end) {
		end = *s.end
	}
	s.index++

	return Period{
		Start:   start,
		End:     end,
		DueDate: DueDate(start, s.dueDay),
	}, true
}

func (s *Sequence) startAt(i int) time.Time {
	if i == 0 {
		return s.first
	}
	loc := s.first.Location()
	m := time.Date(s.first.Year(), s.first.Month()+time.Month(i+s.lead), 1, 0, 0, 0, 0, loc)
	return dayInMonth(m.Year(), m.Month(), s.anchorDay, loc)
}

// Collect drains the sequence.
func (s *Sequence) Collect() []Period {
	var out []Period
	for {
		p, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, p)
	}
}

// AddMonths moves t by n calendar months keeping the day of month, clamped to
// the last day of the target month (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := DaysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

// DueDate places dueDay in the month of periodStart, clamped to the month's
// last day. A due date before periodStart moves to the following month.
func DueDate(periodStart time.Time, dueDay int) time.Time {
	start := truncate(periodStart)
	due := dayInMonth(start.Year(), start.Month(), dueDay, start.Location())
	if due.Before(start) {
		next := time.Date(start.Year(), start.Month()+1, 1, 0, 0, 0, 0, start.Location())
		due = dayInMonth(next.Year(), next.Month(), dueDay, start.Location())
	}
	return due
}

// DaysIn returns the number of days in month m of year y.
func DaysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func dayInMonth(y int, m time.Month, day int, loc *time.Location) time.Time {
	if last := DaysIn(y, m); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
