// Package calendar builds read-only, display-oriented projections of daily
// completion statuses. Weeks start on Monday.
package calendar

import (
	"time"

	"github.com/sandeepkv93/ritualday/internal/model"
)

// Statuses maps a day to its classification. Missing days are "none".
type Statuses map[model.Date]model.DayStatus

func (s Statuses) Of(d model.Date) model.DayStatus {
	if st, ok := s[d]; ok && st.IsValid() {
		return st
	}
	return model.DayStatusNone
}

type Cell struct {
	Date   model.Date
	Status model.DayStatus
}

// Grid is a month laid out as Monday-start weeks. Nil cells pad the first and
// last week.
type Grid struct {
	Year  int
	Month time.Month
	Weeks [][]*Cell
}

// LeadingBlanks returns the number of nil cells before day 1.
func (g Grid) LeadingBlanks() int {
	if len(g.Weeks) == 0 {
		return 0
	}
	n := 0
	for _, c := range g.Weeks[0] {
		if c != nil {
			break
		}
		n++
	}
	return n
}

func (g Grid) Cells() []Cell {
	out := make([]Cell, 0, 31)
	for _, week := range g.Weeks {
		for _, c := range week {
			if c != nil {
				out = append(out, *c)
			}
		}
	}
	return out
}

func Month(year int, month time.Month, statuses Statuses) Grid {
	first := model.NewDate(year, month, 1)
	days := model.DaysInMonth(year, month)

	row := make([]*Cell, 0, 7)
	for i := 1; i < first.ISOWeekday(); i++ {
		row = append(row, nil)
	}

	grid := Grid{Year: year, Month: month}
	for day := 1; day <= days; day++ {
		d := model.NewDate(year, month, day)
		row = append(row, &Cell{Date: d, Status: statuses.Of(d)})
		if len(row) == 7 {
			grid.Weeks = append(grid.Weeks, row)
			row = make([]*Cell, 0, 7)
		}
	}
	if len(row) > 0 {
		for len(row) < 7 {
			row = append(row, nil)
		}
		grid.Weeks = append(grid.Weeks, row)
	}
	return grid
}

// Trailing returns n cells ending at today, oldest first.
func Trailing(n int, today model.Date, statuses Statuses) []Cell {
	if n <= 0 {
		return nil
	}
	out := make([]Cell, 0, n)
	for i := n - 1; i >= 0; i-- {
		d := today.AddDays(-i)
		out = append(out, Cell{Date: d, Status: statuses.Of(d)})
	}
	return out
}

// CurrentWeek filters a fetched window down to the Monday-start week that
// contains today.
func CurrentWeek(cells []Cell, today model.Date) []Cell {
	start := today.WeekStart()
	end := start.AddDays(6)
	out := make([]Cell, 0, 7)
	for _, c := range cells {
		if c.Date.Before(start) || c.Date.After(end) {
			continue
		}
		out = append(out, c)
	}
	return out
}
