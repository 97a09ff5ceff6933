package report

import (
	"time"

	"accountbook/internal/core"
)

// Grid is the day layout of a month starting on Sunday. Cells holds Leading
// zero blanks followed by the day numbers 1..Days.
type Grid struct {
	Leading int   `json:"leading"`
	Days    int   `json:"days"`
	Cells   []int `json:"cells"`
}

// NewGrid lays out month (1-12) of year.
func NewGrid(year, month int) Grid {
	leading := int(core.NewDate(year, month, 1).Weekday())
	days := core.DaysInMonth(year, month)
	cells := make([]int, leading, leading+days)
	for d := 1; d <= days; d++ {
		cells = append(cells, d)
	}
	return Grid{Leading: leading, Days: days, Cells: cells}
}

// Weeks splits the cells into rows of seven, padding the last row with blanks.
func (g Grid) Weeks() [][]int {
	var weeks [][]int
	for i := 0; i < len(g.Cells); i += 7 {
		week := make([]int, 7)
		copy(week, g.Cells[i:min(i+7, len(g.Cells))])
		weeks = append(weeks, week)
	}
	return weeks
}

// Navigator tracks the report window. Year and Month (1-12) only matter in
// the modes that use them.
type Navigator struct {
	Mode  Mode
	Year  int
	Month int

	now func() time.Time
}

// NewNavigator starts in ModeAll at the current month. A nil clock means time.Now.
func NewNavigator(now func() time.Time) *Navigator {
	if now == nil {
		now = time.Now
	}
	n := &Navigator{now: now}
	n.SetMode(ModeAll)
	return n
}

// SetMode switches mode and resets the window to today.
func (n *Navigator) SetMode(m Mode) {
	t := n.now()
	n.Mode = m
	n.Year = t.Year()
	n.Month = int(t.Month())
}

func (n *Navigator) PrevMonth() {
	n.Month--
	if n.Month < 1 {
		n.Month = 12
		n.Year--
	}
}

func (n *Navigator) NextMonth() {
	n.Month++
	if n.Month > 12 {
		n.Month = 1
		n.Year++
	}
}

func (n *Navigator) PrevYear() { n.Year-- }

func (n *Navigator) NextYear() { n.Year++ }

// Window returns the year and month filters the current mode implies.
func (n *Navigator) Window() (year, month *int) {
	y, m := n.Year, n.Month
	switch n.Mode {
	case ModeYearly:
		return &y, nil
	case ModeMonthly:
		return &y, &m
	}
	return nil, nil
}
