package layout

import (
	"time"

	"leaderflow/internal/model"
)

// Rect is an event's full layout rectangle. Top and Height are in grid
// units; Left and Width are percentages of the day track before the
// display gutter is applied.
type Rect struct {
	Top     float64 `json:"top"`
	Height  float64 `json:"height"`
	Column  int     `json:"column"`
	Columns int     `json:"columns"`
	Left    float64 `json:"left"`
	Width   float64 `json:"width"`
}

func newRect(p Placement, c Columns) Rect {
	return Rect{
		Top:     p.Top,
		Height:  p.Height,
		Column:  c.Index,
		Columns: c.Count,
		Left:    c.Left(),
		Width:   c.Width(),
	}
}

// Placed pairs an event with its rectangle.
type Placed struct {
	Event model.Event `json:"event"`
	Rect  Rect        `json:"rect"`
}

// DayColumn is one day of the week grid.
type DayColumn struct {
	Day   time.Time `json:"day"`
	Items []Placed  `json:"items"`
}

// Week is the week view around an anchor date.
type Week struct {
	Start  time.Time   `json:"start"`
	Number int         `json:"number"`
	Hours  []int       `json:"hours"`
	Days   []DayColumn `json:"days"`
}

// LayoutDay computes rectangles for events starting on day, keeping the
// order they were supplied in.
func LayoutDay(events []model.Event, day time.Time, b Bounds, s Strategy) DayColumn {
	dayEvents := DayEvents(events, day)
	col := DayColumn{Day: day, Items: make([]Placed, len(dayEvents))}

	var packed []Columns
	if s == Greedy {
		packed = PackColumns(dayEvents)
	}
	for i, ev := range dayEvents {
		var c Columns
		if packed != nil {
			c = packed[i]
		} else {
			c = ResolveColumns(ev, dayEvents)
		}
		col.Items[i] = Placed{Event: ev, Rect: newRect(Position(ev, b), c)}
	}
	return col
}

// WeekLayout lays out the Monday-first week containing anchor.
func WeekLayout(events []model.Event, anchor time.Time, b Bounds, s Strategy) Week {
	days := WeekDays(anchor)
	w := Week{
		Start:  days[0],
		Number: WeekNumber(anchor),
		Hours:  b.Hours(),
		Days:   make([]DayColumn, len(days)),
	}
	for i, day := range days {
		w.Days[i] = LayoutDay(events, day, b, s)
	}
	return w
}
