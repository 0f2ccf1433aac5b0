package layout

import (
	"slices"
	"time"

	"leaderflow/internal/model"
)

// DefaultVisiblePerDay is how many events a month cell shows before
// collapsing the rest into an overflow count.
const DefaultVisiblePerDay = 3

// MonthGridDays returns every day from the Monday on or before the first
// of anchor's month through the Sunday on or after its last day. The
// length is always a multiple of 7.
func MonthGridDays(anchor time.Time) []time.Time {
	y, m, _ := anchor.Date()
	loc := anchor.Location()
	first := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	last := time.Date(y, m+1, 0, 0, 0, 0, 0, loc)

	start := StartOfWeek(first)
	end := AddDays(StartOfWeek(last), 6)

	var days []time.Time
	for d := start; !d.After(end); d = AddDays(d, 1) {
		days = append(days, d)
	}
	return days
}

// DayBucket is one month-grid cell.
type DayBucket struct {
	Day time.Time `json:"day"`
	// Events holds at most the visible limit, sorted by start.
	Events []model.Event `json:"events"`
	// Overflow is how many of the day's events were not included.
	Overflow int  `json:"overflow"`
	Total    int  `json:"total"`
	InMonth  bool `json:"in_month"`

	// Tooltip placement hints: right-aligned in the last three columns,
	// above the cell in the last two rows.
	TooltipRight bool `json:"tooltip_right"`
	TooltipAbove bool `json:"tooltip_above"`
}

// DayEvents returns the events starting on day, in input order, with
// Start and End converted to day's location so positions read as that
// day's wall clock.
func DayEvents(events []model.Event, day time.Time) []model.Event {
	loc := day.Location()
	var out []model.Event
	for _, ev := range events {
		if SameDay(ev.Start, day) {
			ev.Start = ev.Start.In(loc)
			ev.End = ev.End.In(loc)
			out = append(out, ev)
		}
	}
	return out
}

// BucketDay collects day's events sorted by start and truncates them to
// limit, reporting what was cut as Overflow. limit <= 0 disables
// truncation.
func BucketDay(events []model.Event, day time.Time, limit int) DayBucket {
	dayEvents := DayEvents(events, day)
	slices.SortStableFunc(dayEvents, func(a, b model.Event) int {
		return a.Start.Compare(b.Start)
	})

	shown := len(dayEvents)
	if limit > 0 && shown > limit {
		shown = limit
	}
	return DayBucket{
		Day:      day,
		Events:   dayEvents[:shown:shown],
		Overflow: len(dayEvents) - shown,
		Total:    len(dayEvents),
	}
}

// Month is the month view of anchor's month.
type Month struct {
	Year  int         `json:"year"`
	Month time.Month  `json:"month"`
	Rows  int         `json:"rows"`
	Days  []DayBucket `json:"days"`
}

// MonthLayout buckets events into every cell of anchor's month grid.
func MonthLayout(events []model.Event, anchor time.Time, limit int) Month {
	days := MonthGridDays(anchor)
	rows := len(days) / 7
	y, m, _ := anchor.Date()

	out := Month{Year: y, Month: m, Rows: rows, Days: make([]DayBucket, len(days))}
	for i, day := range days {
		b := BucketDay(events, day, limit)
		b.InMonth = day.Month() == m
		b.TooltipRight = i%7 >= 4
		b.TooltipAbove = i/7 >= rows-2
		out.Days[i] = b
	}
	return out
}
