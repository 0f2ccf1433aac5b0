package layout

import (
	"fmt"
	"slices"
	"strings"

	"leaderflow/internal/model"
)

// Strategy selects how overlapping events are split into columns.
type Strategy string

const (
	// PerEvent computes each event's group from its own overlaps only.
	// Two events that both overlap a third but not each other can end up
	// with rectangles that intersect; that is the established behaviour.
	PerEvent Strategy = "per-event"

	// Greedy clusters transitively overlapping events and gives each one
	// the lowest free column, so rectangles never intersect.
	Greedy Strategy = "greedy"
)

// ParseStrategy accepts "per-event" (also the empty string) and "greedy".
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PerEvent:
		return PerEvent, nil
	case Greedy:
		return Greedy, nil
	default:
		return "", fmt.Errorf("layout: unknown overlap strategy %q", s)
	}
}

// Columns is an event's horizontal slot within its day column.
type Columns struct {
	Index int `json:"column"`
	Count int `json:"columns"`
}

// Width is the slot width as a percentage of the day track.
func (c Columns) Width() float64 {
	if c.Count <= 0 {
		return 100
	}
	return 100 / float64(c.Count)
}

// Left is the slot's left edge as a percentage of the day track.
func (c Columns) Left() float64 {
	return float64(c.Index) * c.Width()
}

// overlaps is strict half-open intersection: touching endpoints do not
// count.
func overlaps(a, b model.Event) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

func byStartThenID(a, b model.Event) int {
	if c := a.Start.Compare(b.Start); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// ResolveColumns places ev among the day's events it directly overlaps.
// The group is ev plus every other event (by ID) intersecting ev's span,
// ordered by start then ID; ev's position in it is the column index and
// the group size is the column count.
func ResolveColumns(ev model.Event, dayEvents []model.Event) Columns {
	group := []model.Event{ev}
	for _, other := range dayEvents {
		if other.ID == ev.ID {
			continue
		}
		if overlaps(other, ev) {
			group = append(group, other)
		}
	}
	slices.SortFunc(group, byStartThenID)

	idx := slices.IndexFunc(group, func(e model.Event) bool { return e.ID == ev.ID })
	return Columns{Index: idx, Count: len(group)}
}

// PackColumns assigns columns to all dayEvents at once using greedy
// interval colouring. The result is aligned with dayEvents. Every event in
// a cluster of transitively overlapping events reports the cluster's
// column count.
func PackColumns(dayEvents []model.Event) []Columns {
	out := make([]Columns, len(dayEvents))
	if len(dayEvents) == 0 {
		return out
	}

	order := make([]int, len(dayEvents))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return byStartThenID(dayEvents[a], dayEvents[b])
	})

	var (
		colEnds []model.Event // last event placed in each column of the cluster
		cluster []int
		maxEnd  = dayEvents[order[0]].End
	)
	flush := func() {
		for _, i := range cluster {
			out[i].Count = len(colEnds)
		}
		colEnds = colEnds[:0]
		cluster = cluster[:0]
	}

	for _, i := range order {
		ev := dayEvents[i]
		if len(cluster) > 0 && !ev.Start.Before(maxEnd) {
			flush()
		}

		col := -1
		for c, last := range colEnds {
			if !overlaps(last, ev) {
				col = c
				break
			}
		}
		if col == -1 {
			col = len(colEnds)
			colEnds = append(colEnds, ev)
		} else {
			colEnds[col] = ev
		}
		out[i].Index = col
		cluster = append(cluster, i)

		if len(cluster) == 1 || ev.End.After(maxEnd) {
			maxEnd = ev.End
		}
	}
	flush()

	return out
}
