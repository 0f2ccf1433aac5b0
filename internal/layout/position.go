package layout

import (
	"math"
	"time"

	"leaderflow/internal/model"
)

// Default week grid geometry: a 07:00-18:00 working day at 80 units per
// hour, with events never drawn shorter than 28 units.
const (
	DefaultStartHour  = 7
	DefaultEndHour    = 18
	DefaultUnitHeight = 80
	DefaultMinHeight  = 28

	// Gutter is the horizontal inset applied to each side of a rendered
	// event box. It is display-only and never changes Column/Columns.
	Gutter = 2

	// fallbackScrollHour is where the grid scrolls to when now is outside
	// the visible window.
	fallbackScrollHour = 8
	scrollBreathing    = 40
)

// Bounds is the visible vertical range of the week grid and its scale.
type Bounds struct {
	StartHour  int     `json:"start_hour"`
	EndHour    int     `json:"end_hour"`
	UnitHeight float64 `json:"unit_height"`
	MinHeight  float64 `json:"min_height"`
}

// DefaultBounds returns the standard 07:00-18:00 grid.
func DefaultBounds() Bounds {
	return Bounds{
		StartHour:  DefaultStartHour,
		EndHour:    DefaultEndHour,
		UnitHeight: DefaultUnitHeight,
		MinHeight:  DefaultMinHeight,
	}
}

// unit returns a usable scale; a non-positive UnitHeight would turn every
// division below into Inf/NaN.
func (b Bounds) unit() float64 {
	if b.UnitHeight <= 0 {
		return DefaultUnitHeight
	}
	return b.UnitHeight
}

// Hours returns StartHour..EndHour inclusive, one row label each.
func (b Bounds) Hours() []int {
	if b.EndHour < b.StartHour {
		return nil
	}
	hours := make([]int, 0, b.EndHour-b.StartHour+1)
	for h := b.StartHour; h <= b.EndHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// ColumnHeight is the full height of a day column.
func (b Bounds) ColumnHeight() float64 {
	return float64(len(b.Hours())) * b.unit()
}

// Placement is the vertical part of an event's rectangle.
type Placement struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Position maps an event onto the time grid. Top is not clamped: an event
// starting before StartHour gets a negative offset and one after EndHour
// lands below the column. Height never drops under MinHeight, even for
// zero or negative durations.
func Position(ev model.Event, b Bounds) Placement {
	unit := b.unit()

	minutesFromTop := ev.Start.Hour()*60 + ev.Start.Minute() - b.StartHour*60
	durationMinutes := float64(ev.End.Sub(ev.Start)) / float64(time.Minute)

	return Placement{
		Top:    float64(minutesFromTop) / 60 * unit,
		Height: math.Max(durationMinutes/60*unit, b.MinHeight),
	}
}

// NowLine returns the offset of the current-time indicator. ok is false
// when now's hour is outside [StartHour, EndHour].
func NowLine(now time.Time, b Bounds) (top float64, ok bool) {
	h := now.Hour()
	if h < b.StartHour || h > b.EndHour {
		return 0, false
	}
	minutes := (h-b.StartHour)*60 + now.Minute()
	return float64(minutes) / 60 * b.unit(), true
}

// ScrollTarget is the initial scroll offset of the week grid: the current
// hour when visible, otherwise 08:00, with a little headroom above.
func ScrollTarget(now time.Time, b Bounds) float64 {
	target := fallbackScrollHour
	if h := now.Hour(); h >= b.StartHour && h <= b.EndHour {
		target = h
	}
	return float64(target-b.StartHour)*b.unit() - scrollBreathing
}
