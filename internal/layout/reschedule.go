package layout

import (
	"math"
	"time"

	"leaderflow/internal/model"
)

// SnapMinutes is the drag-drop granularity of the week grid.
const SnapMinutes = 15

// RescheduleWeek moves ev to the drop position inside targetDay's column.
// pointerY is measured from the top of the column and clamped to
// [0, columnHeight]; the resulting start is snapped to the nearest quarter
// hour after StartHour. Duration and every other field are preserved.
// No plausibility check is made on targetDay.
func RescheduleWeek(ev model.Event, targetDay time.Time, pointerY, columnHeight float64, b Bounds) model.Event {
	y := math.Max(0, math.Min(pointerY, columnHeight))
	minutes := y / b.unit() * 60
	snapped := int(math.Round(minutes/SnapMinutes)) * SnapMinutes

	yy, mm, dd := targetDay.Date()
	start := time.Date(yy, mm, dd, b.StartHour, snapped, 0, 0, targetDay.Location())

	return withStart(ev, start)
}

// RescheduleMonth moves ev to targetDay keeping its hour and minute.
// Seconds are dropped, matching a drop onto a midnight-based day cell.
func RescheduleMonth(ev model.Event, targetDay time.Time) model.Event {
	yy, mm, dd := targetDay.Date()
	start := time.Date(yy, mm, dd, ev.Start.Hour(), ev.Start.Minute(), 0, 0, targetDay.Location())

	return withStart(ev, start)
}

func withStart(ev model.Event, start time.Time) model.Event {
	dur := ev.End.Sub(ev.Start)
	ev.Start = start
	ev.End = start.Add(dur)
	return ev
}
