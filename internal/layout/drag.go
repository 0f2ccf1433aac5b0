package layout

import (
	"time"

	"leaderflow/internal/model"
)

// DragSession tracks the single event being dragged. The zero value is an
// idle session. It is owned by whoever owns the event collection; the
// reschedule functions never read it.
type DragSession struct {
	eventID string
	active  bool
}

// Begin starts dragging eventID, replacing any previous drag.
func (s *DragSession) Begin(eventID string) {
	s.eventID = eventID
	s.active = true
}

// Cancel clears the session without moving anything.
func (s *DragSession) Cancel() {
	*s = DragSession{}
}

// Active returns the dragged event's ID, if any.
func (s *DragSession) Active() (string, bool) {
	return s.eventID, s.active
}

// DropWeek ends the drag over a week-grid column and returns the moved
// event. ok is false when nothing is being dragged or the dragged ID is
// not in events. The session is cleared either way, so a drop of an
// event that has since been deleted also ends the drag.
func (s *DragSession) DropWeek(events []model.Event, targetDay time.Time, pointerY, columnHeight float64, b Bounds) (model.Event, bool) {
	ev, ok := s.take(events)
	if !ok {
		return model.Event{}, false
	}
	return RescheduleWeek(ev, targetDay, pointerY, columnHeight, b), true
}

// DropMonth ends the drag over a month-grid day cell. Like DropWeek it
// clears the session even when the dragged event is gone.
func (s *DragSession) DropMonth(events []model.Event, targetDay time.Time) (model.Event, bool) {
	ev, ok := s.take(events)
	if !ok {
		return model.Event{}, false
	}
	return RescheduleMonth(ev, targetDay), true
}

func (s *DragSession) take(events []model.Event) (model.Event, bool) {
	id, active := s.Active()
	s.Cancel()
	if !active {
		return model.Event{}, false
	}
	for _, ev := range events {
		if ev.ID == id {
			return ev, true
		}
	}
	return model.Event{}, false
}
