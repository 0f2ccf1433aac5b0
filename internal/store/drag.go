package store

import (
	"fmt"
	"time"

	"leaderflow/internal/layout"
	appLog "leaderflow/internal/log"
	"leaderflow/internal/model"
)

// BeginDrag starts dragging id. Any earlier drag is forgotten.
func (s *Store) BeginDrag(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.drag.Begin(id)
	appLog.Debug("drag started", "id", id)
	return nil
}

// CancelDrag ends the current drag without moving anything.
func (s *Store) CancelDrag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.Cancel()
}

// Dragging returns the ID being dragged, if any.
func (s *Store) Dragging() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drag.Active()
}

// DropWeek ends the drag over targetDay's week column at pointerY and
// stores the moved event.
func (s *Store) DropWeek(targetDay time.Time, pointerY, columnHeight float64, b layout.Bounds) (model.Event, error) {
	return s.drop(func(events []model.Event) (model.Event, bool) {
		return s.drag.DropWeek(events, targetDay, pointerY, columnHeight, b)
	})
}

// DropMonth ends the drag over targetDay's month cell and stores the moved
// event.
func (s *Store) DropMonth(targetDay time.Time) (model.Event, error) {
	return s.drop(func(events []model.Event) (model.Event, bool) {
		return s.drag.DropMonth(events, targetDay)
	})
}

func (s *Store) drop(fn func([]model.Event) (model.Event, bool)) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := fn(s.listLocked())
	if !ok {
		return model.Event{}, ErrNoDrag
	}
	if err := s.applyLocked(ev); err != nil {
		return model.Event{}, err
	}
	appLog.Info("event rescheduled", "id", ev.ID, "start", ev.Start.Format(time.RFC3339), "end", ev.End.Format(time.RFC3339))
	return ev, nil
}
