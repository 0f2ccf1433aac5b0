// Package store holds the single authoritative event collection of a
// session together with its drag state. Layout code only ever sees copies
// handed out by List.
package store

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"leaderflow/internal/layout"
	appLog "leaderflow/internal/log"
	"leaderflow/internal/model"
)

var (
	ErrNotFound     = errors.New("store: event not found")
	ErrInvalidEvent = errors.New("store: invalid event")
	ErrDuplicateID  = errors.New("store: duplicate event id")
	ErrNoDrag       = errors.New("store: no matching drag in progress")
)

// Store is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	events map[string]model.Event
	drag   layout.DragSession
}

func New() *Store {
	return &Store{events: make(map[string]model.Event)}
}

// Seed loads the demo agenda for now's day: a morning briefing, a partner
// visit and a block of focused review work.
func (s *Store) Seed(now time.Time) {
	day := func(h, m int) time.Time {
		y, mo, d := now.Date()
		return time.Date(y, mo, d, h, m, 0, 0, now.Location())
	}
	seed := []model.Event{
		{ID: "1", Title: "Weekly briefing", Start: day(8, 0), End: day(9, 30), Type: model.TypeMeeting, Location: "Meeting room A"},
		{ID: "2", Title: "Partner visit", Start: day(14, 0), End: day(15, 30), Type: model.TypeEvent, Location: "VIP lounge"},
		{ID: "3", Title: "Review tender documents", Start: day(16, 0), End: day(17, 30), Type: model.TypeDeepWork},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range seed {
		s.events[ev.ID] = ev
	}
	appLog.Info("store seeded", "count", len(seed))
}

// List returns a copy of every event ordered by start, then ID.
func (s *Store) List() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked()
}

func (s *Store) listLocked() []model.Event {
	out := make([]model.Event, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev)
	}
	slices.SortFunc(out, func(a, b model.Event) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (s *Store) Get(id string) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return model.Event{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return ev, nil
}

// Create inserts a manually entered event, generating an ID when none is
// given.
func (s *Store) Create(ev model.Event) (model.Event, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ev.Normalize()
	if err := ev.Validate(); err != nil {
		return model.Event{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[ev.ID]; exists {
		return model.Event{}, fmt.Errorf("%w: %s", ErrDuplicateID, ev.ID)
	}
	s.events[ev.ID] = ev
	return ev, nil
}

// Apply replaces the stored event that has ev's ID.
func (s *Store) Apply(ev model.Event) error {
	ev.Normalize()
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(ev)
}

func (s *Store) applyLocked(ev model.Event) error {
	if _, ok := s.events[ev.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, ev.ID)
	}
	s.events[ev.ID] = ev
	return nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.events, id)
	return nil
}

// ReplaceAll swaps the whole collection for events. Every event is
// validated first; on any failure the store is left untouched.
func (s *Store) ReplaceAll(events []model.Event) error {
	next, err := buildSet(events, "")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = next
	s.drag.Cancel()
	return nil
}

// ReplaceSource drops every event previously produced by sourceID and
// inserts events in their place, all in one step. Manually entered events
// and other sources are not touched.
func (s *Store) ReplaceSource(sourceID string, events []model.Event) error {
	if sourceID == "" {
		return fmt.Errorf("%w: empty source id", ErrInvalidEvent)
	}
	incoming, err := buildSet(events, sourceID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range incoming {
		if cur, ok := s.events[id]; ok && cur.SourceID != sourceID {
			return fmt.Errorf("%w: %s already owned by %q", ErrDuplicateID, id, cur.SourceID)
		}
	}

	removed := 0
	for id, ev := range s.events {
		if ev.SourceID == sourceID {
			delete(s.events, id)
			removed++
		}
	}
	for id, ev := range incoming {
		s.events[id] = ev
	}
	appLog.Debug("store source replaced", "source", sourceID, "removed", removed, "added", len(incoming))
	return nil
}

// buildSet validates events into an ID-keyed set. A non-empty sourceID is
// stamped onto every event.
func buildSet(events []model.Event, sourceID string) (map[string]model.Event, error) {
	out := make(map[string]model.Event, len(events))
	for i, ev := range events {
		if sourceID != "" {
			ev.SourceID = sourceID
		}
		ev.Normalize()
		if err := ev.Validate(); err != nil {
			return nil, fmt.Errorf("%w: index %d: %w", ErrInvalidEvent, i, err)
		}
		if _, dup := out[ev.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, ev.ID)
		}
		out[ev.ID] = ev
	}
	return out, nil
}
