package store

import (
	"errors"
	"testing"
	"time"

	"leaderflow/internal/layout"
	"leaderflow/internal/model"
)

var day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func mk(id string, h int) model.Event {
	return model.Event{
		ID:    id,
		Title: id,
		Start: day.Add(time.Duration(h) * time.Hour),
		End:   day.Add(time.Duration(h+1) * time.Hour),
		Type:  model.TypeMeeting,
	}
}

func TestStore_Seed(t *testing.T) {
	s := New()
	s.Seed(day.Add(13 * time.Hour))

	events := s.List()
	if len(events) != 3 {
		t.Fatalf("List() got %d events, want 3", len(events))
	}
	if events[0].ID != "1" || events[0].Start.Hour() != 8 || events[0].End.Minute() != 30 {
		t.Errorf("first seed event = %+v", events[0])
	}
	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			t.Errorf("seed event %s invalid: %v", ev.ID, err)
		}
	}
}

func TestStore_CRUD(t *testing.T) {
	s := New()

	created, err := s.Create(model.Event{Title: "Call", Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour)})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" || created.Type != model.TypeMeeting {
		t.Errorf("Create() = %+v, want generated id and default type", created)
	}

	if _, err := s.Create(created); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Create(duplicate) error = %v, want ErrDuplicateID", err)
	}
	if _, err := s.Create(model.Event{ID: "bad", Type: "PARTY"}); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("Create(invalid) error = %v, want ErrInvalidEvent", err)
	}

	created.Title = "Call (moved)"
	if err := s.Apply(created); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	got, err := s.Get(created.ID)
	if err != nil || got.Title != "Call (moved)" {
		t.Errorf("Get() = %+v, %v", got, err)
	}

	if err := s.Apply(mk("ghost", 9)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Apply(unknown) error = %v, want ErrNotFound", err)
	}

	if err := s.Delete(created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestStore_ListIsACopy(t *testing.T) {
	s := New()
	s.Create(mk("a", 9))

	events := s.List()
	events[0].Title = "changed"

	got, _ := s.Get("a")
	if got.Title != "a" {
		t.Errorf("List() leaked internal state: %q", got.Title)
	}
}

func TestStore_ReplaceAllIsAtomic(t *testing.T) {
	s := New()
	s.Create(mk("keep", 9))

	err := s.ReplaceAll([]model.Event{mk("x", 10), {ID: "", Title: "no id"}})
	if !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("ReplaceAll() error = %v, want ErrInvalidEvent", err)
	}
	if events := s.List(); len(events) != 1 || events[0].ID != "keep" {
		t.Errorf("store changed after failed import: %+v", events)
	}

	if err := s.ReplaceAll([]model.Event{mk("x", 10), mk("x", 11)}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("ReplaceAll(dup) error = %v, want ErrDuplicateID", err)
	}

	if err := s.ReplaceAll([]model.Event{mk("x", 10), mk("y", 11)}); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}
	if events := s.List(); len(events) != 2 || events[0].ID != "x" {
		t.Errorf("List() after import = %+v", events)
	}
}

func TestStore_ReplaceSource(t *testing.T) {
	s := New()
	s.Create(mk("manual", 8))

	if err := s.ReplaceSource("work", []model.Event{mk("w1", 9), mk("w2", 10)}); err != nil {
		t.Fatalf("ReplaceSource() error = %v", err)
	}
	if err := s.ReplaceSource("home", []model.Event{mk("h1", 18)}); err != nil {
		t.Fatalf("ReplaceSource() error = %v", err)
	}
	if err := s.ReplaceSource("work", []model.Event{mk("w3", 11)}); err != nil {
		t.Fatalf("ReplaceSource() error = %v", err)
	}

	var ids []string
	for _, ev := range s.List() {
		ids = append(ids, ev.ID)
	}
	want := []string{"manual", "w3", "h1"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids = %v, want %v", ids, want)
			break
		}
	}

	got, _ := s.Get("w3")
	if got.SourceID != "work" {
		t.Errorf("SourceID = %q, want work", got.SourceID)
	}

	if err := s.ReplaceSource("home", []model.Event{mk("manual", 8)}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("ReplaceSource(stealing id) error = %v, want ErrDuplicateID", err)
	}
	if _, err := s.Get("h1"); err != nil {
		t.Errorf("failed ReplaceSource removed events: %v", err)
	}
}

func TestStore_DragAndDrop(t *testing.T) {
	s := New()
	s.Create(mk("a", 9))
	b := layout.DefaultBounds()

	if _, err := s.DropWeek(day, 100, 960, b); !errors.Is(err, ErrNoDrag) {
		t.Errorf("DropWeek without drag error = %v, want ErrNoDrag", err)
	}
	if err := s.BeginDrag("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("BeginDrag(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.BeginDrag("a"); err != nil {
		t.Fatalf("BeginDrag() error = %v", err)
	}
	if id, ok := s.Dragging(); !ok || id != "a" {
		t.Errorf("Dragging() = %q, %v", id, ok)
	}

	tue := day.AddDate(0, 0, 1)
	moved, err := s.DropWeek(tue, 3.5*80, 960, b)
	if err != nil {
		t.Fatalf("DropWeek() error = %v", err)
	}
	want := time.Date(2025, 3, 11, 10, 30, 0, 0, time.UTC)
	if !moved.Start.Equal(want) || moved.End.Sub(moved.Start) != time.Hour {
		t.Errorf("DropWeek() = %v-%v, want start %v", moved.Start, moved.End, want)
	}
	if got, _ := s.Get("a"); !got.Start.Equal(want) {
		t.Errorf("stored start = %v, want %v", got.Start, want)
	}
	if _, ok := s.Dragging(); ok {
		t.Error("drag should be cleared after drop")
	}

	s.BeginDrag("a")
	moved, err = s.DropMonth(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("DropMonth() error = %v", err)
	}
	if !moved.Start.Equal(time.Date(2025, 4, 1, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("DropMonth() start = %v", moved.Start)
	}

	s.BeginDrag("a")
	s.CancelDrag()
	if _, err := s.DropMonth(day); !errors.Is(err, ErrNoDrag) {
		t.Errorf("DropMonth after cancel error = %v, want ErrNoDrag", err)
	}
}
