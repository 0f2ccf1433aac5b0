package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// EventType classifies an event for display colouring. Layout math never
// looks at it.
type EventType string

const (
	TypeMeeting      EventType = "MEETING"
	TypeBusinessTrip EventType = "BUSINESS_TRIP"
	TypeEvent        EventType = "EVENT"
	TypePersonal     EventType = "PERSONAL"
	TypeDeepWork     EventType = "DEEP_WORK"
)

// EventTypes lists every known EventType in display order.
var EventTypes = []EventType{TypeMeeting, TypeBusinessTrip, TypeEvent, TypePersonal, TypeDeepWork}

var (
	ErrMissingID    = errors.New("event: missing id")
	ErrMissingTimes = errors.New("event: missing start or end")
	ErrUnknownType  = errors.New("event: unknown type")
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	for _, k := range EventTypes {
		if t == k {
			return true
		}
	}
	return false
}

// ParseEventType maps a free-form string onto an EventType. Empty input
// yields TypeMeeting, matching how manually entered events are defaulted.
func ParseEventType(s string) (EventType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeMeeting, nil
	}
	t := EventType(strings.ToUpper(strings.ReplaceAll(s, "-", "_")))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	return t, nil
}

// Event is a single schedulable calendar item.
//
// The JSON shape is the backup/restore contract: start and end travel as
// RFC 3339 strings (time.Time's default encoding).
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Type        EventType `json:"type"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`

	// SourceID names the ICS subscription that produced the event;
	// empty for manually entered ones.
	SourceID string `json:"source_id,omitempty"`
}

// Duration returns End - Start. It may be zero or negative for malformed
// input.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Normalize fills defaults that the entry points leave blank.
func (e *Event) Normalize() {
	if e.Type == "" {
		e.Type = TypeMeeting
	}
	e.Title = strings.TrimSpace(e.Title)
}

// Validate checks the fields the rest of the program relies on. It is meant
// to be called once at the boundary (entry, import), not on every layout
// pass. End before Start is accepted; layout floors the rendered height.
func (e Event) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrMissingID
	}
	if e.Start.IsZero() || e.End.IsZero() {
		return fmt.Errorf("%w: id=%s", ErrMissingTimes, e.ID)
	}
	if !e.Type.Valid() {
		return fmt.Errorf("%w: %q (id=%s)", ErrUnknownType, e.Type, e.ID)
	}
	return nil
}
