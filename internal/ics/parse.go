// Package ics turns subscribed iCalendar feeds into calendar events:
// fetching with HTTP caching, parsing VEVENTs, and expanding recurrences
// into concrete occurrences.
package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "leaderflow/internal/log"
)

// Entry is one VEVENT as read from a feed, before recurrence expansion.
type Entry struct {
	UID string

	Summary     string
	Description string
	Location    string

	Start  time.Time
	End    time.Time
	AllDay bool

	RRule   string
	ExDates []time.Time

	// RecurrenceID is set when this VEVENT overrides one instance of a
	// recurring series.
	RecurrenceID *time.Time
}

var ErrEmptyBody = errors.New("ics: empty body")

// Parse reads every VEVENT in body. Malformed VEVENTs are logged and
// skipped; only an unreadable calendar fails the whole feed.
func Parse(feed Feed, body []byte) ([]Entry, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "feed", feed.ID, "url", redactURL(feed.URL))
		return nil, err
	}

	var entries []Entry
	for _, ve := range cal.Events() {
		e, err := parseVEvent(ve)
		if err != nil {
			appLog.Warn("ics vevent skipped", "feed", feed.ID, "reason", err.Error())
			continue
		}
		entries = append(entries, e)
	}

	appLog.Info("ics parse completed", "feed", feed.ID, "entries", len(entries))
	return entries, nil
}

func parseVEvent(ve *ical.VEvent) (Entry, error) {
	var e Entry

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || strings.TrimSpace(uid.Value) == "" {
		return e, errors.New("missing UID")
	}
	e.UID = strings.TrimSpace(uid.Value)

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		e.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		e.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		e.Location = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return e, errors.New("missing or unreadable DTSTART")
	}
	e.Start = start
	if dt := ve.GetProperty(ical.ComponentPropertyDtStart); dt != nil {
		e.AllDay = isDateValue(dt)
	}

	end, err := ve.GetEndAt()
	switch {
	case err == nil:
		e.End = end
	case e.AllDay:
		e.End = e.Start.AddDate(0, 0, 1)
	default:
		e.End = e.Start
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		e.RRule = strings.TrimSpace(p.Value)
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		loc := propLocation(p, e.Start.Location())
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, loc); err == nil {
				e.ExDates = append(e.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); p != nil {
		if t, err := parseICSTime(p.Value, propLocation(p, e.Start.Location())); err == nil {
			e.RecurrenceID = &t
		}
	}

	return e, nil
}

// isDateValue reports whether a DTSTART is a whole-day DATE value.
func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// propLocation resolves a property's TZID parameter, or returns def.
func propLocation(p *ical.IANAProperty, def *time.Location) *time.Location {
	if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
		if loc, err := time.LoadLocation(tzs[0]); err == nil {
			return loc
		}
	}
	if def == nil {
		return time.Local
	}
	return def
}

// parseICSTime reads the basic DATE and DATE-TIME forms used by EXDATE and
// RECURRENCE-ID. Floating values are placed in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
