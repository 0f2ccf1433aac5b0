package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "leaderflow/internal/log"
	"leaderflow/internal/model"
)

const defaultMaxPerEntry = 5000

// Window bounds an expansion and names the zone results are shown in.
type Window struct {
	Start, End time.Time
	// Location is applied to every produced event; nil means time.Local.
	Location *time.Location
	// MaxPerEntry caps occurrences of one recurring entry; 0 means 5000.
	MaxPerEntry int
}

// WindowAround returns [now-backfill, now+horizon] days in loc.
func WindowAround(now time.Time, backfillDays, horizonDays int, loc *time.Location) Window {
	now = now.In(loc)
	return Window{
		Start:    now.AddDate(0, 0, -backfillDays),
		End:      now.AddDate(0, 0, horizonDays),
		Location: loc,
	}
}

// Expansion is the set of events produced for one feed.
type Expansion struct {
	Events []model.Event
	// Truncated lists UIDs whose occurrences hit the cap.
	Truncated []string
}

// Expand turns parsed entries into concrete events inside w. Recurring
// entries are expanded with their RRULE minus EXDATEs; entries carrying a
// RECURRENCE-ID replace the matching instance. Every event gets typ.
func Expand(entries []Entry, typ model.EventType, w Window) (Expansion, error) {
	var out Expansion
	if w.End.Before(w.Start) {
		return out, errors.New("ics: window end is before start")
	}
	if w.Location == nil {
		w.Location = time.Local
	}
	if w.MaxPerEntry <= 0 {
		w.MaxPerEntry = defaultMaxPerEntry
	}

	var (
		bases     []Entry
		overrides = make(map[string][]Entry)
	)
	for _, e := range entries {
		if e.RecurrenceID != nil {
			overrides[e.UID] = append(overrides[e.UID], e)
			continue
		}
		bases = append(bases, e)
	}

	for _, base := range bases {
		if base.RRule == "" {
			if overlapsWindow(base.Start, base.End, w) {
				out.Events = append(out.Events, toEvent(base, base.UID, typ, w.Location))
			}
			continue
		}

		evs, capped := expandRecurring(base, overrides[base.UID], typ, w)
		out.Events = append(out.Events, evs...)
		if capped {
			out.Truncated = append(out.Truncated, base.UID)
			appLog.Warn("ics expansion capped", "uid", base.UID, "cap", w.MaxPerEntry)
		}
	}

	return out, nil
}

func expandRecurring(base Entry, ovs []Entry, typ model.EventType, w Window) ([]model.Event, bool) {
	r, err := rrule.StrToRRule(base.RRule)
	if err != nil {
		appLog.Error("ics rrule parse failed", err, "uid", base.UID, "rrule", base.RRule)
		return nil, false
	}
	r.DTStart(base.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range base.ExDates {
		set.ExDate(ex.In(base.Start.Location()))
	}

	loc := base.Start.Location()
	starts := set.Between(w.Start.In(loc), w.End.In(loc), true)
	capped := false
	if len(starts) > w.MaxPerEntry {
		starts = starts[:w.MaxPerEntry]
		capped = true
	}

	dur := base.End.Sub(base.Start)
	out := make([]model.Event, 0, len(starts))
	for _, s := range starts {
		inst := base
		inst.Start = s
		inst.End = s.Add(dur)
		if base.AllDay {
			inst.End = s.AddDate(0, 0, wholeDays(base.Start, base.End))
		}
		if o, ok := findOverride(ovs, s); ok {
			inst = o
		}
		id := base.UID + "@" + s.In(w.Location).Format(time.RFC3339)
		out = append(out, toEvent(inst, id, typ, w.Location))
	}
	return out, capped
}

func findOverride(ovs []Entry, instanceStart time.Time) (Entry, bool) {
	for _, o := range ovs {
		if o.RecurrenceID.Equal(instanceStart) {
			return o, true
		}
	}
	return Entry{}, false
}

func wholeDays(start, end time.Time) int {
	n := int(end.Sub(start).Round(24*time.Hour) / (24 * time.Hour))
	if n < 1 {
		return 1
	}
	return n
}

func toEvent(e Entry, id string, typ model.EventType, loc *time.Location) model.Event {
	start, end := e.Start.In(loc), e.End.In(loc)
	if e.AllDay {
		// DATE values are floating; pin them to local midnight in loc.
		sy, sm, sd := e.Start.Date()
		start = time.Date(sy, sm, sd, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 0, wholeDays(e.Start, e.End))
	}
	return model.Event{
		ID:          id,
		Title:       e.Summary,
		Start:       start,
		End:         end,
		Type:        typ,
		Location:    e.Location,
		Description: e.Description,
	}
}

// overlapsWindow treats both ranges as closed, so an event touching the
// window edge is still included.
func overlapsWindow(start, end time.Time, w Window) bool {
	return !end.Before(w.Start) && !w.End.Before(start)
}
