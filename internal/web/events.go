package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"leaderflow/internal/model"
)

const maxImportBytes = 8 << 20

// eventRequest is the client-side event shape. Type is matched
// case-insensitively and defaults to MEETING.
type eventRequest struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Type        string    `json:"type"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	// SourceID is honoured by import only, so a restored backup keeps feed
	// events owned by their feed.
	SourceID string `json:"source_id"`
}

// toEvent rehydrates a request into a display-zone event.
func (req eventRequest) toEvent(loc *time.Location) (model.Event, error) {
	typ, err := model.ParseEventType(req.Type)
	if err != nil {
		return model.Event{}, err
	}
	return model.Event{
		ID:          req.ID,
		Title:       req.Title,
		Start:       req.Start.In(loc),
		End:         req.End.In(loc),
		Type:        typ,
		Location:    req.Location,
		Description: req.Description,
		SourceID:    req.SourceID,
	}, nil
}

type eventsResponse struct {
	Events []model.Event `json:"events"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, eventsResponse{Events: s.store.List()})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ev, err := req.toEvent(s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ev.SourceID = ""
	created, err := s.store.Create(ev)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	if req.ID != "" && req.ID != id {
		writeError(w, http.StatusBadRequest, "id in body does not match path")
		return
	}
	req.ID = id

	ev, err := req.toEvent(s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if cur, err := s.store.Get(id); err == nil {
		ev.SourceID = cur.SourceID
	}
	if err := s.store.Apply(ev); err != nil {
		writeStoreError(w, err)
		return
	}
	updated, err := s.store.Get(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImportEvents replaces the whole collection. The body is either a
// bare array of events or a backup object with an "events" array; other
// backup sections are ignored. Any decode or validation failure leaves
// the store as it was.
func (s *Server) handleImportEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	reqs, err := decodeImport(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events := make([]model.Event, 0, len(reqs))
	for i, req := range reqs {
		ev, err := req.toEvent(s.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("events[%d]: %v", i, err))
			return
		}
		events = append(events, ev)
	}

	if err := s.store.ReplaceAll(events); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": len(events)})
}

func decodeImport(body []byte) ([]eventRequest, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty import body")
	}

	if trimmed[0] == '[' {
		var reqs []eventRequest
		if err := json.Unmarshal(trimmed, &reqs); err != nil {
			return nil, fmt.Errorf("invalid events array: %w", err)
		}
		return reqs, nil
	}

	var backup struct {
		Events *[]eventRequest `json:"events"`
	}
	if err := json.Unmarshal(trimmed, &backup); err != nil {
		return nil, fmt.Errorf("invalid backup: %w", err)
	}
	if backup.Events == nil {
		return nil, fmt.Errorf("backup has no events array")
	}
	return *backup.Events, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxImportBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
