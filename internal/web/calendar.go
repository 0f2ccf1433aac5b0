package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"leaderflow/internal/layout"
)

// weekResponse is the JSON shape of /api/week.
type weekResponse struct {
	layout.Week
	Bounds       layout.Bounds   `json:"bounds"`
	Strategy     layout.Strategy `json:"strategy"`
	ColumnHeight float64         `json:"column_height"`
	Gutter       float64         `json:"gutter"`
	ScrollTop    float64         `json:"scroll_top"`
	// NowLine is set only when today is in the week and inside the
	// visible hours.
	NowLine  *float64 `json:"now_line,omitempty"`
	Dragging string   `json:"dragging,omitempty"`
}

// GET /api/week?date=YYYY-MM-DD
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	anchor, err := s.parseDay(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	b := s.cfg.Bounds()
	week := layout.WeekLayout(s.store.List(), anchor, b, s.cfg.Strategy())
	now := s.now().In(s.loc)

	resp := weekResponse{
		Week:         week,
		Bounds:       b,
		Strategy:     s.cfg.Strategy(),
		ColumnHeight: b.ColumnHeight(),
		Gutter:       layout.Gutter,
		ScrollTop:    layout.ScrollTarget(now, b),
	}
	if !now.Before(week.Start) && now.Before(layout.AddDays(week.Start, 7)) {
		if top, ok := layout.NowLine(now, b); ok {
			resp.NowLine = &top
		}
	}
	if id, ok := s.store.Dragging(); ok {
		resp.Dragging = id
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/month?date=YYYY-MM-DD
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	anchor, err := s.parseDay(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	writeJSON(w, http.StatusOK, layout.MonthLayout(s.store.List(), anchor, s.cfg.MonthVisibleEvents))
}

func (s *Server) handleBeginDrag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.BeginDrag(id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"dragging": id})
}

func (s *Server) handleCancelDrag(w http.ResponseWriter, _ *http.Request) {
	s.store.CancelDrag()
	w.WriteHeader(http.StatusNoContent)
}

type dropRequest struct {
	Day string `json:"day"`
	// Y is the pointer offset from the top of the day column; week drops
	// only.
	Y            float64 `json:"y"`
	ColumnHeight float64 `json:"column_height"`
}

func (s *Server) decodeDrop(w http.ResponseWriter, r *http.Request) (dropRequest, time.Time, bool) {
	var req dropRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, time.Time{}, false
	}
	if req.Day == "" {
		writeError(w, http.StatusBadRequest, "day is required")
		return req, time.Time{}, false
	}
	day, err := s.parseDay(req.Day)
	if err != nil {
		writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return req, time.Time{}, false
	}
	return req, day, true
}

// POST /api/drop/week {"day": "...", "y": 280, "column_height": 960}
func (s *Server) handleDropWeek(w http.ResponseWriter, r *http.Request) {
	req, day, ok := s.decodeDrop(w, r)
	if !ok {
		return
	}
	b := s.cfg.Bounds()
	height := req.ColumnHeight
	if height <= 0 {
		height = b.ColumnHeight()
	}
	ev, err := s.store.DropWeek(day, req.Y, height, b)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// POST /api/drop/month {"day": "..."}
func (s *Server) handleDropMonth(w http.ResponseWriter, r *http.Request) {
	_, day, ok := s.decodeDrop(w, r)
	if !ok {
		return
	}
	ev, err := s.store.DropMonth(day)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}
