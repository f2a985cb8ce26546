package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"gridcal/internal/calendar"
	"gridcal/internal/config"
	"gridcal/internal/ics"
	appLog "gridcal/internal/log"
	"gridcal/internal/model"
)

// Persister stores the selection after every change.
type Persister interface {
	SaveSelection(ctx context.Context, dates []model.CalendarDate) error
}

// Options configures a Server.
type Options struct {
	// BasicAuth, when set with a non-empty username and password, protects
	// every endpoint except /health.
	BasicAuth *config.BasicAuthConfig
	// Persister, when set, receives the selection after each change.
	Persister Persister
}

// Server exposes the calendar engine over a JSON API. The engine is driven
// from a single control thread, so every request holds mu while it touches
// the engine.
type Server struct {
	mu     sync.Mutex
	engine *calendar.Engine

	opts Options
	mux  *http.ServeMux
}

// NewServer constructs a new Server around engine.
func NewServer(engine *calendar.Engine, opts Options) *Server {
	s := &Server{
		engine: engine,
		opts:   opts,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		return s.basicAuthMiddleware(h)
	}
	return h
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+addr, "basic_auth", s.basicAuthEnabled())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		appLog.Info("shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

// ApplyBlocked replaces the blocked days, e.g. after a feed refresh, and
// persists the selection if blocked days were deselected.
func (s *Server) ApplyBlocked(ctx context.Context, days []model.CalendarDate) calendar.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := s.engine.SetBlocked(days)
	s.persist(ctx, ch)
	return ch
}

func (s *Server) basicAuthEnabled() bool {
	a := s.opts.BasicAuth
	return a != nil && a.Username != "" && a.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.opts.BasicAuth.Username
	password := s.opts.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="gridcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /api/sections/{section}", s.handleSection)
	s.mux.HandleFunc("GET /api/selection", s.handleSelection)
	s.mux.HandleFunc("GET /api/selection.ics", s.handleSelectionICS)

	s.mux.HandleFunc("POST /api/select", s.mutate(func(e *calendar.Engine, req targetRequest) (calendar.Change, error) {
		if req.Cell != nil {
			return e.SelectCell(*req.Cell)
		}
		return e.Select(*req.Date)
	}))
	s.mux.HandleFunc("POST /api/deselect", s.mutate(func(e *calendar.Engine, req targetRequest) (calendar.Change, error) {
		if req.Cell != nil {
			return e.DeselectCell(*req.Cell)
		}
		return e.Deselect(*req.Date)
	}))
	s.mux.HandleFunc("POST /api/toggle", s.mutate(func(e *calendar.Engine, req targetRequest) (calendar.Change, error) {
		if req.Cell != nil {
			return e.ToggleCell(*req.Cell)
		}
		return e.Toggle(*req.Date)
	}))
	s.mux.HandleFunc("POST /api/range/begin", s.mutate(func(e *calendar.Engine, req targetRequest) (calendar.Change, error) {
		d, err := req.selectableDate(e)
		if err != nil {
			return calendar.Change{}, err
		}
		return e.BeginRange(d)
	}))
	s.mux.HandleFunc("POST /api/range/extend", s.mutate(func(e *calendar.Engine, req targetRequest) (calendar.Change, error) {
		d, err := req.date(e)
		if err != nil {
			return calendar.Change{}, err
		}
		return e.ExtendRange(d)
	}))
	s.mux.HandleFunc("POST /api/range/end", s.handleRangeEnd)
	s.mux.HandleFunc("POST /api/range/cancel", s.handleRangeCancel)
	s.mux.HandleFunc("POST /api/clear", s.handleClear)
	s.mux.HandleFunc("POST /api/rule", s.handleRule)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type sectionDTO struct {
	Section int                   `json:"section"`
	Range   model.SectionRange    `json:"range"`
	Items   int                   `json:"items"`
	Header  calendar.HeaderSource `json:"header"`
}

type calendarResponse struct {
	Start          model.CalendarDate `json:"start"`
	End            model.CalendarDate `json:"end"`
	FirstDayOfWeek string             `json:"first_day_of_week"`
	OutOfMonth     string             `json:"out_of_month"`
	OutDates       string             `json:"out_dates"`
	Ownership      string             `json:"ownership"`
	SelectionMode  string             `json:"selection_mode"`
	Today          model.CalendarDate `json:"today"`
	Sections       []sectionDTO       `json:"sections"`
}

// handleCalendar returns the layout: parameters plus one entry per section.
func (s *Server) handleCalendar(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.engine.Index()
	p := idx.Params()
	resp := calendarResponse{
		Start:          p.Start,
		End:            p.End,
		FirstDayOfWeek: p.FirstDayOfWeek.String(),
		OutOfMonth:     p.OutOfMonth.String(),
		OutDates:       p.OutDates.String(),
		Ownership:      p.Ownership.String(),
		SelectionMode:  s.engine.Mode().String(),
		Today:          s.engine.Today(),
		Sections:       make([]sectionDTO, 0, idx.SectionCount()),
	}
	for i := 0; i < idx.SectionCount(); i++ {
		h, err := s.engine.Header(i)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		n, _ := idx.ItemCount(i)
		resp.Sections = append(resp.Sections, sectionDTO{Section: i, Range: h.Range, Items: n, Header: h.Source})
	}
	writeJSON(w, http.StatusOK, resp)
}

type sectionResponse struct {
	sectionDTO
	Cells []model.CellState `json:"cells"`
}

// handleSection returns every cell of one section.
func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	section, err := strconv.Atoi(r.PathValue("section"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "section must be an integer")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.engine.Header(section)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	n, _ := s.engine.ItemCount(section)
	resp := sectionResponse{
		sectionDTO: sectionDTO{Section: section, Range: h.Range, Items: n, Header: h.Source},
		Cells:      make([]model.CellState, 0, n),
	}
	for item := 0; item < n; item++ {
		st, err := s.engine.State(model.Coordinate{Section: section, Item: item})
		if err != nil {
			writeEngineError(w, err)
			return
		}
		resp.Cells = append(resp.Cells, st)
	}
	writeJSON(w, http.StatusOK, resp)
}

type selectionResponse struct {
	Selected   []model.CalendarDate `json:"selected"`
	Blocked    []model.CalendarDate `json:"blocked"`
	RangeState string               `json:"range_state"`
	Anchor     *model.CalendarDate  `json:"anchor,omitempty"`
}

func (s *Server) handleSelection(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.selectionLocked())
}

func (s *Server) selectionLocked() selectionResponse {
	resp := selectionResponse{
		Selected:   nonNil(s.engine.Selected()),
		Blocked:    nonNil(s.engine.Blocked()),
		RangeState: s.engine.RangeState().String(),
	}
	if anchor, ok := s.engine.RangeAnchor(); ok {
		resp.Anchor = &anchor
	}
	return resp
}

// handleSelectionICS exports the selection as an iCalendar file.
func (s *Server) handleSelectionICS(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	dates := s.engine.Selected()
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := ics.Export(&buf, dates, ics.ExportOptions{}); err != nil {
		appLog.Error("selection export failed", err)
		writeError(w, http.StatusInternalServerError, "failed to export selection")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="selection.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// targetRequest names a day either directly or through the cell showing it.
// Exactly one of Date and Cell is set.
type targetRequest struct {
	Date *model.CalendarDate `json:"date,omitempty"`
	Cell *model.Coordinate   `json:"cell,omitempty"`
}

func (req targetRequest) validate() error {
	if (req.Date == nil) == (req.Cell == nil) {
		return errors.New(`exactly one of "date" and "cell" is required`)
	}
	return nil
}

// date resolves the request to a day inside the configured range.
func (req targetRequest) date(e *calendar.Engine) (model.CalendarDate, error) {
	if req.Date != nil {
		return *req.Date, nil
	}
	return e.Index().Date(*req.Cell)
}

// selectableDate is date with the cell's selectability enforced.
func (req targetRequest) selectableDate(e *calendar.Engine) (model.CalendarDate, error) {
	if req.Date != nil {
		return *req.Date, nil
	}
	st, err := e.State(*req.Cell)
	if err != nil {
		return model.CalendarDate{}, err
	}
	if !st.IsSelectable {
		return model.CalendarDate{}, calendar.ErrNotSelectable
	}
	return st.Date, nil
}

type mutation func(*calendar.Engine, targetRequest) (calendar.Change, error)

// mutate decodes a targetRequest, applies fn under the engine lock,
// persists the result and writes the Change.
func (s *Server) mutate(fn mutation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req targetRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		ch, err := fn(s.engine, req)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		s.persist(r.Context(), ch)
		writeJSON(w, http.StatusOK, ch)
	}
}

func (s *Server) handleRangeEnd(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.engine.EndRange())
}

func (s *Server) handleRangeCancel(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := s.engine.CancelRange()
	s.persist(r.Context(), ch)
	writeJSON(w, http.StatusOK, ch)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := s.engine.Clear()
	s.persist(r.Context(), ch)
	writeJSON(w, http.StatusOK, ch)
}

type ruleRequest struct {
	Rule string `json:"rule"`
}

func (s *Server) handleRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ch, err := s.engine.SelectRule(req.Rule)
	if err != nil {
		if errors.Is(err, calendar.ErrRangeUnavailable) {
			writeEngineError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.persist(r.Context(), ch)
	writeJSON(w, http.StatusOK, ch)
}

// persist saves the selection after a change. Failures are logged; the
// in-memory selection stays authoritative.
func (s *Server) persist(ctx context.Context, ch calendar.Change) {
	if s.opts.Persister == nil || ch.Empty() {
		return
	}
	if err := s.opts.Persister.SaveSelection(ctx, s.engine.Selected()); err != nil {
		appLog.Error("persist selection failed", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}

// writeEngineError maps engine errors onto status codes: stale coordinates
// are client bugs (400), rejected dates are 422, and state conflicts 409.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case calendar.IsProgrammerError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, calendar.ErrOutOfRange), errors.Is(err, calendar.ErrNotSelectable):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, calendar.ErrRangeUnavailable), errors.Is(err, calendar.ErrNoActiveRange):
		writeError(w, http.StatusConflict, err.Error())
	default:
		appLog.Error("engine request failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

func nonNil(ds []model.CalendarDate) []model.CalendarDate {
	if ds == nil {
		return []model.CalendarDate{}
	}
	return ds
}
