package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"dragcal/internal/config"
	"dragcal/internal/ics"
	appLog "dragcal/internal/log"
	"dragcal/internal/model"
	"dragcal/internal/store"
)

// Server provides the HTTP API for schedule access plus the websocket
// manipulation endpoint that feeds pointer samples into the gesture engine.
type Server struct {
	cfg  *config.Config
	repo store.Repository
	mux  *http.ServeMux

	fetcher *ics.Fetcher

	// In-memory cache for expanded occurrences to avoid redundant
	// fetch/parse/expand work on every HTTP request. The cron loop in
	// cmd/dragcal prewarms it via RefreshNow.
	eventsMu    sync.RWMutex
	eventsCache *eventsCache
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, repo store.Repository) *Server {
	s := &Server{
		cfg:     cfg,
		repo:    repo,
		mux:     http.NewServeMux(),
		fetcher: ics.NewFetcher(cfg.CacheDir),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password is treated as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays unauthenticated for probes.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="dragcal", charset="UTF-8"`)
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
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/ws/manipulate", s.handleManipulate)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Occurrences     []occurrenceDTO `json:"occurrences"`
	TruncatedUIDs   []string        `json:"truncated_uids,omitempty"`
	RangeStart      time.Time       `json:"range_start"`
	RangeEnd        time.Time       `json:"range_end"`
	DisplayTimeZone string          `json:"display_timezone"`
}

// eventsCache holds the latest expanded occurrences and their timestamp.
// The raw occurrences are kept alongside the response so the websocket
// endpoint can resolve manipulation targets without a second expansion.
type eventsCache struct {
	resp        eventsResponse
	occurrences []model.Occurrence
	updatedAt   time.Time
}

// occurrenceDTO is a JSON-friendly view of occurrences.
type occurrenceDTO struct {
	SourceID    string    `json:"source_id"`
	UID         string    `json:"uid"`
	InstanceKey string    `json:"instance_key"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	AllDay      bool      `json:"all_day"`
	SourceType  string    `json:"source_type"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// handleEvents returns expanded occurrences (with committed overrides
// applied) for the configured ICS sources.
//
// GET /api/events?days=7&backfill=1
//   - days:     how many future days to include (default 7)
//   - backfill: how many past days to include (default 1)
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q := r.URL.Query()
	days := parseIntDefault(q.Get("days"), s.cfg.HorizonDays)
	if days <= 0 {
		days = 7
	}
	backfill := parseIntDefault(q.Get("backfill"), 1)
	if backfill < 0 {
		backfill = 0
	}

	const eventsCacheTTL = 30 * time.Second
	s.eventsMu.RLock()
	ec := s.eventsCache
	s.eventsMu.RUnlock()
	if ec != nil && time.Since(ec.updatedAt) < eventsCacheTTL {
		writeJSON(w, http.StatusOK, ec.resp)
		return
	}

	resp, _, err := s.refresh(ctx, days, backfill)
	if err != nil {
		appLog.Error("api events: refresh failed", err)
		writeError(w, http.StatusInternalServerError, "failed to expand events")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// RefreshNow fetches, expands and caches occurrences for the configured
// horizon. The cron scheduler in cmd/dragcal calls this periodically.
func (s *Server) RefreshNow(ctx context.Context) error {
	_, _, err := s.refresh(ctx, s.cfg.HorizonDays, 1)
	return err
}

// refresh runs the full fetch/parse/expand/apply-overrides pipeline and
// updates the cache.
func (s *Server) refresh(ctx context.Context, days, backfill int) (eventsResponse, []model.Occurrence, error) {
	loc := resolveLocationOrLocal(s.cfg.Timezone)
	now := time.Now().In(loc)
	rangeStart := now.AddDate(0, 0, -backfill)
	rangeEnd := now.AddDate(0, 0, days)

	appLog.Info("events refresh",
		"days", days,
		"backfill", backfill,
		"range_start", rangeStart.Format(time.RFC3339),
		"range_end", rangeEnd.Format(time.RFC3339),
		"timezone", s.cfg.Timezone,
	)

	sources := make([]ics.Source, 0, len(s.cfg.ICS))
	for _, csrc := range s.cfg.ICS {
		if csrc.URL == "" {
			continue
		}
		id := csrc.ID
		if id == "" {
			if csrc.Name != "" {
				id = csrc.Name
			} else {
				id = csrc.URL
			}
		}
		sources = append(sources, ics.Source{
			ID:         id,
			URL:        csrc.URL,
			SourceType: csrc.SourceType,
		})
	}

	fetchResults, fetchErrs := s.fetcher.FetchAll(ctx, sources)
	if len(fetchErrs) > 0 {
		appLog.Error("events refresh: one or more ICS fetches failed",
			errorsAggregate(fetchErrs), "error_count", len(fetchErrs))
	}

	parsedEvents := make([]ics.ParsedEvent, 0)
	for _, res := range fetchResults {
		events, err := ics.ParseICS(res.Source, res.Body)
		if err != nil {
			appLog.Error("events refresh: parse failed for source", err, "id", res.Source.ID)
			continue
		}
		parsedEvents = append(parsedEvents, events...)
	}

	expandResult, err := ics.ExpandOccurrences(parsedEvents, ics.ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      rangeStart,
		RangeEnd:        rangeEnd,
	})
	if err != nil {
		return eventsResponse{}, nil, err
	}

	occurrences := expandResult.Occurrences
	if s.repo != nil {
		overrides, lerr := s.repo.ListOverrides(ctx)
		if lerr != nil {
			appLog.Error("events refresh: override load failed", lerr)
		} else {
			occurrences = store.ApplyOverrides(occurrences, overrides)
		}
	}

	dtos := make([]occurrenceDTO, 0, len(occurrences))
	for _, occ := range occurrences {
		dtos = append(dtos, occurrenceDTO{
			SourceID:    occ.SourceID,
			UID:         occ.UID,
			InstanceKey: occ.InstanceKey,
			Summary:     occ.Summary,
			Description: occ.Description,
			Location:    occ.Location,
			AllDay:      occ.AllDay,
			SourceType:  occ.SourceType,
			Start:       occ.Start,
			End:         occ.End,
		})
	}

	resp := eventsResponse{
		Occurrences:     dtos,
		TruncatedUIDs:   expandResult.TruncatedEvents,
		RangeStart:      rangeStart,
		RangeEnd:        rangeEnd,
		DisplayTimeZone: loc.String(),
	}

	s.eventsMu.Lock()
	s.eventsCache = &eventsCache{
		resp:        resp,
		occurrences: occurrences,
		updatedAt:   time.Now(),
	}
	s.eventsMu.Unlock()

	return resp, occurrences, nil
}

// findOccurrence resolves a manipulation target, refreshing the cache when
// it is cold.
func (s *Server) findOccurrence(ctx context.Context, sourceID, uid, instanceKey string) (model.Occurrence, bool) {
	s.eventsMu.RLock()
	ec := s.eventsCache
	s.eventsMu.RUnlock()

	if ec == nil {
		if _, occs, err := s.refresh(ctx, s.cfg.HorizonDays, 1); err == nil {
			return matchOccurrence(occs, sourceID, uid, instanceKey)
		}
		return model.Occurrence{}, false
	}
	return matchOccurrence(ec.occurrences, sourceID, uid, instanceKey)
}

func matchOccurrence(occs []model.Occurrence, sourceID, uid, instanceKey string) (model.Occurrence, bool) {
	for _, occ := range occs {
		if occ.SourceID == sourceID && occ.UID == uid && occ.InstanceKey == instanceKey {
			return occ, true
		}
	}
	return model.Occurrence{}, false
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
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

func errorsAggregate(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	var b strings.Builder
	for i, e := range errs {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e.Error())
	}
	return errors.New(b.String())
}
