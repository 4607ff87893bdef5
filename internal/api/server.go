// Package api provides the HTTP API for terrain, roads and location queries.
// GET endpoints are public and read-only apart from the character location
// snapshot a locate call may save. POST endpoints require a bearer token.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/waystone/internal/config"
	"github.com/talgya/waystone/internal/locate"
	"github.com/talgya/waystone/internal/persistence"
	"github.com/talgya/waystone/internal/roads"
	"github.com/talgya/waystone/internal/world"
)

// defaultPOIRadius is used when a points-of-interest query names no radius.
const defaultPOIRadius = 8

// Server serves the waystone API over HTTP.
type Server struct {
	Roads       *roads.Service
	Locator     *locate.Service
	DB          *persistence.DB
	Tuning      config.Tuning
	Port        int
	AdminKey    string   // Bearer token for POST endpoints. Empty = POST disabled.
	CORSOrigins []string // Extra allowed origins besides localhost dev servers.

	started time.Time
}

// Handler builds the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	if s.started.IsZero() {
		s.started = time.Now()
	}
	generateLimiter := NewRateLimiter(s.Tuning.RateLimits.GenerateMax, s.Tuning.RateLimits.GenerateWindow())
	locateLimiter := NewRateLimiter(s.Tuning.RateLimits.LocateMax, s.Tuning.RateLimits.LocateWindow())

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/tiles", s.handleTiles)
	mux.HandleFunc("/api/v1/pois", s.handlePOIs)
	mux.HandleFunc("/api/v1/settlements", s.handleSettlements)
	mux.HandleFunc("/api/v1/roads", s.handleRoads)
	mux.HandleFunc("/api/v1/locate", RateLimitMiddleware(locateLimiter, s.handleLocate))
	mux.HandleFunc("/api/v1/character/", s.handleCharacterLocation)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/roads/generate", s.adminOnly(RateLimitMiddleware(generateLimiter, s.handleGenerate)))

	return corsMiddleware(s.CORSOrigins, mux)
}

// Start begins serving the HTTP API in a goroutine. The returned server can
// be shut down by the caller.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range origins {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowedOrigins[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a POST-only handler with bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if s.AdminKey == "" {
			writeError(w, http.StatusForbidden, "admin endpoints disabled (no WAYSTONE_ADMIN_KEY set)")
			return
		}
		if !s.checkBearerToken(r) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

// getOnly rejects anything but GET and HEAD.
func getOnly(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !getOnly(w, r) {
		return
	}
	status := map[string]any{
		"name":           "waystone",
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"admin_enabled":  s.AdminKey != "",
	}
	if s.DB != nil {
		counts, err := s.DB.Counts(r.Context())
		if err != nil {
			s.internalError(w, "status counts", err)
			return
		}
		status["counts"] = counts
	}
	writeJSON(w, status)
}

func (s *Server) handleTiles(w http.ResponseWriter, r *http.Request) {
	if !getOnly(w, r) {
		return
	}
	q := queryParams{r: r}
	seed := q.seed()
	b := world.Bounds{
		MinX: q.intParam("min_x", nil),
		MinY: q.intParam("min_y", nil),
		MaxX: q.intParam("max_x", nil),
		MaxY: q.intParam("max_y", nil),
	}.Normalize()
	if q.failed(w) {
		return
	}
	if b.Width() <= 0 || b.Height() <= 0 || b.Width() > s.Tuning.MaxTileSpan || b.Height() > s.Tuning.MaxTileSpan {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("tile span exceeds %d per side", s.Tuning.MaxTileSpan))
		return
	}

	tiles := world.NewField(seed).TilesInBounds(b)
	writeJSON(w, map[string]any{
		"campaign_seed": seed,
		"bounds":        b,
		"tiles":         tiles,
		"biomes":        world.BiomeCounts(tiles),
	})
}

func (s *Server) handlePOIs(w http.ResponseWriter, r *http.Request) {
	if !getOnly(w, r) {
		return
	}
	q := queryParams{r: r}
	seed := q.seed()
	x := q.intParam("x", nil)
	y := q.intParam("y", nil)
	radius := q.intParam("radius", ptr(defaultPOIRadius))
	if q.failed(w) {
		return
	}
	if radius < 0 || radius > s.Tuning.MaxPOIRadius {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("radius must be in 0..%d", s.Tuning.MaxPOIRadius))
		return
	}

	pois := world.NewField(seed).PointsOfInterestAround(x, y, radius)
	if pois == nil {
		pois = []world.PointOfInterest{}
	}
	writeJSON(w, map[string]any{
		"campaign_seed": seed,
		"bounds":        world.BoundsAround(x, y, radius),
		"points":        pois,
	})
}

func (s *Server) handleSettlements(w http.ResponseWriter, r *http.Request) {
	if !getOnly(w, r) {
		return
	}
	q := queryParams{r: r}
	seed := q.seed()
	if q.failed(w) {
		return
	}

	settlements, err := s.Roads.Settlements(r.Context(), seed)
	if err != nil {
		s.internalError(w, "list settlements", err)
		return
	}
	writeJSON(w, map[string]any{
		"campaign_seed": seed,
		"count":         len(settlements),
		"settlements":   settlements,
	})
}

// handleRoads lists persisted roads. With ensure=true the network is first
// extended to reach every settlement.
func (s *Server) handleRoads(w http.ResponseWriter, r *http.Request) {
	if !getOnly(w, r) {
		return
	}
	q := queryParams{r: r}
	seed := q.seed()
	ensure := q.boolParam("ensure", false)
	if q.failed(w) {
		return
	}

	var (
		rs  []roads.Record
		err error
	)
	if ensure {
		rs, err = s.Roads.EnsureNetwork(r.Context(), seed)
	} else {
		rs, err = s.Roads.Roads(r.Context(), seed)
	}
	if err != nil {
		s.internalError(w, "list roads", err)
		return
	}
	writeRoads(w, seed, rs)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	q := queryParams{r: r}
	seed := q.seed()
	if q.failed(w) {
		return
	}

	rs, err := s.Roads.GenerateNetwork(r.Context(), seed)
	if err != nil {
		s.internalError(w, "generate roads", err)
		return
	}
	writeRoads(w, seed, rs)
}

func writeRoads(w http.ResponseWriter, seed string, rs []roads.Record) {
	if rs == nil {
		rs = []roads.Record{}
	}
	writeJSON(w, map[string]any{
		"campaign_seed": seed,
		"count":         len(rs),
		"roads":         rs,
	})
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	if !getOnly(w, r) {
		return
	}
	q := queryParams{r: r}
	seed := q.seed()
	pos := world.Vector2{X: q.floatParam("x", nil), Y: q.floatParam("y", nil)}
	opts := locate.Options{
		Radius:      q.floatParam("radius", ptr(s.Tuning.DefaultRadius)),
		NearbyLimit: q.intParam("limit", ptr(s.Tuning.NearbyLimit)),
		CharacterID: strings.TrimSpace(r.URL.Query().Get("character_id")),
		SkipPersist: !q.boolParam("persist", true),
	}
	if q.failed(w) {
		return
	}
	if opts.Radius <= 0 || opts.Radius > s.Tuning.MaxRadius {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("radius must be in (0, %v]", s.Tuning.MaxRadius))
		return
	}
	if opts.NearbyLimit <= 0 || opts.NearbyLimit > s.Tuning.MaxNearbyLimit {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be in 1..%d", s.Tuning.MaxNearbyLimit))
		return
	}

	lc, err := s.Locator.Locate(r.Context(), seed, pos, opts)
	if err != nil {
		s.internalError(w, "locate", err)
		return
	}
	writeJSON(w, lc)
}

// handleCharacterLocation serves GET /api/v1/character/:id/location.
func (s *Server) handleCharacterLocation(w http.ResponseWriter, r *http.Request) {
	if !getOnly(w, r) {
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/character/")
	id, rest, _ := strings.Cut(path, "/")
	if id == "" || rest != "location" {
		writeError(w, http.StatusBadRequest, "usage: /api/v1/character/:id/location")
		return
	}
	if s.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	loc, err := s.DB.CharacterLocation(r.Context(), id)
	if errors.Is(err, persistence.ErrNotFound) {
		writeError(w, http.StatusNotFound, "character not found")
		return
	}
	if err != nil {
		s.internalError(w, "character location", err)
		return
	}
	writeJSON(w, loc)
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	slog.Error("request failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, op+" failed")
}

// queryParams parses query values, remembering the first failure.
type queryParams struct {
	r   *http.Request
	err error
}

func (q *queryParams) fail(format string, args ...any) {
	if q.err == nil {
		q.err = fmt.Errorf(format, args...)
	}
}

func (q *queryParams) failed(w http.ResponseWriter) bool {
	if q.err == nil {
		return false
	}
	writeError(w, http.StatusBadRequest, q.err.Error())
	return true
}

func (q *queryParams) seed() string {
	seed := strings.TrimSpace(q.r.URL.Query().Get("seed"))
	if seed == "" {
		q.fail("seed is required")
	}
	return seed
}

// floatParam parses a finite number. A nil def makes the parameter required.
func (q *queryParams) floatParam(name string, def *float64) float64 {
	raw := q.r.URL.Query().Get(name)
	if raw == "" {
		if def == nil {
			q.fail("%s is required", name)
			return 0
		}
		return *def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		q.fail("%s must be a finite number", name)
		return 0
	}
	return v
}

func (q *queryParams) intParam(name string, def *int) int {
	raw := q.r.URL.Query().Get(name)
	if raw == "" {
		if def == nil {
			q.fail("%s is required", name)
			return 0
		}
		return *def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		q.fail("%s must be an integer", name)
		return 0
	}
	return v
}

func (q *queryParams) boolParam(name string, def bool) bool {
	raw := q.r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		q.fail("%s must be true or false", name)
		return def
	}
	return v
}

func ptr[T any](v T) *T { return &v }

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
