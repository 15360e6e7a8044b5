// Package api exposes the matching service over HTTP: query matching,
// the snapshot descriptor with ETag revalidation, and authenticated
// rule administration with build-then-swap reloads.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/mkravets/dictmatch/internal/auth"
	"github.com/mkravets/dictmatch/internal/engine"
	"github.com/mkravets/dictmatch/internal/rules"
	"github.com/mkravets/dictmatch/internal/snapshot"
	"github.com/mkravets/dictmatch/internal/store"
	"github.com/mkravets/dictmatch/internal/telemetry"
)

// Server wires the rule store, build options, and admin auth together
// behind a chi router.
type Server struct {
	store        store.Store
	backend      engine.Backend
	opts         engine.Options
	cache        bool
	adminKey     string
	adminKeyHash string
	log          zerolog.Logger
}

// NewServer creates the API server. When adminKeyHash is non-empty it
// takes precedence over the plaintext adminKey.
func NewServer(s store.Store, backend engine.Backend, opts engine.Options, cache bool, adminKey, adminKeyHash string, log zerolog.Logger) *Server {
	return &Server{
		store:        s,
		backend:      backend,
		opts:         opts,
		cache:        cache,
		adminKey:     adminKey,
		adminKeyHash: adminKeyHash,
		log:          log,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))
	r.Use(telemetry.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/v1/rules/snapshot", s.handleSnapshot)
	r.Get("/v1/rules", s.handleListRules)
	r.Post("/v1/match", s.handleMatch)

	r.Post("/v1/rules", s.authAdmin(s.handleUpsertRule))
	r.Delete("/v1/rules/{id}", s.authAdmin(s.handleDeleteRule))

	return r
}

// ---- handlers ----

type snapshotResponse struct {
	ETag      string `json:"etag"`
	Backend   string `json:"backend"`
	Rules     int    `json:"rules"`
	UpdatedAt string `json:"updatedAt"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, req *http.Request) {
	snap := snapshot.Load()
	if inm := req.Header.Get("If-None-Match"); inm != "" && inm == snap.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", snap.ETag)
	writeJSON(w, http.StatusOK, snapshotResponse{
		ETag:      snap.ETag,
		Backend:   string(snap.Backend),
		Rules:     snap.RuleCount,
		UpdatedAt: snap.UpdatedAt.Format(time.RFC3339),
	})
}

func (s *Server) handleListRules(w http.ResponseWriter, req *http.Request) {
	rs, err := s.store.ListRules(req.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list rules failed")
		writeError(w, http.StatusInternalServerError, "failed to list rules")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": rs})
}

type matchResponse struct {
	Matches []engine.Match `json:"matches"`
	ETag    string         `json:"etag"`
}

func (s *Server) handleMatch(w http.ResponseWriter, req *http.Request) {
	var mr matchRequest
	if err := json.NewDecoder(req.Body).Decode(&mr); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	dict, err := toDictionary(mr.Dictionary)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Malformed input is rejected here so that a query against the built
	// rule set itself can never fail.
	if s.opts.Domain != nil {
		if err := s.opts.Domain.CheckDictionary(dict); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	snap := snapshot.Load()
	start := time.Now()
	var matches []engine.Match
	if mr.First {
		if m, ok := snap.Matcher.FindFirst(dict); ok {
			matches = []engine.Match{m}
		}
	} else {
		matches = snap.Matcher.Query(dict)
	}
	telemetry.ObserveQuery(string(snap.Backend), len(matches), time.Since(start))

	if matches == nil {
		matches = []engine.Match{}
	}
	writeJSON(w, http.StatusOK, matchResponse{Matches: matches, ETag: snap.ETag})
}

type upsertResponse struct {
	OK   bool   `json:"ok"`
	ID   string `json:"id"`
	ETag string `json:"etag"`
}

func (s *Server) handleUpsertRule(w http.ResponseWriter, req *http.Request) {
	var rr ruleRequest
	if err := json.NewDecoder(req.Body).Decode(&rr); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	rule, err := rr.toRule()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Fail fast: reject rules the next snapshot build would choke on.
	if _, err := rule.Normalize(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(rule.Constraints) == 0 && !s.opts.AllowMatchAll {
		writeError(w, http.StatusBadRequest, rules.ErrInvalidRule.Error()+": rule has no constraints")
		return
	}
	if s.opts.Domain != nil {
		if err := s.opts.Domain.CheckRule(rule); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := s.store.UpsertRule(req.Context(), rule); err != nil {
		s.log.Error().Err(err).Str("rule", rule.ID).Msg("rule upsert failed")
		writeError(w, http.StatusInternalServerError, "rule upsert failed")
		return
	}

	if err := s.RebuildSnapshot(req.Context()); err != nil {
		s.log.Error().Err(err).Msg("snapshot rebuild failed")
		writeError(w, http.StatusInternalServerError, "snapshot rebuild failed")
		return
	}

	s.log.Info().Str("rule", rule.ID).Msg("rule upserted")
	writeJSON(w, http.StatusOK, upsertResponse{OK: true, ID: rule.ID, ETag: snapshot.Load().ETag})
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")
	if err := s.store.DeleteRule(req.Context(), id); err != nil {
		s.log.Error().Err(err).Str("rule", id).Msg("rule delete failed")
		writeError(w, http.StatusInternalServerError, "rule delete failed")
		return
	}
	if err := s.RebuildSnapshot(req.Context()); err != nil {
		s.log.Error().Err(err).Msg("snapshot rebuild failed")
		writeError(w, http.StatusInternalServerError, "snapshot rebuild failed")
		return
	}
	s.log.Info().Str("rule", id).Msg("rule deleted")
	writeJSON(w, http.StatusOK, upsertResponse{OK: true, ID: id, ETag: snapshot.Load().ETag})
}

// RebuildSnapshot builds a complete new rule set from the store and
// swaps it in atomically.
func (s *Server) RebuildSnapshot(ctx context.Context) error {
	rs, err := s.store.ListRules(ctx)
	if err != nil {
		return err
	}
	snap, err := snapshot.Build(rs, s.backend, s.opts, s.cache)
	if err != nil {
		return err
	}
	snapshot.Update(snap)
	telemetry.SnapshotRules.Set(float64(snap.RuleCount))
	return nil
}

// ---- middleware & helpers ----

func (s *Server) authAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		got := auth.ExtractBearerToken(r.Header.Get("Authorization"))
		if got == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		ok := false
		if s.adminKeyHash != "" {
			ok = auth.VerifyAPIKey(got, s.adminKeyHash)
		} else {
			ok = auth.VerifyAPIKeyConstantTime(got, s.adminKey)
		}
		if !ok {
			writeError(w, http.StatusForbidden, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{
		"error":   http.StatusText(code),
		"message": msg,
	})
}
