package server

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/stromtarif/stromtarif/pkg/log"
	"github.com/stromtarif/stromtarif/pkg/source"
	"github.com/stromtarif/stromtarif/pkg/storage"
)

type syncResponse struct {
	Prices   int    `json:"prices"`
	H0       int    `json:"h0"`
	H0PV     int    `json:"h0pv"`
	SyncedAt string `json:"syncedAt"`
}

// authorizeSync checks the bearer token when a verifier is configured. It
// writes the error response and returns false when the caller is not allowed.
func (s *Server) authorizeSync(w http.ResponseWriter, r *http.Request) bool {
	if s.syncVerifier == nil {
		return true
	}
	ctx := r.Context()

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		writeJSONError(w, "missing authorization header", http.StatusUnauthorized)
		return false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		writeJSONError(w, "invalid authorization header", http.StatusUnauthorized)
		return false
	}

	email, err := s.syncVerifier(ctx, parts[1])
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to validate id token", slog.Any("error", err))
		writeJSONError(w, "invalid id token", http.StatusUnauthorized)
		return false
	}
	if !slices.Contains(s.syncEmails, email) {
		log.Ctx(ctx).WarnContext(ctx, "unauthorized email for sync", slog.String("email", email))
		writeJSONError(w, "unauthorized email", http.StatusForbidden)
		return false
	}
	log.Ctx(ctx).DebugContext(ctx, "sync: authorized", slog.String("email", email))
	return true
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !s.authorizeSync(w, r) {
		return
	}

	ds, err := s.upstream.Load(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "sync: failed to load upstream", slog.Any("error", err))
		s.observeSync(err)
		writeJSONError(w, source.UserMessage(err), http.StatusBadGateway)
		return
	}

	now := s.now()
	if err := storage.SaveDataset(ctx, s.storage, ds, now); err != nil {
		s.observeSync(err)
		if storage.IsDisabled(err) {
			writeJSONError(w, "no storage configured", http.StatusServiceUnavailable)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "sync: failed to save dataset", slog.Any("error", err))
		writeJSONError(w, "failed to save dataset", http.StatusInternalServerError)
		return
	}
	s.observeSync(nil)
	s.dataset.Invalidate()

	writeJSON(w, syncResponse{
		Prices:   len(ds.Prices),
		H0:       len(ds.H0),
		H0PV:     len(ds.H0PV),
		SyncedAt: now.UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

func (s *Server) observeSync(err error) {
	if s.metrics != nil {
		s.metrics.ObserveSync(s.now(), err)
	}
}
