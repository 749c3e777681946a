package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/stromtarif/stromtarif/pkg/log"
	"github.com/stromtarif/stromtarif/pkg/registry"
	"github.com/stromtarif/stromtarif/pkg/types"
)

const (
	sessionHeader = "X-Session-ID"
	sessionCookie = "session"

	maxBodyBytes = 1 << 16
)

func requestSessionID(r *http.Request) string {
	if id := r.Header.Get(sessionHeader); id != "" {
		return id
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// session returns the registry of the caller, starting a new session when
// the request carries no known session. The session ID is echoed back in a
// header and a cookie.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *registry.Registry {
	id := requestSessionID(r)
	newID, reg := s.sessions.Get(id)
	if newID != id {
		ctx := r.Context()
		log.Ctx(ctx).DebugContext(ctx, "started session", slog.String("sessionID", newID))
	}
	w.Header().Set(sessionHeader, newID)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    newID,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return reg
}

// readSession returns the registry of an existing session for requests that
// only read devices. Without a known session the catalog is used and no
// session is started.
func (s *Server) readSession(w http.ResponseWriter, r *http.Request) *registry.Registry {
	id := requestSessionID(r)
	if id != "" {
		if reg, ok := s.sessions.Lookup(id); ok {
			w.Header().Set(sessionHeader, id)
			return reg
		}
	}
	return s.sessions.Ephemeral()
}

// decodeBody decodes the JSON request body into v or writes a 400.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		ctx := r.Context()
		log.Ctx(ctx).WarnContext(ctx, "failed to decode request", slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

type validationResponse struct {
	Error      string   `json:"error"`
	Validation []string `json:"validation"`
}

// writeRegistryError maps registry errors to responses.
func writeRegistryError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *registry.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, validationResponse{Error: "invalid device", Validation: verr.Messages}, http.StatusBadRequest)
	case errors.Is(err, registry.ErrDeviceNotFound):
		writeJSONError(w, "device not found", http.StatusNotFound)
	default:
		ctx := r.Context()
		log.Ctx(ctx).ErrorContext(ctx, "device registry failed", slog.Any("error", err))
		writeJSONError(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	reg := s.readSession(w, r)
	writeJSON(w, reg.List(), http.StatusOK)
}

func (s *Server) handleAddDevice(w http.ResponseWriter, r *http.Request) {
	reg := s.session(w, r)
	var d types.Device
	if !decodeBody(w, r, &d) {
		return
	}
	added, err := reg.Add(d)
	if err != nil {
		writeRegistryError(w, r, err)
		return
	}
	writeJSON(w, added, http.StatusCreated)
}

func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	reg := s.session(w, r)
	var d types.Device
	if !decodeBody(w, r, &d) {
		return
	}
	updated, err := reg.Update(r.PathValue("id"), d)
	if err != nil {
		writeRegistryError(w, r, err)
		return
	}
	writeJSON(w, updated, http.StatusOK)
}

func (s *Server) handleRemoveDevice(w http.ResponseWriter, r *http.Request) {
	reg := s.session(w, r)
	if err := reg.Remove(r.PathValue("id")); err != nil {
		writeRegistryError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
