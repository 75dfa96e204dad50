package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vaquero/internal"
	"vaquero/internal/pipeline"
	"vaquero/internal/query"
)

type errorResponse struct {
	Error string `json:"error"`
}

type sessionResponse struct {
	Key     string               `json:"key"`
	State   query.FilterState    `json:"state"`
	Restore query.RestoreOutcome `json:"restore,omitempty"`
	View    query.View           `json:"view"`
}

const maxBodyBytes = 1 << 16

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, internal.Categories)
}

// handleDiscounts is the stateless view: filters come from the query string
// and nothing is persisted.
func (s *Server) handleDiscounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := query.FilterState{Search: q.Get("search")}
	if raw := q.Get("category"); raw != "" {
		category, ok := pipeline.CanonicalCategory(raw)
		if !ok {
			s.respondError(w, r, fmt.Errorf("unknown category %q", raw), http.StatusBadRequest)
			return
		}
		state.Category = category
	}
	for _, raw := range q["eligibility"] {
		role, ok := internal.ParseRole(raw)
		if !ok {
			s.respondError(w, r, fmt.Errorf("unknown role %q", raw), http.StatusBadRequest)
			return
		}
		if !state.HasRole(role) {
			state = state.ToggleRole(role)
		}
	}

	records, err := s.store.ListDiscounts()
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, query.Run(records, state))
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	key := uuid.NewString()
	s.withSession(w, r, key, http.StatusCreated, func(session *query.Session) {
		session.Clear()
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	key, ok := s.sessionKey(w, r)
	if !ok {
		return
	}
	s.withSession(w, r, key, http.StatusOK, nil)
}

func (s *Server) handleSetSearch(w http.ResponseWriter, r *http.Request) {
	key, ok := s.sessionKey(w, r)
	if !ok {
		return
	}
	var body struct {
		Search string `json:"search"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	s.withSession(w, r, key, http.StatusOK, func(session *query.Session) {
		session.SetSearch(body.Search)
	})
}

func (s *Server) handleToggleCategory(w http.ResponseWriter, r *http.Request) {
	key, ok := s.sessionKey(w, r)
	if !ok {
		return
	}
	var body struct {
		Category string `json:"category"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	category, ok := pipeline.CanonicalCategory(body.Category)
	if !ok {
		s.respondError(w, r, fmt.Errorf("unknown category %q", body.Category), http.StatusBadRequest)
		return
	}
	s.withSession(w, r, key, http.StatusOK, func(session *query.Session) {
		session.ToggleCategory(category)
	})
}

func (s *Server) handleToggleRole(w http.ResponseWriter, r *http.Request) {
	key, ok := s.sessionKey(w, r)
	if !ok {
		return
	}
	var body struct {
		Role string `json:"role"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	role, ok := internal.ParseRole(body.Role)
	if !ok {
		s.respondError(w, r, fmt.Errorf("unknown role %q", body.Role), http.StatusBadRequest)
		return
	}
	s.withSession(w, r, key, http.StatusOK, func(session *query.Session) {
		session.ToggleRole(role)
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	key, ok := s.sessionKey(w, r)
	if !ok {
		return
	}
	s.withSession(w, r, key, http.StatusOK, func(session *query.Session) {
		session.Clear()
	})
}

func (s *Server) sessionKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := chi.URLParam(r, "key")
	if _, err := uuid.Parse(key); err != nil {
		s.respondError(w, r, fmt.Errorf("invalid session key %q", key), http.StatusBadRequest)
		return "", false
	}
	return key, true
}

// withSession restores the user's session under the per-key lock, applies
// action when non-nil, and writes the resulting state and view.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, key string, status int, action func(*query.Session)) {
	unlock := s.locks.Lock(key)
	defer unlock()

	records, err := s.store.ListDiscounts()
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	session, outcome := query.OpenSession(s.store, query.StorageKey(s.stateKey, key), records)
	if action != nil {
		action(session)
	}
	writeJSON(w, status, sessionResponse{
		Key:     key,
		State:   session.State(),
		Restore: outcome,
		View:    session.View(),
	})
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	entry := logrus.WithFields(logrus.Fields{
		"component":  "http",
		"path":       r.URL.Path,
		"method":     r.Method,
		"status":     status,
		"request_id": middleware.GetReqID(r.Context()),
	}).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}

	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
