// Package authtest runs a fake REST API with bearer authentication and a
// rotating refresh endpoint, for end-to-end tests of the executor.
package authtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
)

// RefreshPath is where the fake API exchanges refresh tokens.
const RefreshPath = "/auth/refresh"

// Server is a fake API. Routes:
//
//	POST /auth/refresh   {"refreshToken": "..."} → {"accessToken": "...", "refreshToken": "..."}
//	GET  /users/{id}     authenticated, echoes id and the "active" query value
//	POST /orders         authenticated, echoes the "sku" body field with 201
//	GET  /public         unauthenticated, plain text
//
// Each successful refresh rotates both tokens; the old refresh token is
// rejected afterwards.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	access  string
	refresh string
	gen     int

	refreshCalls   atomic.Int64
	protectedCalls atomic.Int64
	failRefresh    atomic.Bool
}

// NewServer starts a fake API that accepts the given tokens.
// The caller must Close it.
func NewServer(access, refresh string) *Server {
	s := &Server{access: access, refresh: refresh}

	r := chi.NewRouter()
	r.Post(RefreshPath, s.handleRefresh)
	r.Get("/public", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/users/{id}", s.handleUser)
		r.Post("/orders", s.handleOrder)
	})

	s.Server = httptest.NewServer(r)
	return s
}

// Expire invalidates the current access token. The refresh token stays valid.
func (s *Server) Expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = "expired-" + s.access
}

// FailRefresh makes the refresh endpoint answer 500.
func (s *Server) FailRefresh(fail bool) {
	s.failRefresh.Store(fail)
}

// Tokens returns the tokens the server currently accepts.
func (s *Server) Tokens() (access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access, s.refresh
}

// RefreshCalls returns the number of refresh requests received.
func (s *Server) RefreshCalls() int {
	return int(s.refreshCalls.Load())
}

// ProtectedCalls returns the number of authenticated route requests received.
func (s *Server) ProtectedCalls() int {
	return int(s.protectedCalls.Load())
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.protectedCalls.Add(1)

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		valid := ok && token == s.access
		s.mu.Unlock()

		if !valid {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)

	if s.failRefresh.Load() {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "unavailable"})
		return
	}

	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	s.mu.Lock()
	if body.RefreshToken == "" || body.RefreshToken != s.refresh {
		s.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid refresh token"})
		return
	}
	s.gen++
	s.access = fmt.Sprintf("access-%d", s.gen)
	s.refresh = fmt.Sprintf("refresh-%d", s.gen)
	access, refresh := s.access, s.refresh
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  access,
		"refreshToken": refresh,
	})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"id":     chi.URLParam(r, "id"),
		"active": r.URL.Query().Get("active"),
	})
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": "o-1", "sku": body["sku"]})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
