// Package fakeapi is an in-process stand-in for the console backend. It
// issues HS256 tokens, enforces bearer auth and keeps data sources, storages
// and tasks in memory. Tests run the client packages against it.
package fakeapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Prefix is the API root all routes are mounted under
const Prefix = "/api/v1"

// Claims is the token payload issued by the server
type Claims struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	jwt.RegisteredClaims
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type user struct {
	id       string
	nickname string
	password string
}

// Server is the fake backend
type Server struct {
	mu       sync.Mutex
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
	users    map[string]user
	revoked  map[string]bool
	requests []string

	dataSources *collection
	storages    *collection
	tasks       *collection

	router chi.Router
}

// Option configures a Server
type Option func(*Server)

// WithSecret sets the signing secret
func WithSecret(secret string) Option {
	return func(s *Server) {
		s.secret = []byte(secret)
	}
}

// WithTTL sets the lifetime of issued tokens
func WithTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.ttl = ttl
	}
}

// WithClock overrides the server time source
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a server with no users
func New(opts ...Option) *Server {
	s := &Server{
		secret:  []byte("fakeapi-secret"),
		ttl:     24 * time.Hour,
		now:     time.Now,
		users:   map[string]user{},
		revoked: map[string]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.dataSources = newCollection(s.now, nil)
	s.storages = newCollection(s.now, nil)
	s.tasks = newCollection(s.now, map[string]any{"status": "pending"})

	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// AddUser registers a user and returns its ID
func (s *Server) AddUser(nickname, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.users[nickname] = user{id: id, nickname: nickname, password: password}
	return id
}

// IssueToken signs a token for the given user expiring ttl from now. A
// negative ttl yields an already expired token.
func (s *Server) IssueToken(userID, nickname string, ttl time.Duration) (string, time.Time, error) {
	expires := s.now().Add(ttl)
	claims := Claims{
		UserID:   userID,
		Nickname: nickname,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return token, expires, err
}

// Revoke makes the server reject token from now on
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = true
}

// Requests returns "METHOD path" for every request received
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.trace)

	r.Route(Prefix, func(r chi.Router) {
		r.Post("/auth/login", s.login)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Route("/data-sources", s.dataSources.mount)
			r.Route("/storages", s.storages.mount)
			r.Route("/tasks", s.tasks.mount)
			r.Post("/executor/execute", s.execute)
		})
	})

	return r
}

func (s *Server) trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+strings.TrimPrefix(r.URL.Path, Prefix))
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nickname string `json:"nickname"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body")
		return
	}

	s.mu.Lock()
	u, ok := s.users[payload.Nickname]
	s.mu.Unlock()

	if !ok || u.password != payload.Password {
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid nickname or password")
		return
	}

	token, expires, err := s.IssueToken(u.id, u.nickname, s.ttl)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "token signing failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expires.UTC(),
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid authentication token")
			return
		}

		s.mu.Lock()
		revoked := s.revoked[raw]
		s.mu.Unlock()
		if revoked {
			writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid authentication token")
			return
		}

		_, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "Authentication token has expired")
				return
			}
			writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid authentication token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		TaskType string         `json:"task_type"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body")
		return
	}

	taskID, _ := payload.Metadata["task_id"].(string)
	if _, ok := s.tasks.get(taskID); !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		return
	}
	if payload.TaskType == "" {
		writeError(w, http.StatusBadRequest, "UNSUPPORTED_TASK_TYPE", "Unsupported task type")
		return
	}

	s.tasks.patch(taskID, map[string]any{"status": "running"})
	writeJSON(w, http.StatusOK, map[string]any{
		"task_id":   taskID,
		"task_type": payload.TaskType,
		"status":    "running",
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
