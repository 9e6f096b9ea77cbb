// Package fakeserver provides an in-process stand-in for the Comma Central Auth
// service, for tests of code that talks to it over HTTP.
package fakeserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/commasconnect/comma-auth/oauth2"
)

// Call records one request received by the fake.
type Call struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Body          string
}

// Server is an httptest server with per-route handlers. Unconfigured routes
// answer 404.
type Server struct {
	*httptest.Server

	handlers map[string]http.HandlerFunc
	calls    []Call
	lock     sync.Mutex
}

func New() *Server {
	s := &Server{handlers: make(map[string]http.HandlerFunc)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Handle installs handler for path, replacing any previous one.
func (s *Server) Handle(path string, handler http.HandlerFunc) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.handlers[path] = handler
}

// Respond makes path answer with status and body encoded as JSON.
func (s *Server) Respond(path string, status int, body any) {
	s.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, status, body)
	})
}

// VerifyTokens makes /auth/verify accept exactly the tokens in users and answer
// 401 for anything else, like the real service does.
func (s *Server) VerifyTokens(users map[string]*oauth2.UserInfo) {
	s.Handle("/auth/verify", func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		user, ok := users[token]
		if !ok {
			WriteJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
			return
		}
		WriteJSON(w, http.StatusOK, oauth2.VerifyResponse{Valid: true, UserInfo: user})
	})
}

// Calls returns every request received so far
func (s *Server) Calls() []Call {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount returns how many requests hit path.
func (s *Server) CallCount(path string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.lock.Lock()
	s.calls = append(s.calls, Call{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		RequestID:     r.Header.Get("X-Request-ID"),
		Body:          string(body),
	})
	handler, ok := s.handlers[r.URL.Path]
	s.lock.Unlock()

	if !ok {
		WriteJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
		return
	}
	r.Body = io.NopCloser(strings.NewReader(string(body)))
	handler(w, r)
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}
