// Package testutils holds fakes shared by aish tests.
package testutils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// MockCompletionServer is a fake completion API. Each request is answered
// with the next queued stream body; when the queue is empty the last body is
// repeated.
type MockCompletionServer struct {
	*httptest.Server

	mu      sync.Mutex
	bodies  []string
	queries []string
	users   []string
	keys    []string
}

// NewMockCompletionServer starts a server answering with bodies in order.
// Close must be called when the test is done.
func NewMockCompletionServer(bodies ...string) *MockCompletionServer {
	m := &MockCompletionServer{bodies: bodies}
	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

func (m *MockCompletionServer) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/completion-messages") {
		http.NotFound(w, r)
		return
	}

	var req struct {
		Inputs struct {
			Query string `json:"query"`
		} `json:"inputs"`
		User string `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.queries = append(m.queries, req.Inputs.Query)
	m.users = append(m.users, req.User)
	m.keys = append(m.keys, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	body := ""
	if n := len(m.bodies); n > 0 {
		body = m.bodies[0]
		if n > 1 {
			m.bodies = m.bodies[1:]
		}
	}
	m.mu.Unlock()

	w.Header().Set("Content-Type", "text/event-stream")
	fmt.Fprint(w, body)
}

// Endpoint is the API base URL to configure clients with.
func (m *MockCompletionServer) Endpoint() string {
	return m.URL + "/v1"
}

// Queries returns the prompts received so far.
func (m *MockCompletionServer) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// Users returns the user identifiers received so far.
func (m *MockCompletionServer) Users() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.users...)
}

// Keys returns the bearer tokens received so far.
func (m *MockCompletionServer) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.keys...)
}

// Answer builds an event stream delivering fragments as message events
// followed by a message_end terminator.
func Answer(fragments ...string) string {
	var b strings.Builder
	for _, f := range fragments {
		data, _ := json.Marshal(map[string]string{"event": "message", "answer": f})
		b.WriteString("data: " + string(data) + "\n\n")
	}
	b.WriteString("data: {\"event\":\"message_end\"}\n\n")
	return b.String()
}

// Script builds an event stream answering with script inside a sh fence.
func Script(script string) string {
	return Answer("```sh\n", script, "\n```")
}

// ErrorEvent builds an event stream carrying a single error event.
func ErrorEvent(status int, code, message string) string {
	data, _ := json.Marshal(map[string]any{
		"event":   "error",
		"status":  status,
		"code":    code,
		"message": message,
	})
	return "data: " + string(data) + "\n\n"
}
