// Package testutil provides testing utilities for the paxmon client.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/motis-project/paxmon-client/pkg/protocol"
)

// MockResponse defines the reply of a mock MOTIS target.
type MockResponse struct {
	StatusCode  int
	ContentType string
	Content     any
	Delay       time.Duration
}

// Handler answers a decoded request envelope.
type Handler func(w http.ResponseWriter, r *http.Request, msg *protocol.Message)

// MockMotis is a configurable mock MOTIS server. Every request is a POST of
// a message envelope to the server root; replies are chosen by target.
type MockMotis struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]Handler

	requestCount int
	targetCounts map[string]int
	lastMessage  *protocol.Message
	lastHeader   http.Header
}

// NewMockMotis creates a new mock MOTIS server.
func NewMockMotis() *MockMotis {
	mock := &MockMotis{
		handlers:     make(map[string]Handler),
		targetCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var msg protocol.Message
		if err := protocol.Unmarshal(body, &msg); err != nil {
			writeEnvelope(w, http.StatusBadRequest, protocol.ContentTypeMotisError, protocol.MotisError{
				ErrorCode: 1,
				Category:  "motis::module",
				Reason:    "invalid message: " + err.Error(),
			})
			return
		}

		target := msg.Destination.Target

		mock.mu.Lock()
		mock.requestCount++
		mock.targetCounts[target]++
		mock.lastMessage = &msg
		mock.lastHeader = r.Header.Clone()
		handler, exists := mock.handlers[target]
		mock.mu.Unlock()

		if exists {
			handler(w, r, &msg)
			return
		}

		writeEnvelope(w, http.StatusNotFound, protocol.ContentTypeMotisError, protocol.MotisError{
			ErrorCode: 2,
			Category:  "motis::module",
			Reason:    "target not found: " + target,
		})
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockMotis) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockMotis) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockMotis) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.targetCounts = make(map[string]int)
	m.lastMessage = nil
	m.lastHeader = nil
}

// SetHandler sets a custom handler for a target.
func (m *MockMotis) SetHandler(target string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[target] = handler
}

// SetResponse configures a fixed reply for a target.
func (m *MockMotis) SetResponse(target string, resp MockResponse) {
	m.SetHandler(target, func(w http.ResponseWriter, r *http.Request, msg *protocol.Message) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		status := resp.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		writeEnvelope(w, status, resp.ContentType, resp.Content)
	})
}

// RequestCount returns the total number of requests received.
func (m *MockMotis) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// TargetCount returns the number of requests received for target.
func (m *MockMotis) TargetCount(target string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.targetCounts[target]
}

// LastMessage returns the most recent request envelope.
func (m *MockMotis) LastMessage() *protocol.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastMessage
}

// LastHeader returns the headers of the most recent request.
func (m *MockMotis) LastHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

// NewSuccessResponse creates a 200 OK reply.
func NewSuccessResponse(contentType string, content any) MockResponse {
	return MockResponse{
		StatusCode:  http.StatusOK,
		ContentType: contentType,
		Content:     content,
	}
}

// NewMotisErrorResponse creates a MotisError reply with status 500.
func NewMotisErrorResponse(code int, reason string) MockResponse {
	return MockResponse{
		StatusCode:  http.StatusInternalServerError,
		ContentType: protocol.ContentTypeMotisError,
		Content: protocol.MotisError{
			ErrorCode: code,
			Category:  "motis::paxmon",
			Reason:    reason,
		},
	}
}

// NewServerErrorResponse creates a 503 reply without an envelope.
func NewServerErrorResponse() MockResponse {
	return MockResponse{StatusCode: http.StatusServiceUnavailable}
}

func writeEnvelope(w http.ResponseWriter, status int, contentType string, content any) {
	if contentType == "" {
		w.WriteHeader(status)
		return
	}

	raw, err := protocol.Marshal(content)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if content == nil {
		raw = json.RawMessage("{}")
	}

	data, err := protocol.Marshal(protocol.Message{
		ContentType: contentType,
		Content:     raw,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}
