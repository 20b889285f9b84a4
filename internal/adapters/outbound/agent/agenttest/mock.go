// Package agenttest provides a scripted domain.Agent for tests.
package agenttest

import (
	"context"
	"sync"

	"github.com/abdidvp/sonarfix/internal/domain"
)

// Mock is a thread-safe scripted agent.
//
//	mock := &agenttest.Mock{Responses: []string{`{"fixes": []}`}}
//	mock := &agenttest.Mock{Err: errors.New("connection failed")}
//	mock := &agenttest.Mock{Func: func(req domain.AgentRequest) (string, error) { ... }}
type Mock struct {
	// Func, when set, answers every call and takes precedence over the other fields.
	Func func(req domain.AgentRequest) (string, error)
	// Err is returned by every call when set.
	Err error
	// Responses are returned in sequence; the last one repeats.
	Responses []string

	mu       sync.Mutex
	requests []domain.AgentRequest
}

// Complete implements domain.Agent.
func (m *Mock) Complete(ctx context.Context, req domain.AgentRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	n := len(m.requests)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Func != nil {
		return m.Func(req)
	}
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	if n > len(m.Responses) {
		n = len(m.Responses)
	}
	return m.Responses[n-1], nil
}

// CallCount returns the number of Complete calls so far.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of every request received.
func (m *Mock) Requests() []domain.AgentRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.AgentRequest, len(m.requests))
	copy(out, m.requests)
	return out
}
