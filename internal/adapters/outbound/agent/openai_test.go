package agent_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdidvp/sonarfix/internal/adapters/outbound/agent"
	"github.com/abdidvp/sonarfix/internal/domain"
)

func TestOpenAI_Complete(t *testing.T) {
	var got map[string]any
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"model":"gpt-test","choices":[{"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}],"usage":{"total_tokens":12}}`))
	}))
	defer ts.Close()

	a := agent.NewOpenAI(domain.AgentConfig{
		Provider: domain.ProviderOpenAI,
		BaseURL:  ts.URL + "/v1/",
		APIKey:   "sk-test",
		Model:    "gpt-test",
		Timeout:  time.Second,
	}, nil, nil)

	out, err := a.Complete(context.Background(), domain.AgentRequest{System: "sys", Prompt: "hi", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, "Bearer sk-test", auth)

	assert.Equal(t, "gpt-test", got["model"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "hi", msgs[1].(map[string]any)["content"])
	assert.Equal(t, "json_object", got["response_format"].(map[string]any)["type"])
}

func TestOpenAI_NoAuthHeaderWithoutKey(t *testing.T) {
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer ts.Close()

	a := agent.NewOpenAI(domain.AgentConfig{BaseURL: ts.URL + "/chat/completions", Timeout: time.Second}, nil, nil)
	_, err := a.Complete(context.Background(), domain.AgentRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Empty(t, auth)
}

func TestOpenAI_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"http error", http.StatusTooManyRequests, `{"error":"rate limited"}`, "HTTP 429"},
		{"bad json", http.StatusOK, `not json`, "parsing chat response"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no choices"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			a := agent.NewOpenAI(domain.AgentConfig{BaseURL: ts.URL, Timeout: time.Second}, nil, nil)
			_, err := a.Complete(context.Background(), domain.AgentRequest{Prompt: "hi"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew_SelectsProvider(t *testing.T) {
	a, err := agent.New(context.Background(), domain.AgentConfig{
		Provider: domain.ProviderOpenAI,
		APIKey:   "k",
		Timeout:  time.Second,
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &agent.OpenAI{}, a)

	g, err := agent.New(context.Background(), domain.AgentConfig{
		Provider: domain.ProviderGemini,
		APIKey:   "k",
		Timeout:  time.Second,
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &agent.Gemini{}, g)

	_, err = agent.New(context.Background(), domain.AgentConfig{Provider: domain.ProviderGemini, Timeout: time.Second}, nil)
	assert.Error(t, err)
}

func TestOpenAI_TruncatedCompletionIsAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"package main\n\nfunc main() {\n\tfmt.Pri"},"finish_reason":"length"}],"usage":{"total_tokens":4096}}`))
	}))
	defer ts.Close()

	a := agent.NewOpenAI(domain.AgentConfig{BaseURL: ts.URL, Timeout: time.Second}, nil, nil)
	out, err := a.Complete(context.Background(), domain.AgentRequest{Prompt: "rewrite"})
	require.ErrorIs(t, err, domain.ErrTruncatedCompletion)
	assert.Empty(t, out)
}
