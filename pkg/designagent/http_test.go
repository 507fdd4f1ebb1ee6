package designagent

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func validAgentResponse() map[string]any {
	return map[string]any{
		"options": []map[string]any{
			{
				"title":      "Automate intake triage",
				"summary":    "Route requests by type before any human touches them",
				"changes":    []string{"Add a triage rule set", "Drop the manual inbox review"},
				"confidence": 0.8,
				"assumptions": []map[string]any{
					{"assumption": "Request types are machine-readable"},
				},
			},
		},
		"questions": []map[string]any{
			{"id": "q-volume", "question": "What is the daily request volume?"},
		},
	}
}

func TestNewHTTPAgent_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTPAgent(HTTPAgentConfig{}, testLogger())
	require.Error(t, err)
}

func TestHTTPAgent_ProposeDesigns(t *testing.T) {
	var gotAuth, gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		var input Input
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		assert.Equal(t, "node-1", input.NodeID)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(validAgentResponse())
	}))
	defer server.Close()

	agent, err := NewHTTPAgent(HTTPAgentConfig{BaseURL: server.URL, APIKey: "secret"}, testLogger())
	require.NoError(t, err)

	result, err := agent.ProposeDesigns(t.Context(), Input{NodeID: "node-1", NodeName: "Intake"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, proposePath, gotPath)
	require.Len(t, result.Options, 1)
	assert.Equal(t, "Automate intake triage", result.Options[0].Title)
	assert.InDelta(t, 0.8, result.Options[0].Confidence, 0.001)
	require.Len(t, result.Options[0].Assumptions, 1)
	require.Len(t, result.Questions, 1)
	assert.Equal(t, "q-volume", result.Questions[0].ID)
	assert.False(t, result.Cached)
}

func TestHTTPAgent_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		_ = json.NewEncoder(w).Encode(validAgentResponse())
	}))
	defer server.Close()

	agent, err := NewHTTPAgent(HTTPAgentConfig{
		BaseURL: server.URL,
		Retries: RetryConfig{Attempts: 3, Delay: time.Millisecond},
	}, testLogger())
	require.NoError(t, err)

	result, err := agent.ProposeDesigns(t.Context(), Input{NodeID: "node-1"})
	require.NoError(t, err)
	assert.Len(t, result.Options, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPAgent_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error": "node context makes no sense"}`))
	}))
	defer server.Close()

	agent, err := NewHTTPAgent(HTTPAgentConfig{
		BaseURL: server.URL,
		Retries: RetryConfig{Attempts: 3, Delay: time.Millisecond},
	}, testLogger())
	require.NoError(t, err)

	_, err = agent.ProposeDesigns(t.Context(), Input{NodeID: "node-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 422")
	assert.Equal(t, int32(1), calls.Load(), "client errors must not be retried")
}

func TestHTTPAgent_RejectsInvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"options": [{"summary": "no title here"}]}`))
	}))
	defer server.Close()

	agent, err := NewHTTPAgent(HTTPAgentConfig{
		BaseURL: server.URL,
		Retries: RetryConfig{Attempts: 1, Delay: time.Millisecond},
	}, testLogger())
	require.NoError(t, err)

	_, err = agent.ProposeDesigns(t.Context(), Input{NodeID: "node-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent response rejected")
}
