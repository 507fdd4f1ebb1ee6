package designagent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const proposePath = "/v1/step-designs/propose"

// HTTPAgentConfig configures the HTTP design agent. Zero values fall back to
// defaults suitable for a slow generation backend.
type HTTPAgentConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Retries RetryConfig
}

// RetryConfig defines retry behavior for agent requests.
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

// HTTPAgent calls an external design-agent service over HTTP. Server errors
// and network failures are retried, client errors are not.
type HTTPAgent struct {
	baseURL string
	apiKey  string
	client  *http.Client
	retries RetryConfig
	logger  *slog.Logger
}

// NewHTTPAgent creates an HTTP design agent.
func NewHTTPAgent(config HTTPAgentConfig, logger *slog.Logger) (*HTTPAgent, error) {
	if config.BaseURL == "" {
		return nil, errors.New("design agent base url is required")
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	retries := config.Retries
	if retries.Attempts < 1 {
		retries.Attempts = 2
	}

	if retries.Delay == 0 {
		retries.Delay = 2 * time.Second
	}

	return &HTTPAgent{
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
		apiKey:  config.APIKey,
		client:  &http.Client{Timeout: timeout},
		retries: retries,
		logger:  logger.With("module", "design_agent"),
	}, nil
}

// HTTPError carries the status code of a failed agent request.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// ProposeDesigns posts the input to the agent service and decodes its
// response. The response is schema-validated before it is trusted.
func (a *HTTPAgent) ProposeDesigns(ctx context.Context, input Input) (*Result, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode agent input: %w", err)
	}

	var lastErr error

	for attempt := 1; attempt <= a.retries.Attempts; attempt++ {
		if attempt > 1 {
			a.logger.InfoContext(ctx, "Retrying design agent request",
				"attempt", attempt, "attempts", a.retries.Attempts, "node_id", input.NodeID)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(a.retries.Delay):
			}
		}

		result, err := a.propose(ctx, payload)
		if err == nil {
			return result, nil
		}

		lastErr = err

		// Client errors will not get better on retry.
		httpErr := &HTTPError{}
		if errors.As(err, &httpErr) && httpErr.StatusCode < 500 {
			break
		}
	}

	return nil, fmt.Errorf("design agent request failed after %d attempts: %w", a.retries.Attempts, lastErr)
}

func (a *HTTPAgent) propose(ctx context.Context, payload []byte) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+proposePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.logger.Warn("Failed to close agent response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	if err := ValidateResult(body); err != nil {
		return nil, fmt.Errorf("agent response rejected: %w", err)
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode agent response: %w", err)
	}

	return &result, nil
}
