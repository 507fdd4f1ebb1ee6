package designagent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "futurestate:design:"

// CachedAgent wraps an agent with a redis result cache keyed on the full
// input. Cache trouble never fails a request: misses and redis errors both
// fall through to the wrapped agent.
type CachedAgent struct {
	inner  Agent
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedAgent creates a caching decorator around an agent.
func NewCachedAgent(inner Agent, client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *CachedAgent {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	return &CachedAgent{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger.With("module", "design_agent_cache"),
	}
}

// ProposeDesigns serves a cached result when the exact same input was answered
// before, otherwise calls the wrapped agent and stores its result.
func (c *CachedAgent) ProposeDesigns(ctx context.Context, input Input) (*Result, error) {
	key, err := cacheKey(input)
	if err != nil {
		return c.inner.ProposeDesigns(ctx, input)
	}

	cached, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var result Result
		if err := json.Unmarshal(cached, &result); err == nil {
			c.logger.InfoContext(ctx, "Design agent cache hit", "node_id", input.NodeID)
			result.Cached = true

			return &result, nil
		}

		c.logger.WarnContext(ctx, "Discarding undecodable cache entry", "key", key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "Design agent cache read failed", "error", err)
	}

	result, err := c.inner.ProposeDesigns(ctx, input)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "Design agent cache write failed", "error", err)
		}
	}

	return result, nil
}

// cacheKey hashes the full input. Map keys marshal sorted, so identical inputs
// always produce the same key.
func cacheKey(input Input) (string, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("failed to encode cache key: %w", err)
	}

	sum := sha256.Sum256(data)

	return cacheKeyPrefix + hex.EncodeToString(sum[:]), nil
}
