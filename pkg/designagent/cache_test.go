package designagent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAgent counts calls and replays a canned result.
type stubAgent struct {
	calls  atomic.Int32
	result *Result
	err    error
}

func (s *stubAgent) ProposeDesigns(_ context.Context, _ Input) (*Result, error) {
	s.calls.Add(1)

	if s.err != nil {
		return nil, s.err
	}

	return s.result, nil
}

func newCacheFixture(t *testing.T, inner Agent) *CachedAgent {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCachedAgent(inner, client, time.Hour, testLogger())
}

func TestCachedAgent_CachesByInput(t *testing.T) {
	inner := &stubAgent{result: &Result{Options: []OptionProposal{{Title: "Option A", Confidence: 0.7}}}}
	cached := newCacheFixture(t, inner)

	input := Input{NodeID: "node-1", NodeName: "Intake", ResearchMode: false}

	first, err := cached.ProposeDesigns(t.Context(), input)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := cached.ProposeDesigns(t.Context(), input)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Options, second.Options)
	assert.Equal(t, int32(1), inner.calls.Load())

	// Flipping any input field misses the cache.
	input.ResearchMode = true

	third, err := cached.ProposeDesigns(t.Context(), input)
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestCachedAgent_FallsThroughWhenRedisDown(t *testing.T) {
	inner := &stubAgent{result: &Result{Options: []OptionProposal{{Title: "Option A"}}}}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cached := NewCachedAgent(inner, client, time.Hour, testLogger())

	mr.Close()

	result, err := cached.ProposeDesigns(t.Context(), Input{NodeID: "node-1"})
	require.NoError(t, err)
	assert.Len(t, result.Options, 1)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestCachedAgent_DoesNotCacheErrors(t *testing.T) {
	inner := &stubAgent{err: errors.New("agent exploded")}
	cached := newCacheFixture(t, inner)

	_, err := cached.ProposeDesigns(t.Context(), Input{NodeID: "node-1"})
	require.Error(t, err)

	_, err = cached.ProposeDesigns(t.Context(), Input{NodeID: "node-1"})
	require.Error(t, err)
	assert.Equal(t, int32(2), inner.calls.Load())
}
