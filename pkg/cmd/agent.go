package cmd

import (
	"fmt"
	"log/slog"

	redis "github.com/redis/go-redis/v9"

	"github.com/leanworks/futurestate/pkg/designagent"
)

// NewDesignAgent builds the HTTP design agent, wrapped in a redis result cache
// when a redis URL is given.
func NewDesignAgent(agentURL, apiKey, redisURL string, logger *slog.Logger) designagent.Agent {
	agent, err := designagent.NewHTTPAgent(designagent.HTTPAgentConfig{
		BaseURL: agentURL,
		APIKey:  apiKey,
	}, logger)
	if err != nil {
		panic(fmt.Errorf("failed to create design agent: %w", err))
	}

	if redisURL == "" {
		return agent
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		panic(fmt.Errorf("failed to parse redis url: %w", err))
	}

	return designagent.NewCachedAgent(agent, redis.NewClient(opts), 0, logger)
}
