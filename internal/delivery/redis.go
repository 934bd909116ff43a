package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis delivers by appending to a Redis stream that a session gateway consumes.
type Redis struct {
	client   *redis.Client
	stream   string
	template string
}

// NewRedis connects to url (redis://...) and writes entries to stream.
func NewRedis(url, stream, sessionTemplate string) (*Redis, error) {
	if url == "" {
		return nil, errors.New("redis delivery needs redis_url or REDIS_URL")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if stream == "" {
		stream = "missioncontrol:deliveries"
	}
	return NewRedisWithClient(redis.NewClient(opts), stream, sessionTemplate), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, stream, sessionTemplate string) *Redis {
	return &Redis{client: client, stream: stream, template: sessionTemplate}
}

// Deliver adds one stream entry with agent_id, session and message fields.
func (r *Redis) Deliver(ctx context.Context, agentID, text string) error {
	if err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{
			"agent_id": agentID,
			"session":  sessionKey(r.template, agentID),
			"message":  text,
		},
	}).Err(); err != nil {
		return fmt.Errorf("deliver to %s: %w", agentID, err)
	}
	return nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
