package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "voicescribe:jobs:"

// RedisBus publishes job events over Redis pub/sub so every API replica can
// serve any subscriber
type RedisBus struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisBus connects to Redis at url (redis://host:port/db)
func NewRedisBus(ctx context.Context, url string, logger *zap.Logger) (*RedisBus, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisBus{client: client, logger: logger}, nil
}

func channel(jobID int64) string {
	return fmt.Sprintf("%s%d", channelPrefix, jobID)
}

// Publish sends e on the job's channel
func (b *RedisBus) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.client.Publish(ctx, channel(e.JobID), data).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	publishedTotal.WithLabelValues("redis", e.Type).Inc()
	return nil
}

// Subscribe listens on the job's channel until ctx ends or the returned func
// is called
func (b *RedisBus) Subscribe(ctx context.Context, jobID int64) (<-chan Event, func(), error) {
	sub := b.client.Subscribe(ctx, channel(jobID))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, fmt.Errorf("subscribe: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	out := make(chan Event, subscriberBuffer)

	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					b.logger.Warn("dropping malformed job event", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- e:
				default:
					droppedTotal.WithLabelValues("redis").Inc()
				}
			}
		}
	}()

	return out, cancel, nil
}

// Close closes the Redis client
func (b *RedisBus) Close() error {
	return b.client.Close()
}

// Ping checks the Redis connection
func (b *RedisBus) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
