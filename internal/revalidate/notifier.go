// Package revalidate emits cache-invalidation events after successful
// mutations so the presentation layer can refresh its views. The signal is
// fire-and-forget: a lost event never fails the operation that produced it.
package revalidate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"gestion-obras/internal/config"
)

type Notifier interface {
	Invalidate(paths ...string)
}

// Event is the payload published for each invalidation.
type Event struct {
	ID        string    `json:"id"`
	Paths     []string  `json:"paths"`
	EmittedAt time.Time `json:"emitted_at"`
}

type RedisNotifier struct {
	client  *redis.Client
	channel string
	log     *slog.Logger
}

func NewRedisNotifier(cfg config.Redis, log *slog.Logger) (*RedisNotifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("revalidate: failed to connect to redis: %w", err)
	}

	return &RedisNotifier{client: client, channel: cfg.Channel, log: log}, nil
}

func (n *RedisNotifier) Invalidate(paths ...string) {
	if len(paths) == 0 {
		return
	}

	event := Event{
		ID:        uuid.NewString(),
		Paths:     paths,
		EmittedAt: time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		payload, err := json.Marshal(event)
		if err != nil {
			n.log.Error("revalidate: marshal event", slog.String("error", err.Error()))
			return
		}
		if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
			n.log.Error("revalidate: publish failed",
				slog.String("event_id", event.ID),
				slog.String("error", err.Error()))
		}
	}()
}

// Nop is used in tests and in deployments without redis.
type Nop struct{}

func (Nop) Invalidate(...string) {}
