package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/howa"
	"github.com/xraph/howa/task"
)

// Compile-time interface check.
var _ task.Backend = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithQueueName sets the List key used as the task queue.
func WithQueueName(name string) Option {
	return func(s *Store) { s.queueName = name }
}

// WithKeyPrefix sets the namespace prefix of task keys.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) { s.keyPrefix = prefix }
}

// WithTTL sets the retention window applied on every task write.
// Zero disables expiry.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// WithConfig applies the queue name and TTL from a howa.Config.
func WithConfig(cfg howa.Config) Option {
	return func(s *Store) {
		s.queueName = cfg.QueueName
		s.ttl = cfg.TaskTTL
	}
}

// Store implements task.Backend backed by Redis.
type Store struct {
	client    goredis.Cmdable
	logger    *slog.Logger
	queueName string
	keyPrefix string
	ttl       time.Duration
}

// New creates a new Redis-backed store. The caller owns the Redis client
// lifecycle.
func New(client goredis.Cmdable, opts ...Option) *Store {
	s := &Store{
		client:    client,
		logger:    slog.Default(),
		queueName: defaultQueueName,
		keyPrefix: defaultKeyPrefix,
		ttl:       time.Hour,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Client returns the underlying Redis client.
func (s *Store) Client() goredis.Cmdable { return s.client }

// QueueName returns the List key used as the task queue.
func (s *Store) QueueName() string { return s.queueName }

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("howa/redis: ping: %w: %w", howa.ErrStoreUnavailable, err)
	}
	return nil
}

// Close is a no-op — the caller owns the Redis client lifecycle.
func (s *Store) Close() error { return nil }

// unavailable wraps an infrastructure error so callers can match
// howa.ErrStoreUnavailable.
func unavailable(op string, err error) error {
	return fmt.Errorf("howa/redis: %s: %w: %w", op, howa.ErrStoreUnavailable, err)
}
