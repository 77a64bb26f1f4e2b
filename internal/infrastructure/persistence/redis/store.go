// Package redis implements the Redis-backed snapshot store, for deployments
// where the batch job and the API server run on different hosts and a shared
// filesystem is not available. A snapshot is one JSON value under a single
// key, so SET replaces it atomically.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/312Evan/frcstats/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	// Host is the Redis server hostname.
	Host string

	// Port is the Redis server port.
	Port int

	// Password is the Redis authentication password (empty if no auth).
	Password string

	// DB is the Redis database number (0-15).
	DB int

	// PoolSize is the maximum number of socket connections.
	PoolSize int

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration

	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for socket writes.
	WriteTimeout time.Duration
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		Password:     "",
		DB:           0,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Addr returns the Redis address in "host:port" format.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrConnection is returned when the Redis connection fails.
	ErrConnection = errors.New("redis: connection failed")

	// ErrSerialization is returned when snapshot encoding or decoding fails.
	ErrSerialization = errors.New("redis: serialization failed")
)

// SnapshotKey is the key the ranked snapshot is stored under.
const SnapshotKey = "leaderboard:snapshot"

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT STORE
// ══════════════════════════════════════════════════════════════════════════════

// Store persists the leaderboard snapshot in Redis under a single key.
type Store struct {
	client *redis.Client
	config Config
}

// NewStore creates a Store and verifies the connection.
func NewStore(cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	return &Store{
		client: client,
		config: cfg,
	}, nil
}

// Write replaces the persisted snapshot. SET of one key is atomic on the
// Redis side, so a concurrent Read sees either the old or the new value.
func (s *Store) Write(ctx context.Context, snapshot *leaderboard.Snapshot) error {
	data, err := snapshot.Encode()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	// No TTL: a stale snapshot is better than no snapshot.
	return s.client.Set(ctx, SnapshotKey, data, 0).Err()
}

// Read returns the latest persisted snapshot.
func (s *Store) Read(ctx context.Context) (*leaderboard.Snapshot, error) {
	data, err := s.client.Get(ctx, SnapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, leaderboard.ErrNoSnapshot
		}
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	snapshot, err := leaderboard.DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return snapshot, nil
}

// Ping checks if Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
