// Package cache mirrors published snapshots into Redis so that other
// processes can read the latest opportunities or subscribe to updates.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/arbstream/internal/config"
	"github.com/yourusername/arbstream/internal/store"
)

const (
	DefaultKey     = "arbstream:snapshot"
	DefaultChannel = "arbstream:opportunities"
)

// ErrNoSnapshot is returned when nothing has been published yet
var ErrNoSnapshot = errors.New("no snapshot in cache")

// RedisSnapshotPublisher stores the latest snapshot under a key and
// announces it on a pub/sub channel.
type RedisSnapshotPublisher struct {
	rdb     redis.UniversalClient
	key     string
	channel string
	logger  *logrus.Entry
}

// NewRedisClient parses the configured URL and verifies connectivity
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return rdb, nil
}

// NewRedisSnapshotPublisher creates a publisher. Empty key or channel fall
// back to the defaults.
func NewRedisSnapshotPublisher(rdb redis.UniversalClient, key, channel string, logger *logrus.Logger) *RedisSnapshotPublisher {
	if key == "" {
		key = DefaultKey
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisSnapshotPublisher{
		rdb:     rdb,
		key:     key,
		channel: channel,
		logger:  logger.WithField("component", "redis_publisher"),
	}
}

// Name identifies the publisher as a publish sink
func (p *RedisSnapshotPublisher) Name() string {
	return "redis"
}

// Publish writes the snapshot and notifies subscribers in one transaction
func (p *RedisSnapshotPublisher) Publish(ctx context.Context, snap *store.Snapshot) error {
	payload, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	pipe := p.rdb.TxPipeline()
	pipe.Set(ctx, p.key, payload, 0)
	pipe.Publish(ctx, p.channel, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: publish snapshot: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"version":       snap.Version,
		"opportunities": len(snap.Opportunities),
	}).Debug("Snapshot mirrored to redis")
	return nil
}

// Latest reads the last mirrored snapshot
func (p *RedisSnapshotPublisher) Latest(ctx context.Context) (*store.Snapshot, error) {
	raw, err := p.rdb.Get(ctx, p.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get snapshot: %w", err)
	}
	return DecodeSnapshot(raw)
}

// Ping checks the Redis connection
func (p *RedisSnapshotPublisher) Ping(ctx context.Context) error {
	if err := p.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

// EncodeSnapshot serializes a snapshot for the cache
func EncodeSnapshot(snap *store.Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, errors.New("redis: nil snapshot")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("redis: encode snapshot: %w", err)
	}
	return payload, nil
}

// DecodeSnapshot parses a cached snapshot
func DecodeSnapshot(raw []byte) (*store.Snapshot, error) {
	var snap store.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("redis: decode snapshot: %w", err)
	}
	return &snap, nil
}
