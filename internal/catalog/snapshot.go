package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotStore is a shared last-known-good catalog tier. It is written
// through on every successful refresh and read only when a process has no
// in-memory snapshot and a live refresh failed.
type SnapshotStore interface {
	Get(ctx context.Context) ([]Entry, error)
	Set(ctx context.Context, entries []Entry) error
}

// ErrSnapshotMiss indicates no snapshot is stored.
var ErrSnapshotMiss = errors.New("catalog snapshot miss")

const snapshotKey = "catalog:snapshot"

// RedisSnapshotStore stores the snapshot as a single JSON blob with a
// jittered TTL so a fleet of instances does not expire in lockstep.
type RedisSnapshotStore struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisSnapshotStore(client *redis.Client) *RedisSnapshotStore {
	return &RedisSnapshotStore{
		client:  client,
		baseTTL: 6 * time.Hour,
	}
}

func (r *RedisSnapshotStore) Get(ctx context.Context) ([]Entry, error) {
	data, err := r.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot failed: %w", err)
	}
	return entries, nil
}

func (r *RedisSnapshotStore) Set(ctx context.Context, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal snapshot failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(30)) * time.Minute
	if err := r.client.Set(ctx, snapshotKey, data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}
