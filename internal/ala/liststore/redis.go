package liststore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/estudiopraxis/console/pkg/models"
)

const snapshotKeyPattern = "ala:snapshot:%s"

// RedisBackup mirrors list snapshots to redis so restarts recover the
// last good data without waiting for a full refresh cycle.
type RedisBackup struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBackup wraps an existing redis client. Snapshots are kept for
// ttl; zero means no expiry.
func NewRedisBackup(client *redis.Client, ttl time.Duration) *RedisBackup {
	return &RedisBackup{client: client, ttl: ttl}
}

func (b *RedisBackup) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	key := fmt.Sprintf(snapshotKeyPattern, snap.SourceID)
	if err := b.client.Set(ctx, key, data, b.ttl).Err(); err != nil {
		return fmt.Errorf("store snapshot %s: %w", snap.SourceID, err)
	}
	return nil
}

func (b *RedisBackup) Load(ctx context.Context, id models.WatchlistSourceID) (*Snapshot, error) {
	key := fmt.Sprintf(snapshotKeyPattern, id)
	data, err := b.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return &snap, nil
}
