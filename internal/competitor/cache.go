package competitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"pricescout/internal/model"
)

// Snapshot is the aggregated competitor dataset of one refresh.
type Snapshot struct {
	ProductID uuid.UUID               `json:"productId"`
	Offers    []model.CompetitorOffer `json:"offers"`
	FetchedAt time.Time               `json:"fetchedAt"`
}

// SnapshotCache stores the latest snapshot per product. Store always
// replaces the previous snapshot as a whole.
type SnapshotCache interface {
	Load(ctx context.Context, productID uuid.UUID) (Snapshot, bool, error)
	Store(ctx context.Context, snapshot Snapshot) error
}

// RedisSnapshotCache keeps snapshots as JSON values with a TTL.
type RedisSnapshotCache struct {
	rc     *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSnapshotCache creates a cache using keys "<prefix>:competitors:<id>".
func NewRedisSnapshotCache(rc *redis.Client, prefix string, ttl time.Duration) *RedisSnapshotCache {
	return &RedisSnapshotCache{rc: rc, prefix: prefix, ttl: ttl}
}

func (c *RedisSnapshotCache) key(id uuid.UUID) string {
	return fmt.Sprintf("%s:competitors:%s", c.prefix, id)
}

func (c *RedisSnapshotCache) Load(ctx context.Context, productID uuid.UUID) (Snapshot, bool, error) {
	bs, err := c.rc.Get(ctx, c.key(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("redis: get snapshot: %w", err)
	}

	var s Snapshot
	if err := json.Unmarshal(bs, &s); err != nil {
		return Snapshot{}, false, fmt.Errorf("redis: decode snapshot: %w", err)
	}
	return s, true, nil
}

func (c *RedisSnapshotCache) Store(ctx context.Context, snapshot Snapshot) error {
	bs, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("redis: encode snapshot: %w", err)
	}
	if err := c.rc.Set(ctx, c.key(snapshot.ProductID), bs, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set snapshot: %w", err)
	}
	return nil
}

// MemorySnapshotCache is a SnapshotCache for single-process use.
type MemorySnapshotCache struct {
	mu        sync.RWMutex
	snapshots map[uuid.UUID]Snapshot
}

func NewMemorySnapshotCache() *MemorySnapshotCache {
	return &MemorySnapshotCache{snapshots: make(map[uuid.UUID]Snapshot)}
}

func (c *MemorySnapshotCache) Load(ctx context.Context, productID uuid.UUID) (Snapshot, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.snapshots[productID]
	return s, ok, nil
}

func (c *MemorySnapshotCache) Store(ctx context.Context, snapshot Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[snapshot.ProductID] = snapshot
	return nil
}
