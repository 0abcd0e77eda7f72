package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const snapshotVersionKey = "rbac:grants:version"

// SnapshotCache caches UserGrants snapshots in Redis. Permission checks
// tolerate a few seconds of staleness, so mutations just bump a version key
// instead of tracking every affected user.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewSnapshotCache constructs a SnapshotCache. A nil client disables caching.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

// Fetch returns the cached snapshot for userID or loads and stores it.
// Concurrent requests for the same user share one load.
func (c *SnapshotCache) Fetch(ctx context.Context, userID int64, loader func(context.Context) (UserGrants, error)) (UserGrants, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	key, err := c.key(ctx, userID)
	if err != nil {
		return loader(ctx)
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var grants UserGrants
		if err := json.Unmarshal(raw, &grants); err == nil {
			return grants, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return loader(ctx)
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		grants, err := loader(ctx)
		if err != nil {
			return UserGrants{}, err
		}
		if data, err := json.Marshal(grants); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttl).Err()
		}
		return grants, nil
	})
	if err != nil {
		return UserGrants{}, err
	}
	return value.(UserGrants), nil
}

// Invalidate drops every cached snapshot by bumping the version key.
func (c *SnapshotCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, snapshotVersionKey).Err()
}

func (c *SnapshotCache) key(ctx context.Context, userID int64) (string, error) {
	ver, err := c.client.Get(ctx, snapshotVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		ver = 1
		if err := c.client.Set(ctx, snapshotVersionKey, ver, 0).Err(); err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}
	return fmt.Sprintf("rbac:grants:%d:%d", ver, userID), nil
}
