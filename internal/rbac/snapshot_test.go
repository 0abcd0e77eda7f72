package rbac

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshotCache(t *testing.T) *SnapshotCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSnapshotCache(client, time.Minute)
}

func TestSnapshotCacheFetchStoresAndReuses(t *testing.T) {
	cache := testSnapshotCache(t)
	loads := 0
	loader := func(ctx context.Context) (UserGrants, error) {
		loads++
		return UserGrants{UserID: 7, Roles: []GrantedRole{grantedRole(RoleStaff, DashboardStaff, perm(1, "staff-tasks-manage"))}}, nil
	}

	first, err := cache.Fetch(context.Background(), 7, loader)
	require.NoError(t, err)
	assert.Equal(t, int64(7), first.UserID)
	require.Equal(t, 1, loads)

	second, err := cache.Fetch(context.Background(), 7, loader)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, loads, "second fetch must hit the cache")
}

func TestSnapshotCacheInvalidateForcesReload(t *testing.T) {
	cache := testSnapshotCache(t)
	loads := 0
	loader := func(ctx context.Context) (UserGrants, error) {
		loads++
		return UserGrants{UserID: 7}, nil
	}

	_, err := cache.Fetch(context.Background(), 7, loader)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(context.Background()))

	_, err = cache.Fetch(context.Background(), 7, loader)
	require.NoError(t, err)
	assert.Equal(t, 2, loads, "invalidation must drop the cached snapshot")
}

func TestSnapshotCacheNilDisablesCaching(t *testing.T) {
	var cache *SnapshotCache
	loads := 0
	loader := func(ctx context.Context) (UserGrants, error) {
		loads++
		return UserGrants{UserID: 9}, nil
	}

	for i := 0; i < 3; i++ {
		grants, err := cache.Fetch(context.Background(), 9, loader)
		require.NoError(t, err)
		assert.Equal(t, int64(9), grants.UserID)
	}
	assert.Equal(t, 3, loads)
}
