package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewLocker(client), srv
}

func TestTryLockExcludesSecondHolder(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	token, ok, err := locker.TryLock(ctx, "poller:leader", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, token)

	_, ok, err = locker.TryLock(ctx, "poller:leader", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, locker.Release(ctx, "poller:leader", token))
	_, ok, err = locker.TryLock(ctx, "poller:leader", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestReleaseIgnoresForeignToken(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	token, ok, err := locker.TryLock(ctx, "poller:leader", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, locker.Release(ctx, "poller:leader", "stale-token"))

	// The original holder still owns the lock.
	_, ok, err = locker.TryLock(ctx, "poller:leader", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, locker.Release(ctx, "poller:leader", token))
}

func TestLockExpires(t *testing.T) {
	locker, srv := newTestLocker(t)
	ctx := context.Background()

	_, ok, err := locker.TryLock(ctx, "poller:leader", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	srv.FastForward(2 * time.Second)

	_, ok, err = locker.TryLock(ctx, "poller:leader", time.Second)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestNilLockerErrors(t *testing.T) {
	var locker *Locker
	_, _, err := locker.TryLock(context.Background(), "k", time.Second)
	require.Error(t, err)
	require.NoError(t, locker.Release(context.Background(), "k", "t"))
}
