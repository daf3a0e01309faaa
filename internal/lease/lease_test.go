package lease

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeRedis emulates the two commands and two scripts the lease issues.
type fakeRedis struct {
	mu      sync.Mutex
	values  map[string]string
	down    bool
	renewed int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: make(map[string]string)}
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return redis.NewBoolResult(false, errors.New("connection refused"))
	}
	if _, ok := f.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Eval(_ context.Context, script string, keys []string, args ...any) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return redis.NewCmdResult(nil, errors.New("connection refused"))
	}
	if f.values[keys[0]] != args[0].(string) {
		return redis.NewCmdResult(int64(0), nil)
	}
	switch script {
	case renewScript:
		f.renewed++
	case releaseScript:
		delete(f.values, keys[0])
	}
	return redis.NewCmdResult(int64(1), nil)
}

func (f *fakeRedis) set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
}

func (f *fakeRedis) get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok
}

func (f *fakeRedis) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *fakeRedis) renewals() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.renewed
}

func TestLease_AcquireIsExclusive(t *testing.T) {
	rdb := newFakeRedis()
	ctx := context.Background()

	first := New(rdb, "statusmirror:writer", time.Minute, WithLogger(discard))
	second := New(rdb, "statusmirror:writer", time.Minute, WithLogger(discard))
	assert.NotEqual(t, first.Owner(), second.Owner())

	require.NoError(t, first.Acquire(ctx))
	assert.ErrorIs(t, second.Acquire(ctx), ErrHeld)

	owner, _ := rdb.get("statusmirror:writer")
	assert.Equal(t, first.Owner(), owner)

	require.NoError(t, first.Release(ctx))
	require.NoError(t, second.Acquire(ctx))
}

func TestLease_RenewDetectsTakeover(t *testing.T) {
	rdb := newFakeRedis()
	ls := New(rdb, "k", time.Minute, WithOwner("me"), WithLogger(discard))
	ctx := context.Background()

	require.NoError(t, ls.Acquire(ctx))
	require.NoError(t, ls.Renew(ctx))

	rdb.set("k", "someone-else")
	assert.ErrorIs(t, ls.Renew(ctx), ErrLost)

	// Releasing a lease we no longer own leaves the new owner in place
	require.NoError(t, ls.Release(ctx))
	owner, _ := rdb.get("k")
	assert.Equal(t, "someone-else", owner)
}

func TestLease_AcquireRedisError(t *testing.T) {
	rdb := newFakeRedis()
	rdb.setDown(true)

	err := New(rdb, "k", time.Minute, WithLogger(discard)).Acquire(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrHeld)
}

func TestLease_HoldRenewsAndReleases(t *testing.T) {
	rdb := newFakeRedis()
	ls := New(rdb, "k", 30*time.Millisecond, WithLogger(discard))
	require.NoError(t, ls.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ls.Hold(ctx) }()

	require.Eventually(t, func() bool { return rdb.renewals() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Hold did not return")
	}
	_, held := rdb.get("k")
	assert.False(t, held, "lease should be released on shutdown")
}

func TestLease_HoldReturnsErrLostOnTakeover(t *testing.T) {
	rdb := newFakeRedis()
	ls := New(rdb, "k", 30*time.Millisecond, WithLogger(discard))
	require.NoError(t, ls.Acquire(context.Background()))
	rdb.set("k", "intruder")

	err := ls.Hold(context.Background())
	assert.ErrorIs(t, err, ErrLost)
}

func TestLease_HoldReturnsErrLostWhenRedisUnreachable(t *testing.T) {
	rdb := newFakeRedis()
	ls := New(rdb, "k", 30*time.Millisecond, WithLogger(discard))
	require.NoError(t, ls.Acquire(context.Background()))
	rdb.setDown(true)

	done := make(chan error, 1)
	go func() { done <- ls.Hold(context.Background()) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrLost)
	case <-time.After(time.Second):
		t.Fatal("Hold should give up once the TTL has passed without renewal")
	}
}
