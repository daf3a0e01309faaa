// Package lease guards the status page against concurrent writers with a
// Redis key held by at most one statusmirror instance.
package lease

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrHeld is returned by Acquire when another instance holds the lease.
	ErrHeld = errors.New("lease held by another instance")

	// ErrLost is returned by Hold when the lease expired or was taken over.
	ErrLost = errors.New("lease lost")
)

// Extends the key only while it still carries our owner token.
const renewScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`

const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Client is the subset of the Redis API the lease uses.
type Client interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

// Config holds the Redis connection and lease settings.
type Config struct {
	Address  string
	Password string
	DB       int
	Key      string
	TTL      time.Duration
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s; %w", cfg.Address, err)
	}
	return rdb, nil
}

// Lease is a renewable exclusive claim on a Redis key.
type Lease struct {
	client Client
	key    string
	owner  string
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a Lease.
type Option func(*Lease)

// WithLogger sets the lease logger.
func WithLogger(l *slog.Logger) Option {
	return func(ls *Lease) {
		ls.logger = l
	}
}

// WithOwner overrides the generated owner token.
func WithOwner(owner string) Option {
	return func(ls *Lease) {
		ls.owner = owner
	}
}

// New creates a lease on key. The owner token is the host name plus a
// random suffix, so restarts on the same host do not inherit a stale lease.
func New(client Client, key string, ttl time.Duration, opts ...Option) *Lease {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	ls := &Lease{
		client: client,
		key:    key,
		owner:  host + "/" + uuid.NewString(),
		ttl:    ttl,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(ls)
	}
	ls.logger = ls.logger.With("component", "lease", "key", key)
	return ls
}

// Owner returns the token stored in the lease key.
func (ls *Lease) Owner() string {
	return ls.owner
}

// Acquire claims the lease. It fails with ErrHeld when the key exists.
func (ls *Lease) Acquire(ctx context.Context) error {
	ok, err := ls.client.SetNX(ctx, ls.key, ls.owner, ls.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire lease; %w", err)
	}
	if !ok {
		return ErrHeld
	}
	ls.logger.Info("lease acquired", "owner", ls.owner, "ttl", ls.ttl)
	return nil
}

// Renew extends the lease by its TTL. It fails with ErrLost when the key
// no longer carries this owner.
func (ls *Lease) Renew(ctx context.Context) error {
	n, err := ls.client.Eval(ctx, renewScript, []string{ls.key}, ls.owner, ls.ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("failed to renew lease; %w", err)
	}
	if n == 0 {
		return ErrLost
	}
	return nil
}

// Release deletes the key if this owner still holds it.
func (ls *Lease) Release(ctx context.Context) error {
	if _, err := ls.client.Eval(ctx, releaseScript, []string{ls.key}, ls.owner).Int64(); err != nil {
		return fmt.Errorf("failed to release lease; %w", err)
	}
	ls.logger.Info("lease released")
	return nil
}

// Hold renews the lease every third of its TTL until ctx is cancelled, then
// releases it. It returns ErrLost if the lease was taken over or could not
// be renewed before it expired.
func (ls *Lease) Hold(ctx context.Context) error {
	ticker := time.NewTicker(ls.ttl / 3)
	defer ticker.Stop()

	lastRenew := time.Now()
	for {
		select {
		case <-ctx.Done():
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			return ls.Release(releaseCtx)
		case <-ticker.C:
		}

		err := ls.Renew(ctx)
		switch {
		case err == nil:
			lastRenew = time.Now()
		case errors.Is(err, ErrLost):
			ls.logger.Error("lease taken over by another instance")
			return ErrLost
		case ctx.Err() != nil:
			// Shutdown raced the renewal; release on the next iteration.
		default:
			if time.Since(lastRenew) >= ls.ttl {
				ls.logger.Error("lease expired while redis was unreachable", "error", err)
				return fmt.Errorf("%w; %w", ErrLost, err)
			}
			ls.logger.Warn("lease renewal failed; retrying", "error", err)
		}
	}
}
