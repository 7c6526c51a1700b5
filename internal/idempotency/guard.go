package idempotency

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"
)

// Guard runs an action at most once per token and coalesces concurrent
// calls that share a key.
type Guard struct {
	store  Store
	group  singleflight.Group
	logger *slog.Logger
}

// NewGuard creates a Guard backed by store.
func NewGuard(store Store, logger *slog.Logger) *Guard {
	return &Guard{store: store, logger: logger}
}

// Do runs fn unless token has already been claimed, in which case it
// returns duplicate=true without calling fn. Concurrent calls with the same
// key share one execution of fn. A failed fn releases the token so the
// action can be retried.
//
// An empty token skips the store but still coalesces by key. If the store
// itself fails the action runs anyway.
func (g *Guard) Do(ctx context.Context, token, key string, fn func(ctx context.Context) (any, error)) (result any, duplicate bool, err error) {
	if token != "" {
		claimed, cerr := g.store.Claim(ctx, token)
		switch {
		case cerr != nil:
			g.logger.Warn("idempotency store claim failed, running action anyway",
				slog.String("key", key),
				slog.String("error", cerr.Error()),
			)
		case !claimed:
			g.logger.Debug("skipping duplicate action", slog.String("key", key))
			return nil, true, nil
		}
	}

	v, err, shared := g.group.Do(key, func() (any, error) {
		return fn(ctx)
	})
	if shared {
		g.logger.Debug("coalesced concurrent action", slog.String("key", key))
	}

	if err != nil && token != "" {
		if rerr := g.store.Release(ctx, token); rerr != nil {
			g.logger.Warn("failed to release idempotency token",
				slog.String("key", key),
				slog.String("error", rerr.Error()),
			)
		}
	}
	return v, false, err
}
