package idempotency

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrInProgress is returned to a caller that raced an unfinished execution
// of the same token. The winner's result is not committed yet, so there is
// nothing to replay; callers surface this without retrying locally.
var ErrInProgress = errors.New("request with this idempotency token is already in progress")

// Operation produces the serialized result to record under a token.
type Operation func(ctx context.Context) ([]byte, error)

// Guard wraps an operation with at-most-one-execution semantics per token.
// The first caller reserves the token, executes the operation and durably
// records its result; every duplicate gets the recorded result back without
// re-executing. A failed execution releases the token so a retry can run.
type Guard struct {
	store *Store
	log   *zap.Logger
}

// NewGuard returns a Guard over the given persistence backend.
func NewGuard(store *Store, log *zap.Logger) *Guard {
	return &Guard{store: store, log: log}
}

// Execute runs op under key. Returns the result body and whether it was
// replayed from a previous execution.
func (g *Guard) Execute(ctx context.Context, key string, op Operation) ([]byte, bool, error) {
	won, err := g.store.Reserve(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("reserve token: %w", err)
	}

	if !won {
		rec, err := g.store.Get(ctx, key)
		if err != nil {
			return nil, false, fmt.Errorf("load token record: %w", err)
		}
		if rec == nil {
			// reservation lost but record gone: the racing execution failed
			// and released the token between our two calls
			return nil, false, ErrInProgress
		}
		switch rec.Status {
		case StatusDone:
			return []byte(rec.ResponseBody), true, nil
		case StatusInProgress:
			return nil, false, ErrInProgress
		default:
			return nil, false, fmt.Errorf("unexpected idempotency status %q for token %s", rec.Status, key)
		}
	}

	body, err := op(ctx)
	if err != nil {
		// release the token; a retry with the same key may execute again
		if derr := g.store.Delete(ctx, key); derr != nil {
			g.log.Warn("failed to release idempotency token after error",
				zap.String("token", key), zap.Error(derr))
		}
		return nil, false, err
	}

	if err := g.store.MarkDone(ctx, key, string(body)); err != nil {
		// the operation itself committed; duplicates will see IN_PROGRESS
		// until the record expires, which beats double execution
		g.log.Warn("failed to record idempotency result",
			zap.String("token", key), zap.Error(err))
	}

	return body, false, nil
}
