package idempotency

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestGuard() (*Guard, *simpleMock) {
	mock := newSimpleMock()
	store := NewStore(mock, "idempotency-table", 24*time.Hour)
	return NewGuard(store, zap.NewNop()), mock
}

func TestGuard_ExecutesOnceAndReplays(t *testing.T) {
	g, _ := newTestGuard()
	ctx := context.Background()

	var calls int32
	op := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte(`{"orderId":"o1","status":"PLACED"}`), nil
	}

	body, replayed, err := g.Execute(ctx, "u1#o1", op)
	if err != nil {
		t.Fatalf("first Execute error: %v", err)
	}
	if replayed {
		t.Fatalf("first execution must not be a replay")
	}
	if string(body) != `{"orderId":"o1","status":"PLACED"}` {
		t.Fatalf("unexpected body: %s", body)
	}

	// duplicate gets the identical recorded result, op not re-executed
	body2, replayed2, err := g.Execute(ctx, "u1#o1", op)
	if err != nil {
		t.Fatalf("second Execute error: %v", err)
	}
	if !replayed2 {
		t.Fatalf("expected replay on duplicate token")
	}
	if string(body2) != string(body) {
		t.Fatalf("replayed body differs: %s vs %s", body2, body)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected exactly 1 execution, got %d", n)
	}
}

func TestGuard_ConcurrentCallersExecuteOnce(t *testing.T) {
	g, _ := newTestGuard()
	ctx := context.Background()

	var calls int32
	op := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(10 * time.Millisecond) // hold the token IN_PROGRESS
		return []byte(`{"orderId":"o1"}`), nil
	}

	const n = 10
	var wg sync.WaitGroup
	bodies := make([][]byte, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bodies[i], _, errs[i] = g.Execute(ctx, "u1#o1", op)
		}(i)
	}
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected exactly 1 execution, got %d", n)
	}
	for i := 0; i < n; i++ {
		if errs[i] == nil {
			if string(bodies[i]) != `{"orderId":"o1"}` {
				t.Fatalf("caller %d saw wrong body: %s", i, bodies[i])
			}
			continue
		}
		// losers racing the in-flight execution observe ErrInProgress
		if !errors.Is(errs[i], ErrInProgress) {
			t.Fatalf("caller %d unexpected error: %v", i, errs[i])
		}
	}
}

func TestGuard_FailureReleasesToken(t *testing.T) {
	g, mock := newTestGuard()
	ctx := context.Background()

	boom := errors.New("store exploded")
	_, _, err := g.Execute(ctx, "u1#o1", func(ctx context.Context) ([]byte, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected op error to propagate, got %v", err)
	}
	if mock.deleteCalls != 1 {
		t.Fatalf("expected token released once, delete calls = %d", mock.deleteCalls)
	}

	// retry with the same token executes again
	body, replayed, err := g.Execute(ctx, "u1#o1", func(ctx context.Context) ([]byte, error) {
		return []byte(`ok`), nil
	})
	if err != nil {
		t.Fatalf("retry Execute error: %v", err)
	}
	if replayed {
		t.Fatalf("retry must be a fresh execution")
	}
	if string(body) != "ok" {
		t.Fatalf("unexpected retry body: %s", body)
	}
}
