package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
)

func TestMapPreservesIndexOrder(t *testing.T) {
	got, err := Map(context.Background(), 10, 3, func(ctx context.Context, i int) (int, error) {
		return i * i, nil
	})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	for i, v := range got {
		if v != i*i {
			t.Fatalf("result[%d] = %d, want %d", i, v, i*i)
		}
	}
}

func TestMapLimitClamped(t *testing.T) {
	// limit above n and a non-positive limit must both work.
	for _, limit := range []int{100, 0, -1} {
		got, err := Map(context.Background(), 4, limit, func(ctx context.Context, i int) (int, error) {
			return i, nil
		})
		if err != nil || len(got) != 4 {
			t.Fatalf("limit=%d: got %v, err %v", limit, got, err)
		}
	}
}

func TestMapBoundsConcurrency(t *testing.T) {
	var current, peak atomic.Int64
	_, err := Map(context.Background(), 32, 4, func(ctx context.Context, i int) (int, error) {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		defer current.Add(-1)
		return i, nil
	})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if peak.Load() > 4 {
		t.Fatalf("observed %d concurrent workers, limit was 4", peak.Load())
	}
}

func TestMapFirstErrorCancels(t *testing.T) {
	boom := errors.New("boom")
	_, err := Map(context.Background(), 50, 2, func(ctx context.Context, i int) (int, error) {
		if i == 3 {
			return 0, fmt.Errorf("task %d: %w", i, boom)
		}
		return i, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestMapEmpty(t *testing.T) {
	got, err := Map(context.Background(), 0, 4, func(ctx context.Context, i int) (int, error) {
		t.Fatal("fn must not run for n=0")
		return 0, nil
	})
	if err != nil || got != nil {
		t.Fatalf("got %v, err %v", got, err)
	}
}
