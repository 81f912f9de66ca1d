package workpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestRun_PreservesOrder(t *testing.T) {
	items := []int{5, 1, 4, 2, 3}

	got := Run(context.Background(), 3, items, func(ctx context.Context, idx int, n int) int {
		// Finish out of order
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * 10
	})

	want := []int{50, 10, 40, 20, 30}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("result[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestRun_BoundsConcurrency(t *testing.T) {
	var active, peak int32
	items := make([]int, 20)

	Run(context.Background(), 4, items, func(ctx context.Context, idx int, _ int) struct{} {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return struct{}{}
	})

	if peak > 4 {
		t.Errorf("peak concurrency = %d, want <= 4", peak)
	}
}

func TestRun_Empty(t *testing.T) {
	got := Run(context.Background(), 2, []string(nil), func(ctx context.Context, idx int, s string) string { return s })
	if len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
}

func TestRun_CancelledContextStillJoins(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := Run(ctx, 2, []int{1, 2, 3}, func(ctx context.Context, idx int, n int) error {
		return ctx.Err()
	})
	for i, err := range got {
		if err == nil {
			t.Errorf("result[%d] should carry the cancellation", i)
		}
	}
}
