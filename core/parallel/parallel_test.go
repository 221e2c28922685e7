package parallel

import (
	"fmt"
	"sync/atomic"
	"testing"
)

func TestParallelizeCoversAllItems(t *testing.T) {
	tests := []struct {
		name  string
		items int
	}{
		{"zero items", 0},
		{"single item", 1},
		{"fewer items than cores", 3},
		{"many items", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var count int64
			Parallelize(tt.items, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt64(&count, 1)
				}
			})
			if count != int64(tt.items) {
				t.Errorf("processed %d items, want %d", count, tt.items)
			}
		})
	}
}

func TestParallelizeNoOverlap(t *testing.T) {
	const items = 500
	seen := make([]int64, items)
	Parallelize(items, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt64(&seen[i], 1)
		}
	})
	for i, c := range seen {
		if c != 1 {
			t.Fatalf("item %d processed %d times, want exactly once", i, c)
		}
	}
}

func TestMapCollectsErrors(t *testing.T) {
	errs := Map(10, func(i int) error {
		if i%3 == 0 {
			return fmt.Errorf("task %d failed", i)
		}
		return nil
	})

	if len(errs) != 10 {
		t.Fatalf("len(errs) = %d, want 10", len(errs))
	}
	for i, err := range errs {
		if i%3 == 0 && err == nil {
			t.Errorf("task %d: expected error, got nil", i)
		}
		if i%3 != 0 && err != nil {
			t.Errorf("task %d: unexpected error %v", i, err)
		}
	}
	if FirstError(errs) == nil {
		t.Error("FirstError should surface a failure")
	}
}

func TestFirstErrorNilOnSuccess(t *testing.T) {
	errs := Map(5, func(int) error { return nil })
	if err := FirstError(errs); err != nil {
		t.Errorf("FirstError = %v, want nil", err)
	}
}
