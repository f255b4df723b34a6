package counters_test

import (
	"sync"
	"testing"

	"github.com/fieldops/movelog/internal/app/store/counters"
	"github.com/fieldops/movelog/internal/testutil"
)

func TestStore_Next_StartsAtOne(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counters.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	n, err := store.Next(ctx, counters.MovementSeq)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if n != 1 {
		t.Errorf("fresh counter should start at 1, got %d", n)
	}
}

func TestStore_Next_Monotonic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counters.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for want := int64(1); want <= 5; want++ {
		n, err := store.Next(ctx, counters.MovementSeq)
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if n != want {
			t.Errorf("Next = %d, want %d", n, want)
		}
	}
}

func TestStore_Next_IndependentCounters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counters.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Next(ctx, counters.MovementSeq); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	n, err := store.Next(ctx, counters.UserIDSeq)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if n != 1 {
		t.Errorf("counters should not share state, got %d", n)
	}
}

func TestStore_Next_NoDuplicatesUnderConcurrency(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counters.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	const workers = 10
	var mu sync.Mutex
	seen := make(map[int64]bool, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := store.Next(ctx, counters.MovementSeq)
			if err != nil {
				t.Errorf("Next failed: %v", err)
				return
			}
			mu.Lock()
			if seen[n] {
				t.Errorf("duplicate sequence value %d", n)
			}
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != workers {
		t.Errorf("expected %d distinct values, got %d", workers, len(seen))
	}
}

func TestStore_Peek(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counters.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	n, err := store.Peek(ctx, counters.MovementSeq)
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Peek on fresh counter = %d, want 1", n)
	}

	if _, err := store.Next(ctx, counters.MovementSeq); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	n, err = store.Peek(ctx, counters.MovementSeq)
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Peek after one Next = %d, want 2", n)
	}

	// Peek does not consume.
	n, err = store.Next(ctx, counters.MovementSeq)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Next after Peek = %d, want 2", n)
	}
}
