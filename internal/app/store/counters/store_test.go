package counterstore_test

import (
	"sync"
	"testing"

	counterstore "github.com/aloria/backoffice/internal/app/store/counters"
	"github.com/aloria/backoffice/internal/testutil"
)

func TestStore_Next(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counterstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for want := int64(1); want <= 3; want++ {
		got, err := store.Next(ctx, "invoice:20261014")
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if got != want {
			t.Errorf("Next: got %d, want %d", got, want)
		}
	}

	other, _ := store.Next(ctx, "invoice:20261015")
	if other != 1 {
		t.Errorf("expected independent counter per key, got %d", other)
	}
}

func TestStore_Next_Concurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counterstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Seed so concurrent first calls do not race on the upsert.
	if _, err := store.Next(ctx, "k"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	const n = 20
	var mu sync.Mutex
	seen := make(map[int64]bool)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := store.Next(ctx, "k")
			if err != nil {
				t.Errorf("Next failed: %v", err)
				return
			}
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != n {
		t.Errorf("expected %d distinct values, got %d", n, len(seen))
	}
}
