package rates

import (
	"context"
	"errors"
	"testing"
	"time"

	"kopilka/internal/cache"
	"kopilka/internal/core"
)

// fakeRepo is an in-memory Repository that counts reads and can be forced
// to fail.
type fakeRepo struct {
	tables     map[string]core.RateTable
	getCalls   int
	batchCalls int
	failReads  bool
	failWrites bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{tables: make(map[string]core.RateTable)}
}

func (f *fakeRepo) GetExchangeRates(ctx context.Context, date string) (core.RateTable, error) {
	f.getCalls++
	if f.failReads {
		return nil, errors.New("backing store down")
	}
	table, ok := f.tables[date]
	if !ok {
		return nil, errors.New("no rates for date")
	}
	return table, nil
}

func (f *fakeRepo) GetExchangeRatesForDates(ctx context.Context, dates []string) (map[string]core.RateTable, error) {
	f.batchCalls++
	if f.failReads {
		return nil, errors.New("backing store down")
	}
	out := make(map[string]core.RateTable)
	for _, d := range dates {
		if table, ok := f.tables[d]; ok {
			out[d] = table
		}
	}
	return out, nil
}

func (f *fakeRepo) SaveExchangeRates(ctx context.Context, date string, table core.RateTable) error {
	if f.failWrites {
		return errors.New("backing store down")
	}
	f.tables[date] = table
	return nil
}

func newTestStore(repo Repository) *Store {
	return NewStore(repo, cache.NewLRU[core.RateTable](16, time.Hour))
}

func TestStoreGetCachesHits(t *testing.T) {
	repo := newFakeRepo()
	repo.tables["2025-05-01"] = core.RateTable{"RUB": 95.5}
	store := newTestStore(repo)
	ctx := context.Background()

	table, ok := store.Get(ctx, "2025-05-01")
	if !ok || table["RUB"] != 95.5 {
		t.Fatalf("Get = (%v, %v), want table with RUB", table, ok)
	}

	store.Get(ctx, "2025-05-01")
	if repo.getCalls != 1 {
		t.Errorf("backing store queried %d times, want 1", repo.getCalls)
	}
}

func TestStoreGetAbsent(t *testing.T) {
	store := newTestStore(newFakeRepo())

	if _, ok := store.Get(context.Background(), "2025-01-01"); ok {
		t.Fatal("expected absent date to report false")
	}
}

func TestStoreGetDegradesOnRepoError(t *testing.T) {
	repo := newFakeRepo()
	repo.failReads = true
	store := newTestStore(repo)

	if _, ok := store.Get(context.Background(), "2025-01-01"); ok {
		t.Fatal("expected failing backing store to report absence")
	}
}

func TestStoreSavePopulatesCache(t *testing.T) {
	repo := newFakeRepo()
	store := newTestStore(repo)
	ctx := context.Background()

	if err := store.Save(ctx, "2025-05-01", core.RateTable{"GEL": 2.7}); err != nil {
		t.Fatalf("Save() = %v", err)
	}

	// Break the backing store; the saved table must still be readable.
	repo.failReads = true
	table, ok := store.Get(ctx, "2025-05-01")
	if !ok || table["GEL"] != 2.7 {
		t.Fatalf("Get after Save = (%v, %v), want cached table", table, ok)
	}
	if repo.getCalls != 0 {
		t.Errorf("backing store queried %d times, want 0", repo.getCalls)
	}
}

func TestStoreSaveWriteFailureSkipsCache(t *testing.T) {
	repo := newFakeRepo()
	repo.failWrites = true
	store := newTestStore(repo)
	ctx := context.Background()

	if err := store.Save(ctx, "2025-05-01", core.RateTable{"GEL": 2.7}); err == nil {
		t.Fatal("Save() = nil, want error")
	}
	repo.failWrites = false
	if _, ok := store.Get(ctx, "2025-05-01"); ok {
		t.Fatal("failed save must not leave a cache entry")
	}
}

func TestStoreGetBatch(t *testing.T) {
	repo := newFakeRepo()
	repo.tables["2025-04-01"] = core.RateTable{"RUB": 90}
	repo.tables["2025-05-01"] = core.RateTable{"RUB": 95.5}
	store := newTestStore(repo)
	ctx := context.Background()

	// Prime one date through the cache.
	store.Get(ctx, "2025-04-01")

	got := store.GetBatch(ctx, []string{"2025-04-01", "2025-05-01", "2025-06-01"})
	if len(got) != 2 {
		t.Fatalf("GetBatch returned %d tables, want 2", len(got))
	}
	if got["2025-04-01"]["RUB"] != 90 || got["2025-05-01"]["RUB"] != 95.5 {
		t.Fatalf("GetBatch returned wrong tables: %v", got)
	}
	if _, ok := got["2025-06-01"]; ok {
		t.Error("absent date must be omitted from the batch result")
	}
	if repo.batchCalls != 1 {
		t.Errorf("batch query ran %d times, want 1", repo.batchCalls)
	}
}

func TestStoreGetBatchAllCached(t *testing.T) {
	repo := newFakeRepo()
	repo.tables["2025-05-01"] = core.RateTable{"RUB": 95.5}
	store := newTestStore(repo)
	ctx := context.Background()

	store.Get(ctx, "2025-05-01")
	store.GetBatch(ctx, []string{"2025-05-01"})
	if repo.batchCalls != 0 {
		t.Errorf("batch query ran %d times, want 0", repo.batchCalls)
	}
}

func TestStoreClearCache(t *testing.T) {
	repo := newFakeRepo()
	repo.tables["2025-05-01"] = core.RateTable{"RUB": 95.5}
	store := newTestStore(repo)
	ctx := context.Background()

	store.Get(ctx, "2025-05-01")
	store.ClearCache()
	store.Get(ctx, "2025-05-01")
	if repo.getCalls != 2 {
		t.Errorf("backing store queried %d times after clear, want 2", repo.getCalls)
	}
}
