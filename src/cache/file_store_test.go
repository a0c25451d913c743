package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"industry-analyze/src/logger"
)

type payload struct {
	Symbol string `json:"symbol"`
	Value  int    `json:"value"`
}

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.json")
	store, err := NewFileStore(path, logger.NewLogger("FileStore-test"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return store, path
}

// -----------------------------------------------------------------------------

func TestFileStoreRoundtrip(t *testing.T) {
	store, _ := newTestStore(t)

	in := payload{Symbol: "600519", Value: 42}
	if err := store.Put("historical_600519_daily", in); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var out payload
	storedAt, ok := store.Get("historical_600519_daily", &out)
	if !ok {
		t.Fatal("Get: entry missing after Put")
	}
	if out != in {
		t.Errorf("Get = %+v, want %+v", out, in)
	}
	if storedAt.IsZero() {
		t.Error("storedAt not stamped")
	}
	if time.Since(storedAt) > time.Minute {
		t.Errorf("storedAt unexpectedly old: %v", storedAt)
	}
}

// -----------------------------------------------------------------------------

func TestFileStoreMiss(t *testing.T) {
	store, _ := newTestStore(t)

	var out payload
	if _, ok := store.Get("missing", &out); ok {
		t.Error("Get on absent key should miss")
	}
}

// -----------------------------------------------------------------------------

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	store, path := newTestStore(t)
	if err := store.Put("key", payload{Symbol: "600519", Value: 7}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	reopened, err := NewFileStore(path, logger.NewLogger("FileStore-test"))
	if err != nil {
		t.Fatalf("NewFileStore reopen: %v", err)
	}

	var out payload
	if _, ok := reopened.Get("key", &out); !ok {
		t.Fatal("entry lost across instances")
	}
	if out.Value != 7 {
		t.Errorf("Value = %d, want 7", out.Value)
	}
}

// -----------------------------------------------------------------------------

func TestFileStoreDelete(t *testing.T) {
	store, _ := newTestStore(t)
	store.Put("key", payload{})

	if !store.Delete("key") {
		t.Error("Delete existing key should report true")
	}
	if store.Delete("key") {
		t.Error("Delete absent key should report false")
	}

	var out payload
	if _, ok := store.Get("key", &out); ok {
		t.Error("entry survived Delete")
	}
}

// -----------------------------------------------------------------------------

func TestFileStoreKeysPrefix(t *testing.T) {
	store, _ := newTestStore(t)
	store.Put("historical_600519_daily", payload{})
	store.Put("historical_000001_daily", payload{})
	store.Put("stock_cache_600519", payload{})

	keys := store.Keys("historical_")
	if len(keys) != 2 {
		t.Fatalf("Keys(historical_) = %v, want 2 entries", keys)
	}
	for _, k := range keys {
		if k != "historical_600519_daily" && k != "historical_000001_daily" {
			t.Errorf("unexpected key %q", k)
		}
	}

	if all := store.Keys(""); len(all) != 3 {
		t.Errorf("Keys(\"\") = %v, want 3 entries", all)
	}
}

// -----------------------------------------------------------------------------

func TestFileStoreClear(t *testing.T) {
	store, _ := newTestStore(t)
	store.Put("a", payload{})
	store.Put("b", payload{})

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if keys := store.Keys(""); len(keys) != 0 {
		t.Errorf("keys after Clear = %v, want none", keys)
	}
}

// -----------------------------------------------------------------------------

func TestFileStoreInfo(t *testing.T) {
	store, _ := newTestStore(t)
	store.Put("b", payload{Symbol: "000001"})
	store.Put("a", payload{Symbol: "600519"})

	info := store.Info()
	if len(info) != 2 {
		t.Fatalf("Info = %d entries, want 2", len(info))
	}
	if info[0].Key != "a" || info[1].Key != "b" {
		t.Errorf("Info not sorted by key: %+v", info)
	}
	for _, e := range info {
		if e.SizeBytes <= 0 {
			t.Errorf("entry %q has no size", e.Key)
		}
	}
}

// -----------------------------------------------------------------------------

func TestFileStoreMalformedFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	store, err := NewFileStore(path, logger.NewLogger("FileStore-test"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	var out payload
	if _, ok := store.Get("key", &out); ok {
		t.Error("malformed file should read as empty cache")
	}

	// A write must recover the file
	if err := store.Put("key", payload{Value: 1}); err != nil {
		t.Fatalf("Put after malformed file: %v", err)
	}
	if _, ok := store.Get("key", &out); !ok {
		t.Error("entry missing after recovery write")
	}
}
