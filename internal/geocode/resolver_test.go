package geocode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type stubGeocoder struct {
	calls   int
	results map[string]Result
	err     error
}

func (s *stubGeocoder) Geocode(_ context.Context, query string) (Result, error) {
	s.calls++
	if s.err != nil {
		return Result{}, s.err
	}
	return s.results[query], nil
}

func TestResolverCachesAnswers(t *testing.T) {
	stub := &stubGeocoder{results: map[string]Result{"Lyon": {PostalCode: "69001", Found: true}}}
	r := NewResolver(stub, NewCache())
	ctx := context.Background()

	res, cached, err := r.Resolve(ctx, "Lyon")
	if err != nil || cached || res.PostalCode != "69001" {
		t.Fatalf("first Resolve = %+v, %v, %v", res, cached, err)
	}

	res, cached, err = r.Resolve(ctx, "  lyon ")
	if err != nil || !cached || res.PostalCode != "69001" {
		t.Fatalf("second Resolve = %+v, %v, %v", res, cached, err)
	}

	// Misses are remembered for the rest of the run.
	if _, _, err := r.Resolve(ctx, "Atlantis"); err != nil {
		t.Fatal(err)
	}
	if _, cached, _ := r.Resolve(ctx, "Atlantis"); !cached {
		t.Fatal("miss was not cached")
	}

	if stub.calls != 2 {
		t.Fatalf("geocoder calls = %d, want 2", stub.calls)
	}
}

func TestResolverDoesNotCacheErrors(t *testing.T) {
	stub := &stubGeocoder{err: errors.New("boom")}
	cache := NewCache()
	r := NewResolver(stub, cache)

	if _, _, err := r.Resolve(context.Background(), "Lyon"); err == nil {
		t.Fatal("expected error")
	}
	if cache.Len() != 0 {
		t.Fatalf("cache has %d entries after error", cache.Len())
	}
}

func TestResolverWithoutCache(t *testing.T) {
	stub := &stubGeocoder{results: map[string]Result{"Nice": {PostalCode: "06000", Found: true}}}
	r := NewResolver(stub, nil)

	for i := 0; i < 2; i++ {
		if _, cached, err := r.Resolve(context.Background(), "Nice"); err != nil || cached {
			t.Fatalf("Resolve = cached %v, err %v", cached, err)
		}
	}
	if stub.calls != 2 {
		t.Fatalf("calls = %d, want 2", stub.calls)
	}
}

func TestCacheFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "geocode.json")

	empty, err := LoadCache(path)
	if err != nil || empty.Len() != 0 {
		t.Fatalf("LoadCache missing file = %d entries, %v", empty.Len(), err)
	}

	c := NewCache()
	c.Set("Marseille", CacheEntry{PostalCode: "13001", Found: true})
	if err := SaveCache(path, c); err != nil {
		t.Fatalf("SaveCache: %v", err)
	}

	loaded, err := LoadCache(path)
	if err != nil {
		t.Fatalf("LoadCache: %v", err)
	}
	entry, ok := loaded.Get("MARSEILLE")
	if !ok || entry.PostalCode != "13001" || entry.Query != "Marseille" {
		t.Fatalf("entry = %+v, ok %v", entry, ok)
	}

	if err := SaveCache("", c); err != nil {
		t.Fatalf("SaveCache with blank path: %v", err)
	}
}

func TestMissesAreRetriedOnNextRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geocode.json")
	stub := &stubGeocoder{results: map[string]Result{"Lyon": {PostalCode: "69001", Found: true}}}
	ctx := context.Background()

	first, err := LoadCache(path)
	if err != nil {
		t.Fatalf("LoadCache: %v", err)
	}
	r := NewResolver(stub, first)
	for _, q := range []string{"Atlantis", "Lyon"} {
		if _, _, err := r.Resolve(ctx, q); err != nil {
			t.Fatalf("Resolve %q: %v", q, err)
		}
	}
	if err := SaveCache(path, first); err != nil {
		t.Fatalf("SaveCache: %v", err)
	}

	second, err := LoadCache(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if second.Len() != 1 {
		t.Fatalf("reloaded cache has %d entries, want only the hit", second.Len())
	}
	r = NewResolver(stub, second)

	if _, cached, err := r.Resolve(ctx, "Atlantis"); err != nil || cached {
		t.Fatalf("second run miss: cached %v, err %v", cached, err)
	}
	if res, cached, err := r.Resolve(ctx, "Lyon"); err != nil || !cached || res.PostalCode != "69001" {
		t.Fatalf("second run hit = %+v, cached %v, err %v", res, cached, err)
	}
	if stub.calls != 3 {
		t.Fatalf("provider calls = %d, want 3", stub.calls)
	}
}

func TestLoadCacheDropsPersistedMisses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geocode.json")
	payload := `{"entries":{"atlantis":{"query":"Atlantis","found":false},"nice":{"query":"Nice","postal_code":"06000","found":true}}}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadCache(path)
	if err != nil {
		t.Fatalf("LoadCache: %v", err)
	}
	if _, ok := c.Get("Atlantis"); ok {
		t.Fatal("persisted miss was loaded")
	}
	if e, ok := c.Get("nice"); !ok || e.PostalCode != "06000" {
		t.Fatalf("hit = %+v, ok %v", e, ok)
	}
}
