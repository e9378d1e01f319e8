package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	chaos "github.com/marben/chaos_ifs"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open("  "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestPutListKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	for _, id := range []string{"square", "fern", "triangle"} {
		if err := store.Put(ctx, chaos.RawDescriptor{ID: id, Type: string(chaos.ChaosGame)}); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}

	raws, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []string
	for _, r := range raws {
		ids = append(ids, r.ID)
	}
	if len(ids) != 3 || ids[0] != "square" || ids[1] != "fern" || ids[2] != "triangle" {
		t.Fatalf("ids = %v, want [square fern triangle]", ids)
	}
}

func TestPutReplacesInPlace(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.Put(ctx, chaos.RawDescriptor{ID: "a", Name: "first"}); err != nil {
		t.Fatalf("put a: %v", err)
	}
	if err := store.Put(ctx, chaos.RawDescriptor{ID: "b"}); err != nil {
		t.Fatalf("put b: %v", err)
	}
	if err := store.Put(ctx, chaos.RawDescriptor{ID: "a", Name: "second", Ratio: 0.25}); err != nil {
		t.Fatalf("replace a: %v", err)
	}

	raws, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("len = %d, want 2", len(raws))
	}
	if raws[0].ID != "a" || raws[0].Name != "second" || raws[0].Ratio != 0.25 {
		t.Fatalf("first = %+v, want replaced a", raws[0])
	}
}

func TestGetRoundTripsRules(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	in := chaos.RawDescriptor{
		ID:   "fern",
		Type: string(chaos.ChaosAffine),
		AffineRules: []chaos.AffineRule{
			{D: 0.16, P: 0.01},
			{A: 0.85, B: 0.04, C: -0.04, D: 0.85, F: 1.6, P: 0.99},
		},
		Coloring: &chaos.Coloring{Scheme: chaos.SchemeCycle},
	}
	if err := store.Put(ctx, in); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, "fern")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.AffineRules) != 2 || got.AffineRules[1].F != 1.6 {
		t.Fatalf("rules = %+v", got.AffineRules)
	}
	if got.Coloring == nil || got.Coloring.Scheme != chaos.SchemeCycle {
		t.Fatalf("coloring = %+v, want cycle", got.Coloring)
	}
}

func TestGetDeleteMissing(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if _, err := store.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get err = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete err = %v, want ErrNotFound", err)
	}

	if err := store.Put(ctx, chaos.RawDescriptor{ID: "x"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Delete(ctx, "x"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	raws, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(raws) != 0 {
		t.Fatalf("len = %d, want 0", len(raws))
	}
}

func TestPutRequiresID(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.Put(context.Background(), chaos.RawDescriptor{}); err == nil {
		t.Fatal("expected id error")
	}
}
