package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/apicache/cache"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"), Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_PutGetRemove(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	data := []byte(`{"id":1}`)
	if err := s.PutRecord(ctx, "users", "1", data, cache.Never()); err != nil {
		t.Fatalf("PutRecord failed: %v", err)
	}

	got, err := s.GetRecord(ctx, "users", "1")
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("GetRecord = %q, want %q", got, data)
	}

	if err := s.Remove(ctx, "users", "1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := s.GetRecord(ctx, "users", "1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRecord after Remove = %v, want ErrNotFound", err)
	}

	// Remove is idempotent.
	if err := s.Remove(ctx, "users", "1"); err != nil {
		t.Errorf("second Remove failed: %v", err)
	}
}

func TestStore_UpsertOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutRecord(ctx, "users", "1", []byte("old"), cache.Never()); err != nil {
		t.Fatalf("PutRecord failed: %v", err)
	}
	if err := s.PutRecord(ctx, "users", "1", []byte("new"), cache.Never()); err != nil {
		t.Fatalf("second PutRecord failed: %v", err)
	}

	got, err := s.GetRecord(ctx, "users", "1")
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if string(got) != "new" {
		t.Errorf("GetRecord = %q, want %q", got, "new")
	}

	// At most one live record per (collection, primary key).
	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestStore_ExpiredRecordIsReclaimedOnRead(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutRecord(ctx, "users", "1", []byte("v"), cache.At(time.Now().Add(-time.Minute))); err != nil {
		t.Fatalf("PutRecord failed: %v", err)
	}

	// Expired: distinct from not-found, and deleted as a side effect.
	if _, err := s.GetRecord(ctx, "users", "1"); !errors.Is(err, ErrExpired) {
		t.Fatalf("GetRecord = %v, want ErrExpired", err)
	}
	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Count = %d, want 0 after lazy reclaim", n)
	}

	// A second read reports plain absence.
	if _, err := s.GetRecord(ctx, "users", "1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second GetRecord = %v, want ErrNotFound", err)
	}
}

func TestStore_RecordKeepsExpired(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutRecord(ctx, "users", "1", []byte("stale"), cache.At(time.Now().Add(-time.Minute))); err != nil {
		t.Fatalf("PutRecord failed: %v", err)
	}

	rec, err := s.Record(ctx, "users", "1")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if !rec.Expired(time.Now()) {
		t.Error("record should report expired")
	}
	if string(rec.Data) != "stale" {
		t.Errorf("Record data = %q, want %q", rec.Data, "stale")
	}

	// Side-effect free: the row is still there for stale fallback.
	n, _ := s.Count(ctx)
	if n != 1 {
		t.Errorf("Count = %d, want 1 after Record read", n)
	}
}

func TestStore_TTL(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutRecord(ctx, "users", "1", []byte("v"), cache.After(time.Hour)); err != nil {
		t.Fatalf("PutRecord failed: %v", err)
	}
	if _, err := s.GetRecord(ctx, "users", "1"); err != nil {
		t.Errorf("record within its TTL should be retrievable: %v", err)
	}

	rec, err := s.Record(ctx, "users", "1")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if rec.ExpiresAt.IsZero() {
		t.Error("After expiration should resolve to an instant")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestStore_ClearExpired(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	past := cache.At(time.Now().Add(-100 * time.Millisecond))
	if err := s.PutRecord(ctx, "users", "1", []byte("a"), past); err != nil {
		t.Fatal(err)
	}
	if err := s.PutRecord(ctx, "users", "2", []byte("b"), past); err != nil {
		t.Fatal(err)
	}
	if err := s.PutRecord(ctx, "users", "3", []byte("c"), cache.Never()); err != nil {
		t.Fatal(err)
	}

	removed, err := s.ClearExpired(ctx)
	if err != nil {
		t.Fatalf("ClearExpired failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("ClearExpired removed %d, want 2", removed)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}

	// The Never record survives any number of sweeps.
	for i := 0; i < 3; i++ {
		if _, err := s.ClearExpired(ctx); err != nil {
			t.Fatalf("sweep %d failed: %v", i, err)
		}
	}
	if _, err := s.GetRecord(ctx, "users", "3"); err != nil {
		t.Errorf("Never record should survive sweeps: %v", err)
	}
}

func TestStore_Clear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_ = s.PutRecord(ctx, "users", "1", []byte("a"), cache.Never())
	_ = s.PutRecord(ctx, "posts", "1", []byte("b"), cache.Never())

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Count = %d, want 0 after Clear", n)
	}

	// Clear is idempotent.
	if err := s.Clear(ctx); err != nil {
		t.Errorf("second Clear failed: %v", err)
	}
}

func TestStore_InvalidRecord(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutRecord(ctx, "", "1", []byte("v"), cache.Never()); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("PutRecord with empty collection = %v, want ErrInvalidRecord", err)
	}
	if _, err := s.GetRecord(ctx, "users", ""); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("GetRecord with empty pk = %v, want ErrInvalidRecord", err)
	}
}

func TestStore_ClosedSurfacesOnEveryOperation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	s.Close()

	if err := s.PutRecord(ctx, "users", "1", []byte("v"), cache.Never()); !errors.Is(err, ErrClosed) {
		t.Errorf("PutRecord = %v, want ErrClosed", err)
	}
	if _, err := s.GetRecord(ctx, "users", "1"); !errors.Is(err, ErrClosed) {
		t.Errorf("GetRecord = %v, want ErrClosed", err)
	}
	if _, err := s.ClearExpired(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("ClearExpired = %v, want ErrClosed", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Ping = %v, want ErrClosed", err)
	}

	// Close is idempotent.
	if err := s.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	s, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.PutRecord(ctx, "users", "1", []byte("persisted"), cache.Never()); err != nil {
		t.Fatalf("PutRecord failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetRecord(ctx, "users", "1")
	if err != nil {
		t.Fatalf("GetRecord after reopen failed: %v", err)
	}
	if string(got) != "persisted" {
		t.Errorf("GetRecord = %q, want %q", got, "persisted")
	}
}

func TestStore_ConcurrentWriters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	const writers = 20

	var wg sync.WaitGroup
	errs := make([]error, writers)
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(id int) {
			defer wg.Done()
			pk := fmt.Sprintf("%d", id)
			errs[id] = s.PutRecord(ctx, "users", pk, []byte(pk), cache.After(time.Hour))
		}(i)
	}
	wg.Wait()

	for id, err := range errs {
		if err != nil {
			t.Errorf("writer %d failed: %v", id, err)
		}
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != writers {
		t.Errorf("Count = %d, want %d", n, writers)
	}

	for i := 0; i < writers; i++ {
		pk := fmt.Sprintf("%d", i)
		got, err := s.GetRecord(ctx, "users", pk)
		if err != nil {
			t.Errorf("GetRecord(%s) failed: %v", pk, err)
			continue
		}
		if string(got) != pk {
			t.Errorf("GetRecord(%s) = %q", pk, got)
		}
	}
}
