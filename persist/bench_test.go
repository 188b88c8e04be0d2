package persist

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonwraymond/apicache/cache"
)

func openBenchStore(b *testing.B) *Store {
	b.Helper()
	s, err := Open(filepath.Join(b.TempDir(), "bench.db"), Options{})
	if err != nil {
		b.Fatalf("Open failed: %v", err)
	}
	b.Cleanup(func() { s.Close() })
	return s
}

func BenchmarkStore_PutRecord(b *testing.B) {
	s := openBenchStore(b)
	ctx := context.Background()
	data := []byte(`{"id":1,"name":"benchmark"}`)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.PutRecord(ctx, "users", fmt.Sprintf("%d", i%1000), data, cache.After(time.Hour)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkStore_GetRecord(b *testing.B) {
	s := openBenchStore(b)
	ctx := context.Background()
	data := []byte(`{"id":1,"name":"benchmark"}`)
	for i := 0; i < 1000; i++ {
		if err := s.PutRecord(ctx, "users", fmt.Sprintf("%d", i), data, cache.After(time.Hour)); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.GetRecord(ctx, "users", fmt.Sprintf("%d", i%1000)); err != nil {
			b.Fatal(err)
		}
	}
}
