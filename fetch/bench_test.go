package fetch

import (
	"context"
	"fmt"
	"testing"
)

func BenchmarkDecorator_FetchHit(b *testing.B) {
	d := NewDecorator(NewCoordinator(DefaultConfig()))
	req := Request{Resource: "users", Path: "/users/42", Idempotent: true}
	ctx := context.Background()

	fetchOnce := func(_ context.Context) ([]byte, error) {
		return []byte(`{"id":42}`), nil
	}
	if _, err := d.Fetch(ctx, req, fetchOnce); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := d.Fetch(ctx, req, fetchOnce); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecorator_FetchMiss(b *testing.B) {
	d := NewDecorator(NewCoordinator(DefaultConfig()))
	ctx := context.Background()
	payload := []byte(`{"id":42}`)

	fetchFn := func(_ context.Context) ([]byte, error) {
		return payload, nil
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		req := Request{
			Resource:   "users",
			Path:       fmt.Sprintf("/users/%d", i),
			Idempotent: true,
		}
		if _, err := d.Fetch(ctx, req, fetchFn); err != nil {
			b.Fatal(err)
		}
	}
}
