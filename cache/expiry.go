package cache

import "time"

// expirationKind discriminates the Expiration variants.
type expirationKind int

const (
	expireNever expirationKind = iota
	expireAfter
	expireAt
)

// Expiration describes when a cached record becomes stale.
//
// It is an immutable value with three variants: Never, After a duration,
// or At an absolute instant. The zero value is Never.
type Expiration struct {
	kind expirationKind
	d    time.Duration
	at   time.Time
}

// Never returns an expiration that never becomes stale. Records stored
// with it are only removable by explicit removal or capacity eviction.
func Never() Expiration {
	return Expiration{kind: expireNever}
}

// After returns an expiration d past the record's creation time.
// Zero and negative durations expire immediately.
func After(d time.Duration) Expiration {
	return Expiration{kind: expireAfter, d: d}
}

// At returns an expiration at the absolute instant t.
func At(t time.Time) Expiration {
	return Expiration{kind: expireAt, at: t}
}

// ExpireTime resolves the expiration to an absolute instant, given the
// record's creation time. ok is false for Never.
func (e Expiration) ExpireTime(createdAt time.Time) (expiresAt time.Time, ok bool) {
	switch e.kind {
	case expireAfter:
		return createdAt.Add(e.d), true
	case expireAt:
		return e.at, true
	default:
		return time.Time{}, false
	}
}

// IsNever reports whether the expiration is the Never variant.
func (e Expiration) IsNever() bool {
	return e.kind == expireNever
}

// String returns a human-readable form for logs.
func (e Expiration) String() string {
	switch e.kind {
	case expireAfter:
		return "after " + e.d.String()
	case expireAt:
		return "at " + e.at.Format(time.RFC3339)
	default:
		return "never"
	}
}
