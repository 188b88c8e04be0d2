package cache

import (
	"net/url"
	"sort"
	"strings"
)

// Key is the canonical identity of a cached resource: a logical path plus
// named string parameters. Two keys built from the same path and parameter
// set are equal regardless of insertion order.
//
// Contract:
// - Determinism: String is a pure function of (path, params); no hidden state.
// - Immutability: the parameter map is copied at construction.
type Key struct {
	path      string
	canonical string
}

// NewKey builds a key from a logical resource path and its parameters.
// Parameter names are sorted lexicographically before joining, so maps
// that are permutations of the same pairs produce equal keys.
func NewKey(path string, params map[string]string) (Key, error) {
	if path == "" || strings.TrimSpace(path) == "" {
		return Key{}, ErrInvalidKey
	}
	if strings.ContainsAny(path, "\n\r") {
		return Key{}, ErrInvalidKey
	}

	canonical := path
	if len(params) > 0 {
		names := make([]string, 0, len(params))
		for name := range params {
			names = append(names, name)
		}
		sort.Strings(names)

		var b strings.Builder
		b.WriteString(path)
		b.WriteByte('?')
		for i, name := range names {
			if i > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(name))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(params[name]))
		}
		canonical = b.String()
	}

	if len(canonical) > MaxKeyLength {
		return Key{}, ErrKeyTooLong
	}

	return Key{path: path, canonical: canonical}, nil
}

// Path returns the logical resource path the key was built from.
func (k Key) Path() string {
	return k.path
}

// String returns the canonical string form of the key.
func (k Key) String() string {
	return k.canonical
}

// IsZero reports whether the key is the zero value (not built by NewKey).
func (k Key) IsZero() bool {
	return k.canonical == ""
}
