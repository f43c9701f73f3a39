// Package keypath parses configuration paths and walks them through a
// value tree.
//
// A path is a list of keys separated by '.', ':' or '/'. The three separators
// are interchangeable, so "example.DATABASE_URL", "example:DATABASE_URL" and
// "example/DATABASE_URL" name the same setting.
package keypath

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lc/strata/pkg/value"
)

var (
	// ErrNotFound is returned when a key is absent from a map or a list
	// index is out of range.
	ErrNotFound = errors.New("key not found")
	// ErrNotTraversable is returned when a path continues below a scalar.
	ErrNotTraversable = errors.New("value is not traversable")
)

var _separators = regexp.MustCompile(`[.:/]`)

// Path is a parsed configuration path.
type Path []string

// Parse splits raw on every separator. An empty string yields an empty Path.
// Empty segments are kept, so "a..b" looks up the key "" between a and b.
func Parse(raw string) Path {
	if raw == "" {
		return nil
	}
	return Path(_separators.Split(raw, -1))
}

// Last returns the final key, or "" for an empty Path.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// String joins the keys with '.'.
func (p Path) String() string { return strings.Join(p, ".") }

// ResolveError reports where a walk stopped.
type ResolveError struct {
	Path  Path
	Key   string // key that could not be resolved
	Depth int    // index of Key within Path
	Err   error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolving %q at key %q: %v", e.Path.String(), e.Key, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// Walk follows p from root. Maps are indexed by key and lists by a
// non-negative decimal index. An empty Path returns root itself.
func Walk(root value.Value, p Path) (value.Value, error) {
	cur := root
	for depth, key := range p {
		next, err := step(cur, key)
		if err != nil {
			return value.Value{}, &ResolveError{Path: p, Key: key, Depth: depth, Err: err}
		}
		cur = next
	}
	return cur, nil
}

func step(cur value.Value, key string) (value.Value, error) {
	switch cur.Kind() {
	case value.Map:
		if next, ok := cur.Get(key); ok {
			return next, nil
		}
		return value.Value{}, ErrNotFound
	case value.List:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 {
			return value.Value{}, fmt.Errorf("%w: %q is not a list index", ErrNotFound, key)
		}
		if next, ok := cur.Index(i); ok {
			return next, nil
		}
		return value.Value{}, fmt.Errorf("%w: index %d out of range [0,%d)", ErrNotFound, i, cur.Len())
	default:
		return value.Value{}, fmt.Errorf("%w: %s", ErrNotTraversable, cur.Kind())
	}
}
