// Package envvar abstracts the process environment so that callers can swap
// in a fixed set of variables under test instead of mutating real process
// state.
package envvar

import (
	"os"
	"strings"
)

// Lookuper reads environment variables.
type Lookuper interface {
	LookupEnv(key string) (string, bool)
}

// LookupFunc adapts a function to the Lookuper interface.
type LookupFunc func(key string) (string, bool)

// LookupEnv calls f(key).
func (f LookupFunc) LookupEnv(key string) (string, bool) { return f(key) }

// OS returns a Lookuper backed by the live process environment.
func OS() Lookuper { return LookupFunc(os.LookupEnv) }

// Map is a fixed environment, handy for tests.
type Map map[string]string

// LookupEnv returns the entry for key.
func (m Map) LookupEnv(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

var (
	_ Lookuper = LookupFunc(nil)
	_ Lookuper = Map(nil)
)

// Get returns the value of key, or "" when unset.
func Get(l Lookuper, key string) string {
	v, _ := l.LookupEnv(key)
	return v
}

// List splits a space-delimited variable into its fields. It returns nil
// when the variable is unset or blank.
func List(l Lookuper, key string) []string {
	fields := strings.Fields(Get(l, key))
	if len(fields) == 0 {
		return nil
	}
	return fields
}
