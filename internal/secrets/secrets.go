// Package secrets expands placeholders embedded in configuration strings.
//
// A placeholder has the form
//
//	${scheme:reference}
//	${scheme:reference~true}
//
// where the optional ~true / ~false suffix asks the resolver to decrypt the
// referenced value. Placeholders are handed to the Resolver registered for
// their scheme; placeholders whose scheme has no resolver are left verbatim,
// so a file can carry ${ssm:/aws/reference/secretsmanager/sentry~true}
// before a resolver for it is plugged in.
//
// Two resolvers ship with strata: "env", which reads the process
// environment, and "file", which reads a file such as a mounted container
// secret. Remote secret stores are deliberately left to callers.
package secrets

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lc/strata/internal/envvar"
	"github.com/lc/strata/internal/filesys"
	"github.com/lc/strata/pkg/value"
)

var (
	// ErrUnresolved is returned when a registered resolver fails.
	ErrUnresolved = errors.New("unresolved placeholder")
	// ErrNotFound is returned by resolvers when the reference does not exist.
	ErrNotFound = errors.New("secret not found")
)

var _placeholder = regexp.MustCompile(`\$\{([A-Za-z][A-Za-z0-9+.\-]*):([^}~]+)(?:~(true|false))?\}`)

// Resolver looks up the value a placeholder refers to.
type Resolver interface {
	// Scheme is the placeholder prefix handled by the resolver, e.g. "env".
	Scheme() string
	// Resolve returns the value of ref.
	Resolve(ref string, decrypt bool) (string, error)
}

// Placeholder is one parsed ${scheme:ref} occurrence.
type Placeholder struct {
	Raw     string
	Scheme  string
	Ref     string
	Decrypt bool
}

// Find returns every placeholder in s, in order.
func Find(s string) []Placeholder {
	matches := _placeholder.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Placeholder, len(matches))
	for i, m := range matches {
		out[i] = Placeholder{Raw: m[0], Scheme: m[1], Ref: m[2], Decrypt: m[3] == "true"}
	}
	return out
}

// Registry dispatches placeholders to resolvers by scheme.
type Registry struct {
	resolvers map[string]Resolver
}

// NewRegistry returns a Registry holding rs. A later resolver replaces an
// earlier one with the same scheme.
func NewRegistry(rs ...Resolver) *Registry {
	r := &Registry{resolvers: make(map[string]Resolver, len(rs))}
	for _, res := range rs {
		r.Register(res)
	}
	return r
}

// Register adds or replaces the resolver for res.Scheme().
func (r *Registry) Register(res Resolver) {
	r.resolvers[strings.ToLower(res.Scheme())] = res
}

// Has reports whether a resolver is registered for scheme.
func (r *Registry) Has(scheme string) bool {
	_, ok := r.resolvers[strings.ToLower(scheme)]
	return ok
}

// Expand replaces every placeholder of s that has a registered resolver.
func (r *Registry) Expand(s string) (string, error) {
	if r == nil || len(r.resolvers) == 0 || !strings.Contains(s, "${") {
		return s, nil
	}

	var firstErr error
	out := _placeholder.ReplaceAllStringFunc(s, func(raw string) string {
		if firstErr != nil {
			return raw
		}
		m := _placeholder.FindStringSubmatch(raw)
		res, ok := r.resolvers[strings.ToLower(m[1])]
		if !ok {
			return raw
		}
		resolved, err := res.Resolve(m[2], m[3] == "true")
		if err != nil {
			firstErr = fmt.Errorf("%w %s: %w", ErrUnresolved, raw, err)
			return raw
		}
		return resolved
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// ExpandValue expands placeholders in every string of v. v itself is never
// modified; containers are copied only along paths where a string changed.
func (r *Registry) ExpandValue(v value.Value) (value.Value, error) {
	if r == nil || len(r.resolvers) == 0 {
		return v, nil
	}
	out, _, err := r.expand(v)
	return out, err
}

func (r *Registry) expand(v value.Value) (value.Value, bool, error) {
	switch v.Kind() {
	case value.String:
		s, err := r.Expand(v.Str())
		if err != nil {
			return v, false, err
		}
		if s == v.Str() {
			return v, false, nil
		}
		return value.OfString(s), true, nil
	case value.List:
		items := v.Items()
		var out []value.Value
		for i, item := range items {
			nv, changed, err := r.expand(item)
			if err != nil {
				return v, false, fmt.Errorf("[%d]: %w", i, err)
			}
			if changed && out == nil {
				out = make([]value.Value, len(items))
				copy(out, items)
			}
			if out != nil {
				out[i] = nv
			}
		}
		if out == nil {
			return v, false, nil
		}
		return value.OfList(out...), true, nil
	case value.Map:
		var out map[string]value.Value
		for _, k := range v.Keys() {
			child, _ := v.Get(k)
			nv, changed, err := r.expand(child)
			if err != nil {
				return v, false, fmt.Errorf("%s: %w", k, err)
			}
			if !changed {
				continue
			}
			if out == nil {
				out = make(map[string]value.Value, v.Len())
				for _, kk := range v.Keys() {
					out[kk], _ = v.Get(kk)
				}
			}
			out[k] = nv
		}
		if out == nil {
			return v, false, nil
		}
		return value.OfMap(out), true, nil
	default:
		return v, false, nil
	}
}

// EnvResolver resolves ${env:NAME} from an environment.
type EnvResolver struct {
	env envvar.Lookuper
}

var _ Resolver = (*EnvResolver)(nil)

// NewEnvResolver returns a resolver reading env.
func NewEnvResolver(env envvar.Lookuper) *EnvResolver {
	return &EnvResolver{env: env}
}

// Scheme returns "env".
func (*EnvResolver) Scheme() string { return "env" }

// Resolve returns the variable named ref. Unset variables are ErrNotFound;
// a set but empty variable resolves to "".
func (e *EnvResolver) Resolve(ref string, _ bool) (string, error) {
	v, ok := e.env.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("%w: environment variable %s", ErrNotFound, ref)
	}
	return v, nil
}

// FileResolver resolves ${file:path} from the content of a file. Relative
// paths are taken from the base directory.
type FileResolver struct {
	fs   filesys.ReadFS
	base string
}

var _ Resolver = (*FileResolver)(nil)

// NewFileResolver returns a resolver reading through fsys relative to base.
func NewFileResolver(fsys filesys.ReadFS, base string) *FileResolver {
	return &FileResolver{fs: fsys, base: base}
}

// Scheme returns "file".
func (*FileResolver) Scheme() string { return "file" }

// Resolve returns the file content with one trailing newline removed.
func (f *FileResolver) Resolve(ref string, _ bool) (string, error) {
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.base, path)
	}
	data, err := f.fs.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	s := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(s, "\r"), nil
}
