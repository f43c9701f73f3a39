// Package loader reads the layered configuration files from disk.
//
// Files are read in the order given. A file that does not exist is skipped
// without error. Each existing YAML file may contain several documents; they
// are returned in file order, then in document order within the file. Files
// ending in .toml hold exactly one document.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/lc/strata/internal/filesys"
	"github.com/lc/strata/internal/log"
	"github.com/lc/strata/pkg/value"
)

// ErrParse is returned when an existing file cannot be parsed.
var ErrParse = errors.New("parsing config file")

// Document is one parsed document and where it came from.
type Document struct {
	Source string      // path of the file
	Index  int         // position within the file, starting at 0
	Root   value.Value // parsed content
}

// Parser turns file contents into documents.
type Parser interface {
	Parse(name string, data []byte) ([]value.Value, error)
}

// YAMLParser parses multi-document YAML streams. JSON files parse through it
// as well.
type YAMLParser struct{}

var _ Parser = YAMLParser{}

// Parse decodes every document in data.
func (YAMLParser) Parse(_ string, data []byte) ([]value.Value, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var docs []value.Value
	for {
		var raw any
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		v, err := value.FromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", len(docs), err)
		}
		docs = append(docs, v)
	}
}

// Loader reads and parses configuration files.
type Loader struct {
	fs     filesys.ReadFS
	parser Parser
}

// Opt configures a Loader.
type Opt func(l *Loader)

// WithParser replaces the default parser, which chooses between YAML and
// TOML by file extension.
func WithParser(p Parser) Opt {
	return func(l *Loader) {
		l.parser = p
	}
}

// New creates a Loader reading through fsys.
func New(fsys filesys.ReadFS, opts ...Opt) *Loader {
	l := &Loader{
		fs:     fsys,
		parser: ExtParser{},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load reads files from dir in order. Missing files are skipped. Every
// existing file is attempted; if any of them fails, the combined error is
// returned and no documents are.
func (l *Loader) Load(dir string, files []string) ([]Document, error) {
	var (
		docs []Document
		errs error
	)
	for _, name := range files {
		path := filepath.Join(dir, name)

		if _, err := l.fs.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Debug("loader: skipping missing file", "path", path)
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("stat %s: %w", path, err))
			continue
		}

		parsed, err := l.loadFile(path)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		docs = append(docs, parsed...)
	}
	if errs != nil {
		return nil, errs
	}
	return docs, nil
}

func (l *Loader) loadFile(path string) ([]Document, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	roots, err := l.parser.Parse(path, data)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrParse, path, err)
	}

	docs := make([]Document, len(roots))
	for i, root := range roots {
		docs[i] = Document{Source: path, Index: i, Root: root}
	}
	log.Debug("loader: loaded file", "path", path, "documents", len(docs))
	return docs, nil
}

// Roots returns the parsed content of docs in order.
func Roots(docs []Document) []value.Value {
	roots := make([]value.Value, len(docs))
	for i, d := range docs {
		roots[i] = d.Root
	}
	return roots
}
