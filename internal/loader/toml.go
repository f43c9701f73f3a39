package loader

import (
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/lc/strata/pkg/value"
)

// TOMLParser parses a TOML file as a single document. Local dates and times,
// which have no zone, become their TOML text.
type TOMLParser struct{}

var _ Parser = TOMLParser{}

// Parse decodes data. An empty file yields no documents.
func (TOMLParser) Parse(_ string, data []byte) ([]value.Value, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	v, err := value.FromAny(localToText(raw))
	if err != nil {
		return nil, err
	}
	return []value.Value{v}, nil
}

func localToText(x any) any {
	switch t := x.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = localToText(child)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = localToText(child)
		}
		return t
	case toml.LocalDate:
		return t.String()
	case toml.LocalTime:
		return t.String()
	case toml.LocalDateTime:
		return t.String()
	default:
		return x
	}
}

// ExtParser picks a parser by file extension: TOML for .toml, YAML for
// everything else, which covers .yml, .yaml and .json.
type ExtParser struct{}

var _ Parser = ExtParser{}

// Parse decodes data with the parser matching name.
func (ExtParser) Parse(name string, data []byte) ([]value.Value, error) {
	if strings.EqualFold(filepath.Ext(name), ".toml") {
		return TOMLParser{}.Parse(name, data)
	}
	return YAMLParser{}.Parse(name, data)
}
