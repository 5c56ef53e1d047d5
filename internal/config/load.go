package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file syntax.
type Format int

const (
	// FormatTOML is the default syntax.
	FormatTOML Format = iota
	// FormatYAML is selected by a .yaml or .yml extension.
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "toml"
}

// FormatOf picks the syntax from the file extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Load overlays the file at path on Default and validates the result. An
// empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Parse(path, data, FormatOf(path))
}

// Parse overlays data on Default and validates the result. Source names
// the data in errors. Unknown keys are rejected.
func Parse(source string, data []byte, format Format) (*Config, error) {
	cfg := Default()

	var err error
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err = dec.Decode(cfg); errors.Is(err, io.EOF) {
			// An empty document keeps the defaults.
			err = nil
		}
	default:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(cfg)
	}
	if err != nil {
		return nil, parseError(source, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return cfg, nil
}

func parseError(source string, err error) error {
	pe := &ParseError{Path: source, Message: err.Error(), Err: err}

	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		pe.Line, pe.Column = derr.Position()
	}
	var serr *toml.StrictMissingError
	if errors.As(err, &serr) {
		pe.Message = "unknown keys: " + strings.ReplaceAll(serr.String(), "\n", " ")
		pe.Err = fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return pe
}

// Encode renders cfg in the given syntax.
func Encode(cfg *Config, format Format) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	default:
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// envMapping maps environment variables to the settings they override.
var envMapping = map[string]func(*Config, string){
	"SCROLLER_LOG_LEVEL":        func(c *Config, v string) { c.Log.Level = v },
	"SCROLLER_PLATFORM_VERSION": func(c *Config, v string) { c.Platform.Version = v },
}

// ApplyEnv overrides settings from environment variables looked up with
// lookup, usually os.LookupEnv. It reports the variables applied.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) []string {
	var applied []string
	for name, set := range envMapping {
		if v, ok := lookup(name); ok && v != "" {
			set(c, v)
			applied = append(applied, name)
		}
	}
	sort.Strings(applied)
	return applied
}
