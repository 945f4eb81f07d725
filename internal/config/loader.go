package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/pbsimport/internal/pbs"
)

var tableNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Load reads the YAML configuration file at path and returns a validated [Config]
// with defaults applied. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and validates
// the result. An empty document yields the default configuration.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	seen := make(map[string]int, len(cfg.Input.Kinds))
	for i, k := range cfg.Input.Kinds {
		prefix := fmt.Sprintf("input.kinds[%d]", i)
		if !slices.Contains(pbs.Order, k) {
			errs = append(errs, fmt.Errorf("%s %q is not an entity kind; valid values: %v", prefix, k, pbs.Order))
			continue
		}
		if prev, ok := seen[k]; ok {
			errs = append(errs, fmt.Errorf("%s %q is a duplicate of input.kinds[%d]", prefix, k, prev))
		}
		seen[k] = i
	}
	if len(cfg.Input.Kinds) > 0 {
		warnMissingDependencies(cfg.Input.Kinds)
	}

	if cfg.Output.Table != "" && !tableNameRE.MatchString(cfg.Output.Table) {
		errs = append(errs, fmt.Errorf("output.table %q is not a valid SQL identifier", cfg.Output.Table))
	}
	if cfg.Output.JSONDir == "" && cfg.Output.PostgresDSN == "" {
		slog.Warn("no output configured; imported records will only be validated")
	}

	if cfg.Watch.Interval < 0 {
		errs = append(errs, fmt.Errorf("watch.interval %s must not be negative", cfg.Watch.Interval))
	}

	return errors.Join(errs...)
}

// dependencies lists, per kind, the kinds whose identifiers it validates
// against.
var dependencies = map[string][]string{
	pbs.KindMove:    {pbs.KindType},
	pbs.KindItem:    {pbs.KindMove},
	pbs.KindSpecies: {pbs.KindType, pbs.KindAbility, pbs.KindMove, pbs.KindItem},
}

// warnMissingDependencies logs a warning for every enabled kind referencing
// a kind that is not enabled.
func warnMissingDependencies(kinds []string) {
	for _, k := range kinds {
		for _, dep := range dependencies[k] {
			if !slices.Contains(kinds, dep) {
				slog.Warn("kind references a kind that is not imported; those fields will not be validated",
					"kind", k,
					"missing", dep,
				)
			}
		}
	}
}
