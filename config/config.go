// Package config loads dingo's configuration: the named datasets that can be
// replayed and the shared transport, metrics, journal and Sentry sections.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/dingo/core/factory"
	"github.com/kilianp07/dingo/core/journal"
	"github.com/kilianp07/dingo/core/metrics"
)

// EnvPrefix marks environment variables that override file values. A double
// underscore separates nested keys: DINGO_DATASETS__ENERGY__MODE=both.
const EnvPrefix = "DINGO_"

var (
	// ErrUnknownDataset is returned when a dataset name is not configured.
	ErrUnknownDataset = errors.New("unknown dataset")
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)

// sections are the root keys of the structured layout. A file with none of
// them is read as a flat map of dataset name to dataset configuration.
var sections = map[string]bool{"datasets": true, "transport": true, "metrics": true, "journal": true, "sentry": true}

type Config struct {
	Datasets  map[string]DatasetConfig `json:"datasets"`
	Transport factory.ModuleConfig     `json:"transport"`
	Metrics   metrics.Config           `json:"metrics"`
	Journal   journal.Config           `json:"journal"`
	Sentry    SentryConfig             `json:"sentry"`
}

// Default returns a configuration without datasets and with every section
// defaulted.
func Default() *Config {
	cfg := &Config{Datasets: map[string]DatasetConfig{}}
	cfg.SetDefaults()
	return cfg
}

// Load reads a JSON or YAML file, applies DINGO_ environment overrides, then
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if legacy(k) {
		flat := k.Raw()
		k = koanf.New(".")
		if err := k.Set("datasets", flat); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey(k.MapKeys("datasets"))), nil); err != nil {
		return nil, err
	}

	cfg := &Config{Datasets: map[string]DatasetConfig{}}
	conf := koanf.UnmarshalConf{Tag: "json"}
	for _, sec := range []struct {
		key    string
		target any
	}{
		{"transport", &cfg.Transport},
		{"metrics", &cfg.Metrics},
		{"journal", &cfg.Journal},
		{"sentry", &cfg.Sentry},
	} {
		if !k.Exists(sec.key) {
			continue
		}
		if err := k.UnmarshalWithConf(sec.key, sec.target, conf); err != nil {
			return nil, fmt.Errorf("%s: %w", sec.key, err)
		}
	}
	for _, name := range k.MapKeys("datasets") {
		// Missing keys keep the defaults.
		ds := DefaultDataset()
		if err := k.UnmarshalWithConf("datasets."+name, &ds, conf); err != nil {
			return nil, fmt.Errorf("dataset %s: %w", name, err)
		}
		cfg.Datasets[name] = ds
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps DINGO_A__B__C to a.b.c. A dataset segment resolves to the
// file's dataset of the same name in any case, so DINGO_DATASETS__ENERGY__MODE
// overrides a dataset declared as "Energy".
func envKey(datasets []string) func(string) string {
	return func(s string) string {
		parts := strings.Split(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__")
		if len(parts) > 1 && parts[0] == "datasets" {
			for _, name := range datasets {
				if strings.EqualFold(name, parts[1]) {
					parts[1] = name
					break
				}
			}
		}
		return strings.Join(parts, ".")
	}
}

func legacy(k *koanf.Koanf) bool {
	for key := range k.Raw() {
		if sections[key] {
			return false
		}
	}
	return len(k.Raw()) > 0
}

// SetDefaults fills missing values in every section.
func (c *Config) SetDefaults() {
	if c.Datasets == nil {
		c.Datasets = map[string]DatasetConfig{}
	}
	for name, ds := range c.Datasets {
		ds.SetDefaults()
		c.Datasets[name] = ds
	}
	if c.Transport.Type == "" {
		c.Transport.Type = "auto"
	}
	c.Metrics.SetDefaults()
	c.Journal.SetDefaults()
	c.Sentry.SetDefaults()
}

// Validate checks every section. Dataset input files are checked when the
// dataset is opened so that listing works with files that moved.
func (c Config) Validate() error {
	for _, name := range c.Names() {
		if err := c.Datasets[name].Validate(); err != nil {
			return fmt.Errorf("dataset %s: %w", name, err)
		}
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.Journal.Validate(); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	return nil
}

// Names returns the configured dataset names in sorted order.
func (c Config) Names() []string {
	names := make([]string, 0, len(c.Datasets))
	for n := range c.Datasets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dataset returns the dataset configured under name.
func (c Config) Dataset(name string) (DatasetConfig, error) {
	ds, ok := c.Datasets[name]
	if !ok {
		return DatasetConfig{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownDataset, name, strings.Join(c.Names(), ", "))
	}
	return ds, nil
}
