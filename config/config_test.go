package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := write(t, "config.yaml", `datasets:
  energy:
    input_file: data/energy.csv
    mode: Both
    api_key: secret
    sleep: 0.5
    pause_every: -1
  water:
    input_file: data/water.csv
    delimiter: ";"
    date_column: timestamp
    max_entries: 100
    random_start: true
transport:
  type: mqtt
  conf:
    broker: tcp://localhost:1883
metrics:
  sinks:
    - type: prometheus
journal:
  backend: sqlite
sentry:
  dsn: https://key@sentry.example/1
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	energy, err := cfg.Dataset("energy")
	require.NoError(t, err)
	water, err := cfg.Dataset("water")
	require.NoError(t, err)

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"energy.mode", energy.Mode, ModeBoth},
		{"energy.url", energy.URL, DefaultURL},
		{"energy.api_key", energy.APIKey, "secret"},
		{"energy.sleep", energy.SleepDuration().String(), "500ms"},
		{"energy.max_entries", energy.MaxEntries, -1},
		{"energy.pause_every", energy.PauseEvery, -1},
		{"energy.date_format", energy.DateFormat, DefaultDateFormat},
		{"energy.cooldown", energy.CooldownSeconds, DefaultCooldown},
		{"water.mode", water.Mode, ModeBatch},
		{"water.delimiter", water.Delimiter, ";"},
		{"water.date_column", water.DateColumn, "timestamp"},
		{"water.max_entries", water.MaxEntries, 100},
		{"water.random_start", water.RandomStart, true},
		{"transport.type", cfg.Transport.Type, "mqtt"},
		{"transport.broker", cfg.Transport.Conf["broker"], "tcp://localhost:1883"},
		{"metrics.prometheus", cfg.Metrics.PrometheusEnabled(), true},
		{"metrics.port", cfg.Metrics.PrometheusPort, ":9102"},
		{"journal.backend", cfg.Journal.Backend, "sqlite"},
		{"journal.path", cfg.Journal.Path, "dingo-journal.db"},
		{"sentry.dsn", cfg.Sentry.DSN, "https://key@sentry.example/1"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
	assert.Equal(t, []string{"energy", "water"}, cfg.Names())
}

func TestLoadLegacyFlatJSON(t *testing.T) {
	path := write(t, "config.json", `{
  "demo": {"input_file": "demo.csv", "mode": "realtime", "api_key": "k", "url": "collector.local", "date_format": "%d/%m/%Y %H:%M"},
  "other": {"input_file": "other.csv", "mode": "emulate"}
}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"demo", "other"}, cfg.Names())

	demo, _ := cfg.Dataset("demo")
	assert.Equal(t, ModeRealtime, demo.Mode)
	assert.Equal(t, "collector.local", demo.URL)
	assert.Equal(t, "%d/%m/%Y %H:%M", demo.DateFormat)
	assert.Equal(t, -1, demo.MaxEntries)
	assert.False(t, demo.RandomStart)
	assert.Equal(t, "auto", cfg.Transport.Type)
	assert.Equal(t, "jsonl", cfg.Journal.Backend)
}

func TestLoadEnvOverride(t *testing.T) {
	path := write(t, "config.json", `{"datasets": {"energy": {"input_file": "e.csv"}}}`)
	t.Setenv("DINGO_DATASETS__ENERGY__MODE", "both")
	t.Setenv("DINGO_DATASETS__ENERGY__MAX_ENTRIES", "25")
	t.Setenv("DINGO_TRANSPORT__TYPE", "nop")

	cfg, err := Load(path)
	require.NoError(t, err)
	energy, _ := cfg.Dataset("energy")
	assert.Equal(t, ModeBoth, energy.Mode)
	assert.Equal(t, 25, energy.MaxEntries)
	assert.Equal(t, "nop", cfg.Transport.Type)
}

func TestLoadEnvOverrideKeepsDatasetNameCase(t *testing.T) {
	path := write(t, "config.json", `{"datasets": {"Energy": {"input_file": "e.csv"}}}`)
	t.Setenv("DINGO_DATASETS__ENERGY__MODE", "both")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Energy"}, cfg.Names())
	energy, err := cfg.Dataset("Energy")
	require.NoError(t, err)
	assert.Equal(t, ModeBoth, energy.Mode)
	assert.Equal(t, "e.csv", energy.InputFile)
}

func TestEnvKey(t *testing.T) {
	key := envKey([]string{"Energy", "solar"})
	assert.Equal(t, "datasets.Energy.max_entries", key("DINGO_DATASETS__ENERGY__MAX_ENTRIES"))
	assert.Equal(t, "datasets.solar.mode", key("DINGO_DATASETS__SOLAR__MODE"))
	assert.Equal(t, "datasets.wind.mode", key("DINGO_DATASETS__WIND__MODE"))
	assert.Equal(t, "transport.type", key("DINGO_TRANSPORT__TYPE"))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, ErrConfigNotFound)

	_, err = Load(write(t, "config.toml", "x = 1"))
	require.Error(t, err)

	_, err = Load(write(t, "config.json", `{"datasets": {"bad": {"input_file": "x.csv", "mode": "turbo"}}}`))
	require.ErrorIs(t, err, ErrUnknownMode)

	_, err = Load(write(t, "config.json", `{"datasets": {"bad": {"mode": "batch"}}}`))
	require.Error(t, err)

	_, err = Load(write(t, "config.json", `{"journal": {"backend": "csv"}}`))
	require.Error(t, err)
}

func TestDatasetUnknown(t *testing.T) {
	cfg := Default()
	_, err := cfg.Dataset("nope")
	if !errors.Is(err, ErrUnknownDataset) {
		t.Fatalf("expected ErrUnknownDataset, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"batch": ModeBatch, " Realtime": ModeRealtime, "BOTH": ModeBoth, "emulate": ModeEmulate} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("stream")
	require.ErrorIs(t, err, ErrUnknownMode)
	assert.False(t, ModeBatch.Daemon())
	assert.True(t, ModeEmulate.Daemon())
}

func TestDatasetValidate(t *testing.T) {
	ds := DefaultDataset()
	ds.InputFile = "x.csv"
	require.NoError(t, ds.Validate())

	bad := ds
	bad.Sleep = -1
	assert.Error(t, bad.Validate())
	bad = ds
	bad.MaxEntries = -5
	assert.Error(t, bad.Validate())
	bad = ds
	bad.CooldownSeconds = -1
	assert.Error(t, bad.Validate())
}
