package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mode selects the replay strategy of a run.
type Mode string

const (
	ModeBatch    Mode = "batch"
	ModeRealtime Mode = "realtime"
	ModeBoth     Mode = "both"
	ModeEmulate  Mode = "emulate"
)

// ErrUnknownMode is returned for a mode outside batch, realtime, both and emulate.
var ErrUnknownMode = errors.New("unknown mode")

// ParseMode validates s. Case and surrounding spaces are ignored.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeBatch, ModeRealtime, ModeBoth, ModeEmulate:
		return m, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownMode, s)
}

// Daemon reports whether the mode runs until cancelled.
func (m Mode) Daemon() bool { return m != ModeBatch }

// Defaults of the dataset configuration surface.
const (
	DefaultMode       = ModeBatch
	DefaultURL        = "input.novelti.io"
	DefaultDelimiter  = ","
	DefaultDateColumn = "date"
	DefaultDateFormat = "%Y-%m-%d %H:%M:%S"
	DefaultCooldown   = 10
)

// DatasetConfig describes one replayable dataset. The keys match the command
// line flags so a dataset entry and a flag invocation are interchangeable.
type DatasetConfig struct {
	InputFile  string `json:"input_file"`
	Mode       Mode   `json:"mode"`
	URL        string `json:"url"`
	APIKey     string `json:"api_key"`
	Delimiter  string `json:"delimiter"`
	DateColumn string `json:"date_column"`
	DateFormat string `json:"date_format"`
	// Sleep is the delay in seconds after each batch record.
	Sleep float64 `json:"sleep"`
	// MaxEntries caps batch emissions; -1 means unlimited.
	MaxEntries  int  `json:"max_entries"`
	RandomStart bool `json:"random_start"`
	// PauseEvery and PauseSeconds throttle long batch catch-ups. Zero keeps
	// the replay defaults and a negative PauseEvery disables the pause.
	PauseEvery      int `json:"pause_every"`
	PauseSeconds    int `json:"pause_seconds"`
	CooldownSeconds int `json:"cooldown_seconds"`
}

// DefaultDataset returns a dataset configuration with every default applied.
func DefaultDataset() DatasetConfig {
	ds := DatasetConfig{MaxEntries: -1}
	ds.SetDefaults()
	return ds
}

// SetDefaults fills empty fields.
func (d *DatasetConfig) SetDefaults() {
	if d.Mode == "" {
		d.Mode = DefaultMode
	} else if m, err := ParseMode(string(d.Mode)); err == nil {
		d.Mode = m
	}
	if d.URL == "" {
		d.URL = DefaultURL
	}
	if d.Delimiter == "" {
		d.Delimiter = DefaultDelimiter
	}
	if d.DateColumn == "" {
		d.DateColumn = DefaultDateColumn
	}
	if d.DateFormat == "" {
		d.DateFormat = DefaultDateFormat
	}
	if d.CooldownSeconds == 0 {
		d.CooldownSeconds = DefaultCooldown
	}
}

// Validate checks the mode and numeric ranges.
func (d DatasetConfig) Validate() error {
	if d.InputFile == "" {
		return errors.New("input_file is required")
	}
	if _, err := ParseMode(string(d.Mode)); err != nil {
		return err
	}
	if d.Sleep < 0 {
		return fmt.Errorf("sleep must not be negative, got %v", d.Sleep)
	}
	if d.MaxEntries < -1 {
		return fmt.Errorf("max_entries must be -1 or positive, got %d", d.MaxEntries)
	}
	if d.PauseSeconds < 0 || d.CooldownSeconds < 0 {
		return errors.New("pause_seconds and cooldown_seconds must not be negative")
	}
	return nil
}

// SleepDuration converts Sleep to a duration.
func (d DatasetConfig) SleepDuration() time.Duration {
	return time.Duration(d.Sleep * float64(time.Second))
}

// Cooldown is the wait between realtime passes.
func (d DatasetConfig) Cooldown() time.Duration {
	return time.Duration(d.CooldownSeconds) * time.Second
}
