package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/dingo/core/events"
)

// Entry records the outcome of one replay pass.
type Entry struct {
	ID        string    `json:"id"`
	Dataset   string    `json:"dataset"`
	Mode      string    `json:"mode"`
	Phase     string    `json:"phase"`
	Found     bool      `json:"found"`
	Emitted   int       `json:"emitted"`
	Dropped   int       `json:"dropped"`
	Failed    int       `json:"failed"`
	Discarded int       `json:"discarded"`
	First     time.Time `json:"first_record,omitempty"`
	Last      time.Time `json:"last_record,omitempty"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	Reason    string    `json:"reason,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// FromEvent converts a pass event into a journal entry.
func FromEvent(e events.PassEvent) Entry {
	en := Entry{
		ID:        e.ID,
		Dataset:   e.Dataset,
		Mode:      e.Mode,
		Phase:     string(e.Phase),
		Found:     e.Found,
		Emitted:   e.Emitted,
		Dropped:   e.Dropped,
		Failed:    e.Failed,
		Discarded: e.Discarded,
		First:     e.First,
		Last:      e.Last,
		Started:   e.Started,
		Finished:  e.Finished,
		Reason:    e.Reason,
	}
	if e.Err != nil {
		en.Error = e.Err.Error()
	}
	return en
}

// Query filters entries. Zero fields match everything; Limit keeps the most
// recent entries.
type Query struct {
	Dataset string
	Phase   string
	Since   time.Time
	Until   time.Time
	Limit   int
}

func (q Query) match(e Entry) bool {
	if q.Dataset != "" && e.Dataset != q.Dataset {
		return false
	}
	if q.Phase != "" && e.Phase != q.Phase {
		return false
	}
	if !q.Since.IsZero() && e.Started.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && e.Started.After(q.Until) {
		return false
	}
	return true
}

func (q Query) limit(entries []Entry) []Entry {
	if q.Limit > 0 && len(entries) > q.Limit {
		return entries[len(entries)-q.Limit:]
	}
	return entries
}

// Store persists entries and supports querying.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Query(ctx context.Context, q Query) ([]Entry, error)
	Close() error
}

// Config selects and tunes the journal backend.
type Config struct {
	// Backend is "jsonl", "sqlite" or "none".
	Backend string `json:"backend"`
	Path    string `json:"path"`
	// MaxSizeMB triggers rotation of the jsonl file.
	MaxSizeMB  int `json:"max_size_mb"`
	MaxBackups int `json:"max_backups"`
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		switch c.Backend {
		case "sqlite":
			c.Path = "dingo-journal.db"
		default:
			c.Path = "dingo-journal.jsonl"
		}
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Backend {
	case "jsonl", "sqlite", "none":
	default:
		return fmt.Errorf("unknown journal backend %s", c.Backend)
	}
	if c.Backend != "none" && c.Path == "" {
		return fmt.Errorf("journal path is required")
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("journal rotation settings must not be negative")
	}
	return nil
}

// Open builds the store described by cfg.
func Open(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "none":
		return NopStore{}, nil
	default:
		return NewJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	}
}

// NopStore discards entries.
type NopStore struct{}

func (NopStore) Append(context.Context, Entry) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Entry, error) { return nil, nil }
func (NopStore) Close() error                                  { return nil }
