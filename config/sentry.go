package config

import "os"

// SentryConfig defines settings for Sentry error monitoring. An empty DSN
// disables reporting.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}

// SetDefaults reads the DSN and environment from SENTRY_DSN and APP_ENV when
// they are not configured.
func (c *SentryConfig) SetDefaults() {
	if c.DSN == "" {
		c.DSN = os.Getenv("SENTRY_DSN")
	}
	if c.Environment == "" {
		c.Environment = os.Getenv("APP_ENV")
	}
}
