package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/dingo/core/factory"
	"github.com/kilianp07/dingo/core/ingest"
)

func TestNamesListsBuiltins(t *testing.T) {
	names := Names()
	for _, want := range []string{"auto", "curl", "http", "influx", "mqtt", "nats", "nop", "redis"} {
		assert.Contains(t, names, want)
	}
}

func TestNewUnknown(t *testing.T) {
	_, err := New(factory.ModuleConfig{Type: "carrier-pigeon"})
	if !errors.Is(err, factory.ErrUnknownModule) {
		t.Fatalf("expected ErrUnknownModule, got %v", err)
	}
}

func TestNewDefaultsToAuto(t *testing.T) {
	tr, err := New(factory.ModuleConfig{Conf: map[string]any{"url": "collector.local", "api_key": "k"}})
	require.NoError(t, err)
	h, ok := tr.(*HTTP)
	require.True(t, ok)
	assert.Equal(t, "http://collector.local/v0/ingest/?api_key=k", h.endpoint)
}

func TestNewDecodesRetry(t *testing.T) {
	tr, err := New(factory.ModuleConfig{Type: "http", Conf: map[string]any{"max_retries": "3", "backoff_ms": 5, "timeout_seconds": 2}})
	require.NoError(t, err)
	h := tr.(*HTTP)
	assert.Equal(t, RetryConfig{MaxRetries: 3, BackoffMS: 5}, h.retry)
}

func TestNewNop(t *testing.T) {
	tr, err := New(factory.ModuleConfig{Type: "nop"})
	require.NoError(t, err)
	assert.Equal(t, "nop", ingest.TransportName(tr))
	require.NoError(t, tr.Deliver(context.Background(), samplePayload()))
	require.NoError(t, tr.Deliver(context.Background(), samplePayload()))
	assert.Equal(t, int64(2), tr.(*Nop).Count())
}

func TestNewPropagatesBuildErrors(t *testing.T) {
	_, err := New(factory.ModuleConfig{Type: "redis"})
	require.Error(t, err)
}

func TestWithDefaults(t *testing.T) {
	cfg := factory.ModuleConfig{Type: "http", Conf: map[string]any{"url": "explicit"}}
	got := WithDefaults(cfg, "fallback", "key")
	assert.Equal(t, "explicit", got.Conf["url"])
	assert.Equal(t, "key", got.Conf["api_key"])
	assert.NotContains(t, cfg.Conf, "api_key")

	empty := WithDefaults(factory.ModuleConfig{}, "", "")
	assert.Empty(t, empty.Conf)
}

func TestRegisterDuplicate(t *testing.T) {
	require.Error(t, Register("nop", func(map[string]any) (ingest.Transport, error) { return NewNop(), nil }))
}
