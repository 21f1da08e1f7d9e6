package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/kilianp07/dingo/core/ingest"
)

// DefaultURL is the collector used when none is configured.
const DefaultURL = "input.novelti.io"

// OAuth2Config enables client-credentials authentication on the HTTP transport.
type OAuth2Config struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	TokenURL     string   `json:"token_url"`
	Scopes       []string `json:"scopes"`
}

// HTTPConfig configures the native HTTP transport.
type HTTPConfig struct {
	URL            string            `json:"url"`
	APIKey         string            `json:"api_key"`
	TimeoutSeconds int               `json:"timeout_seconds"`
	Headers        map[string]string `json:"headers"`
	OAuth2         *OAuth2Config     `json:"oauth2"`
	RetryConfig
}

// Endpoint builds the ingestion URL. A URL without scheme is assumed to be
// plain http.
func Endpoint(base, apiKey string) string {
	if base == "" {
		base = DefaultURL
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return strings.TrimRight(base, "/") + "/v0/ingest/?api_key=" + url.QueryEscape(apiKey)
}

// HTTP posts payloads as JSON.
type HTTP struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
	retry    RetryConfig
}

// NewHTTP returns an HTTP transport.
func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	if cfg.OAuth2 != nil {
		if cfg.OAuth2.TokenURL == "" || cfg.OAuth2.ClientID == "" {
			return nil, fmt.Errorf("oauth2 requires token_url and client_id")
		}
		cc := clientcredentials.Config{
			ClientID:     cfg.OAuth2.ClientID,
			ClientSecret: cfg.OAuth2.ClientSecret,
			TokenURL:     cfg.OAuth2.TokenURL,
			Scopes:       cfg.OAuth2.Scopes,
		}
		client = cc.Client(context.Background())
		client.Timeout = timeout
	}
	return &HTTP{
		endpoint: Endpoint(cfg.URL, cfg.APIKey),
		headers:  cfg.Headers,
		client:   client,
		retry:    cfg.RetryConfig,
	}, nil
}

// Name implements ingest.Named.
func (h *HTTP) Name() string { return "http" }

// Deliver posts p to the collector. Client errors (4xx) are not retried.
func (h *HTTP) Deliver(ctx context.Context, p ingest.Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return retry(ctx, h.retry, func() error { return h.post(ctx, body) })
}

func (h *HTTP) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("collector returned %s", resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return permanent(err)
		}
		return err
	}
	return nil
}

// Close releases idle connections.
func (h *HTTP) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
