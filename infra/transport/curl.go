package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/kilianp07/dingo/core/ingest"
)

// ErrBinaryNotFound is returned when the curl binary cannot be located.
var ErrBinaryNotFound = errors.New("curl binary not found")

// CurlConfig configures the external curl transport.
type CurlConfig struct {
	Binary         string `json:"binary"`
	URL            string `json:"url"`
	APIKey         string `json:"api_key"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	RetryConfig
}

// Curl sends payloads by running curl, for hosts where the collector is only
// reachable through a proxy setup curl already knows about.
type Curl struct {
	path     string
	endpoint string
	timeout  int
	retry    RetryConfig
}

// NewCurl resolves the curl binary once.
func NewCurl(cfg CurlConfig) (*Curl, error) {
	bin := cfg.Binary
	if bin == "" {
		bin = "curl"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBinaryNotFound, err)
	}
	return &Curl{path: path, endpoint: Endpoint(cfg.URL, cfg.APIKey), timeout: cfg.TimeoutSeconds, retry: cfg.RetryConfig}, nil
}

// Name implements ingest.Named.
func (c *Curl) Name() string { return "curl" }

// Deliver pipes the JSON payload to curl on stdin.
func (c *Curl) Deliver(ctx context.Context, p ingest.Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return retry(ctx, c.retry, func() error { return c.run(ctx, body) })
}

func (c *Curl) args() []string {
	args := []string{"-sS", "--fail", "-X", "POST", "-H", "Content-Type: application/json", "--data-binary", "@-"}
	if c.timeout > 0 {
		args = append(args, "--max-time", strconv.Itoa(c.timeout))
	}
	return append(args, c.endpoint)
}

func (c *Curl) run(ctx context.Context, body []byte) error {
	cmd := exec.CommandContext(ctx, c.path, c.args()...)
	cmd.Stdin = bytes.NewReader(body)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("curl: %w: %s", err, msg)
		}
		return fmt.Errorf("curl: %w", err)
	}
	return nil
}

// Close is a no-op.
func (c *Curl) Close() error { return nil }
