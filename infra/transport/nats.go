package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kilianp07/dingo/core/ingest"
)

// DefaultSubject is the NATS subject used when none is configured.
const DefaultSubject = "dingo.ingest"

// ErrNotConnected is returned when publishing on a closed NATS connection.
var ErrNotConnected = errors.New("nats: not connected")

// NATSConfig configures the NATS transport.
type NATSConfig struct {
	URL      string `json:"url"`
	Subject  string `json:"subject"`
	Name     string `json:"name"`
	Token    string `json:"token"`
	User     string `json:"user"`
	Password string `json:"password"`
	// Flush waits for the server to process each publish.
	Flush bool `json:"flush"`
}

type natsConn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	IsConnected() bool
	Drain() error
}

var natsConnect = func(url string, opts ...nats.Option) (natsConn, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return nc, nil
}

// NATS publishes payloads on a subject.
type NATS struct {
	conn    natsConn
	subject string
	flush   bool
}

// NewNATS connects to the server.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	if cfg.Name == "" {
		cfg.Name = "dingo"
	}
	opts := []nats.Option{nats.Name(cfg.Name), nats.MaxReconnects(-1), nats.ReconnectWait(2 * time.Second)}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}
	conn, err := natsConnect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", cfg.URL, err)
	}
	return &NATS{conn: conn, subject: cfg.Subject, flush: cfg.Flush}, nil
}

// Name implements ingest.Named.
func (n *NATS) Name() string { return "nats" }

// Deliver publishes the JSON payload.
func (n *NATS) Deliver(ctx context.Context, p ingest.Payload) error {
	if !n.conn.IsConnected() {
		return ErrNotConnected
	}
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := n.conn.Publish(n.subject, body); err != nil {
		return err
	}
	if n.flush {
		return n.conn.FlushWithContext(ctx)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (n *NATS) Close() error { return n.conn.Drain() }
