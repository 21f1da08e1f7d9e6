package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/dingo/core/ingest"
	"github.com/kilianp07/dingo/infra/logger"
)

// DefaultTopic is the MQTT topic used when none is configured.
const DefaultTopic = "dingo/ingest"

// MQTTConfig defines the connection parameters for the Paho MQTT client.
type MQTTConfig struct {
	Broker      string      `json:"broker"`
	ClientID    string      `json:"client_id"`
	Username    string      `json:"username"`
	Password    string      `json:"password"`
	Topic       string      `json:"topic"`
	QoS         byte        `json:"qos"`
	Retain      bool        `json:"retain"`
	UseTLS      bool        `json:"use_tls"`
	ClientCert  string      `json:"client_cert"`
	ClientKey   string      `json:"client_key"`
	CABundle    string      `json:"ca_bundle"`
	WaitSeconds int         `json:"wait_seconds"`
	TLSConfig   *tls.Config `json:"-"`
	RetryConfig
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// MQTT publishes payloads on a single topic.
type MQTT struct {
	cli    pahoClient
	topic  string
	qos    byte
	retain bool
	wait   time.Duration
	retry  RetryConfig
	log    logger.Logger
}

type mqttMessage struct {
	MessageID string `json:"message_id"`
	ingest.Payload
}

// NewMQTT connects to the broker.
func NewMQTT(cfg MQTTConfig) (*MQTT, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt: broker is required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "dingo-" + uuid.NewString()[:8]
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.QoS > 2 {
		return nil, fmt.Errorf("mqtt: invalid qos %d", cfg.QoS)
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_transport")
	opts.OnConnect = func(paho.Client) { log.Infof("MQTT connected to %s", cfg.Broker) }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Errorf("connection lost: %v", err) }
	opts.OnReconnecting = func(paho.Client, *paho.ClientOptions) { log.Warnf("reconnecting to MQTT broker") }

	wait := time.Duration(cfg.WaitSeconds) * time.Second
	if wait <= 0 {
		wait = 5 * time.Second
	}
	c := newMQTTClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(wait) {
		return nil, fmt.Errorf("mqtt: connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, err
	}
	return &MQTT{cli: c, topic: cfg.Topic, qos: cfg.QoS, retain: cfg.Retain, wait: wait, retry: cfg.RetryConfig, log: log}, nil
}

// NewClientOptions builds mqtt client options from MQTTConfig.
func NewClientOptions(cfg MQTTConfig) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c MQTTConfig) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// Name implements ingest.Named.
func (m *MQTT) Name() string { return "mqtt" }

// Deliver publishes the payload with a fresh message id.
func (m *MQTT) Deliver(ctx context.Context, p ingest.Payload) error {
	body, err := json.Marshal(mqttMessage{MessageID: uuid.NewString(), Payload: p})
	if err != nil {
		return err
	}
	attempt := 0
	return retry(ctx, m.retry, func() error {
		attempt++
		token := m.cli.Publish(m.topic, m.qos, m.retain, body)
		if !token.WaitTimeout(m.wait) {
			return fmt.Errorf("publish to %s timed out", m.topic)
		}
		if err := token.Error(); err != nil {
			m.log.Warnf("publish attempt %d failed: %v", attempt, err)
			return err
		}
		return nil
	})
}

// Close gracefully closes the MQTT connection.
func (m *MQTT) Close() error {
	if m.cli != nil && m.cli.IsConnected() {
		m.cli.Disconnect(250)
	}
	return nil
}
