package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/dingo/core/ingest"
)

// InfluxConfig configures the InfluxDB transport.
type InfluxConfig struct {
	URL         string            `json:"url"`
	Token       string            `json:"token"`
	Org         string            `json:"org"`
	Bucket      string            `json:"bucket"`
	Measurement string            `json:"measurement"`
	Tags        map[string]string `json:"tags"`
}

// Influx writes every record as one point whose fields are the record values.
type Influx struct {
	client      influxdb2.Client
	writeAPI    api.WriteAPIBlocking
	measurement string
	tags        map[string]string
	now         func() time.Time
}

// NewInflux creates the client. No connection is made until the first write.
func NewInflux(cfg InfluxConfig) (*Influx, error) {
	if cfg.URL == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx: url and bucket are required")
	}
	if cfg.Measurement == "" {
		cfg.Measurement = "dingo"
	}
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &Influx{
		client:      client,
		writeAPI:    client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		measurement: cfg.Measurement,
		tags:        cfg.Tags,
		now:         time.Now,
	}, nil
}

// Name implements ingest.Named.
func (i *Influx) Name() string { return "influx" }

// Deliver writes p. Records without a timestamp are stamped with the write time.
func (i *Influx) Deliver(ctx context.Context, p ingest.Payload) error {
	ts, ok := p.Time()
	if !ok {
		ts = i.now()
	}
	fields := make(map[string]interface{}, len(p.Event))
	for k, v := range p.Event {
		fields[k] = v
	}
	return i.writeAPI.WritePoint(ctx, write.NewPoint(i.measurement, i.tags, fields, ts))
}

// Close releases the HTTP client.
func (i *Influx) Close() error {
	i.client.Close()
	return nil
}
