package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/dingo/core/metrics"
	"github.com/kilianp07/dingo/infra/logger"
)

// InfluxSink writes replay events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordEmission writes one point per emitted record.
func (s *InfluxSink) RecordEmission(ev coremetrics.EmissionEvent) error {
	p := write.NewPointWithMeasurement("record_emitted").
		AddTag("dataset", ev.Dataset).
		AddTag("phase", ev.Phase).
		AddField("latency_ms", float64(ev.Latency)/float64(time.Millisecond)).
		AddField("explicit", ev.Explicit).
		SetTime(ev.Time)
	if !ev.Record.IsZero() {
		p = p.AddField("record_ts", ev.Record.Unix())
	}
	return s.write(p)
}

// RecordDrop writes a dropped record.
func (s *InfluxSink) RecordDrop(ev coremetrics.DropEvent) error {
	p := write.NewPointWithMeasurement("record_dropped").
		AddTag("dataset", ev.Dataset).
		AddTag("phase", ev.Phase).
		AddField("reason", ev.Reason).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordDeliveryError writes a failed delivery.
func (s *InfluxSink) RecordDeliveryError(ev coremetrics.DeliveryErrorEvent) error {
	p := write.NewPointWithMeasurement("delivery_error").
		AddTag("dataset", ev.Dataset).
		AddTag("transport", ev.Transport).
		AddField("error", ev.Error).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordPass writes a pass summary.
func (s *InfluxSink) RecordPass(ev coremetrics.PassSummary) error {
	p := write.NewPointWithMeasurement("replay_pass").
		AddTag("dataset", ev.Dataset).
		AddTag("phase", ev.Phase).
		AddField("found", ev.Found).
		AddField("emitted", ev.Emitted).
		AddField("dropped", ev.Dropped).
		AddField("failed", ev.Failed).
		AddField("duration_s", ev.Duration.Seconds()).
		SetTime(ev.Time)
	return s.write(p)
}

// Close releases the HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }
