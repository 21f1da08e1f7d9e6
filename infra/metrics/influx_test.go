package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/dingo/core/metrics"
)

func captureServer(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, strings.TrimSpace(string(b)))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), bodies...)
	}
}

func TestInfluxSink_RecordEmission(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	rec := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	ev := coremetrics.EmissionEvent{Dataset: "energy", Phase: "batch", Record: rec, Explicit: true, Latency: 2 * time.Millisecond, Time: now}
	if err := sink.RecordEmission(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("record_emitted").
		AddTag("dataset", "energy").
		AddTag("phase", "batch").
		AddField("latency_ms", 2.0).
		AddField("explicit", true).
		SetTime(now).
		AddField("record_ts", rec.Unix())
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	got := bodies()
	if len(got) != 1 || got[0] != exp {
		t.Errorf("unexpected body: %#v", got)
	}
}

func TestInfluxSink_RecordPass(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	ev := coremetrics.PassSummary{Dataset: "d", Phase: "realtime", Found: true, Emitted: 3, Duration: time.Second, Time: now}
	if err := sink.RecordPass(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("replay_pass").
		AddTag("dataset", "d").
		AddTag("phase", "realtime").
		AddField("found", true).
		AddField("emitted", 3).
		AddField("dropped", 0).
		AddField("failed", 0).
		AddField("duration_s", 1.0).
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	got := bodies()
	if len(got) != 1 || got[0] != exp {
		t.Errorf("bodies: %#v", got)
	}
}

func TestInfluxSink_DropAndDeliveryError(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	if err := sink.RecordDrop(coremetrics.DropEvent{Dataset: "d", Phase: "batch", Reason: "bad", Time: now}); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if err := sink.RecordDeliveryError(coremetrics.DeliveryErrorEvent{Dataset: "d", Transport: "http", Error: "503", Time: now}); err != nil {
		t.Fatalf("delivery error: %v", err)
	}
	got := bodies()
	if len(got) != 2 || !strings.HasPrefix(got[0], "record_dropped,") || !strings.HasPrefix(got[1], "delivery_error,") {
		t.Errorf("bodies: %#v", got)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
