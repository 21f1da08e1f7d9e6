package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kilianp07/dingo/app"
	"github.com/kilianp07/dingo/config"
	"github.com/kilianp07/dingo/core/factory"
	"github.com/kilianp07/dingo/core/journal"
	"github.com/kilianp07/dingo/infra/logger"
	"github.com/kilianp07/dingo/test/util"
)

const history = "date,power,temp\n" +
	"2021-06-01 00:00:00,1.5,20\n" +
	"2021-06-01 00:15:00,2.5,21\n" +
	"2021-06-01 00:30:00,3.5,22\n"

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.csv")
	if err := os.WriteFile(path, []byte(history), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestPrometheusExposure(t *testing.T) {
	port := freePort(t)
	cfg := config.Default()
	cfg.Transport = factory.ModuleConfig{Type: "nop"}
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "prometheus"}}
	cfg.Metrics.PrometheusPort = fmt.Sprintf("127.0.0.1:%d", port)

	ds := config.DefaultDataset()
	ds.InputFile = writeDataset(t)

	svc, err := app.New(cfg, "history", ds, app.WithJournal(journal.NopStore{}), app.WithLogger(logger.NopLogger{}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	defer svc.Close()

	waitCtx, waitCancel := context.WithTimeout(ctx, util.MetricTimeout)
	defer waitCancel()
	url := fmt.Sprintf("http://127.0.0.1:%d/metrics", port)
	if err := util.WaitForMetric(waitCtx, url,
		`dingo_records_emitted_total{dataset="history",phase="batch"} 3`,
		"dingo_replay_passes_total",
	); err != nil {
		t.Fatalf("metrics: %v", err)
	}
}

func TestBatchReplayOverMQTT(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx := context.Background()
	broker, cleanup, err := util.StartMosquitto(ctx)
	if err != nil {
		t.Skipf("mosquitto unavailable: %v", err)
	}
	defer cleanup()

	msgs, unsubscribe, err := util.SubscribeMQTT(ctx, broker, "dingo/history")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsubscribe()

	cfg := config.Default()
	cfg.Transport = factory.ModuleConfig{Type: "mqtt", Conf: map[string]any{"broker": broker, "topic": "dingo/history", "qos": 1}}
	ds := config.DefaultDataset()
	ds.InputFile = writeDataset(t)

	svc, err := app.New(cfg, "history", ds, app.WithJournal(journal.NopStore{}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var powers []float64
	timeout := time.After(5 * time.Second)
	for len(powers) < 3 {
		select {
		case raw := <-msgs:
			var msg struct {
				Event     map[string]float64 `json:"event"`
				Timestamp int64              `json:"timestamp"`
			}
			if err := json.Unmarshal(raw, &msg); err != nil {
				t.Fatalf("decode %s: %v", raw, err)
			}
			if msg.Timestamp == 0 {
				t.Fatalf("batch payload without timestamp: %s", raw)
			}
			powers = append(powers, msg.Event["power"])
		case <-timeout:
			t.Fatalf("received %d of 3 messages", len(powers))
		}
	}
	for i, want := range []float64{1.5, 2.5, 3.5} {
		if powers[i] != want {
			t.Fatalf("message %d: power %v, want %v", i, powers[i], want)
		}
	}
}
