package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/dingo/core/ingest"
)

func influxServer(t *testing.T, lines *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/write" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		b, _ := io.ReadAll(r.Body)
		*lines = append(*lines, strings.TrimSpace(string(b)))
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInfluxDeliver(t *testing.T) {
	var lines []string
	srv := influxServer(t, &lines)

	i, err := NewInflux(InfluxConfig{URL: srv.URL + "/api/v2/write", Org: "o", Bucket: "b", Tags: map[string]string{"dataset": "plant"}})
	require.NoError(t, err)
	defer i.Close()

	require.NoError(t, i.Deliver(context.Background(), samplePayload()))
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "dingo,dataset=plant "), lines[0])
	assert.Contains(t, lines[0], "value=1.5")
	assert.True(t, strings.HasSuffix(lines[0], " 1710325800000000000"), lines[0])
}

func TestInfluxDeliverStampsUntimedRecords(t *testing.T) {
	var lines []string
	srv := influxServer(t, &lines)

	i, err := NewInflux(InfluxConfig{URL: srv.URL, Bucket: "b", Measurement: "m"})
	require.NoError(t, err)
	defer i.Close()
	now := time.Date(2024, 3, 13, 10, 30, 0, 0, time.UTC)
	i.now = func() time.Time { return now }

	require.NoError(t, i.Deliver(context.Background(), ingest.Payload{Event: map[string]float64{"a": 2}}))
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "m a=2"), lines[0])
	assert.True(t, strings.HasSuffix(lines[0], " "+strconv.FormatInt(now.UnixNano(), 10)), lines[0])
}

func TestInfluxRequiresBucket(t *testing.T) {
	_, err := NewInflux(InfluxConfig{URL: "http://localhost:8086"})
	require.Error(t, err)
}
