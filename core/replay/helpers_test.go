package replay

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kilianp07/dingo/core/dataset"
	"github.com/kilianp07/dingo/core/model"
)

const testFormat = "%Y-%m-%d %H:%M:%S"

// memSource serves a CSV held in memory.
type memSource struct {
	body string
	opts dataset.Options
}

func (m memSource) Open() (dataset.Cursor, error) {
	return dataset.NewReader(strings.NewReader(m.body), m.opts)
}

func source(rows ...string) memSource {
	return memSource{
		body: "date,value\n" + strings.Join(rows, "\n") + "\n",
		opts: dataset.Options{Delimiter: ",", TimeColumn: "date", TimeFormat: testFormat},
	}
}

func row(ts time.Time, v any) string {
	return fmt.Sprintf("%s,%v", ts.Format(time.DateTime), v)
}

func rowsAt(times ...time.Time) []string {
	out := make([]string, len(times))
	for i, ts := range times {
		out[i] = row(ts, i)
	}
	return out
}

type emission struct {
	TS       time.Time
	Explicit bool
	Fields   []model.Field
}

type recordSink struct {
	mu   sync.Mutex
	sent []emission
}

func (r *recordSink) SendAt(_ context.Context, f []model.Field, ts time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, emission{TS: ts, Explicit: true, Fields: f})
}

func (r *recordSink) SendNow(_ context.Context, f []model.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, emission{Fields: f})
}

func (r *recordSink) values() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.sent))
	for i, e := range r.sent {
		out[i] = e.Fields[0].Raw
	}
	return out
}

type captureLogger struct {
	mu    sync.Mutex
	warns []string
}

func (c *captureLogger) Debugf(string, ...any)         {}
func (c *captureLogger) Debugw(string, map[string]any) {}
func (c *captureLogger) Infof(string, ...any)          {}
func (c *captureLogger) Errorf(string, ...any)         {}
func (c *captureLogger) Warnf(f string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warns = append(c.warns, fmt.Sprintf(f, a...))
}

// wed is Wednesday 13 March 2024, 10:30.
var wed = time.Date(2024, 3, 13, 10, 30, 0, 0, time.UTC)

type infoLogger struct {
	captureLogger
	infos []string
}

func (l *infoLogger) Infof(f string, a ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, fmt.Sprintf(f, a...))
}
