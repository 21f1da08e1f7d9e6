package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrNotNumeric is returned when a field value cannot be converted to a number.
var ErrNotNumeric = errors.New("value is not numeric")

// Field is one named value of a dataset row. The value is kept as read from
// the source until the ingestion sink converts it.
type Field struct {
	Name string
	Raw  string
}

// Record is a single dataset row with its time column parsed. Timestamp is a
// naive wall-clock value: the location is always UTC and carries no meaning.
type Record struct {
	Timestamp time.Time
	Fields    []Field
}

// Names returns the field names in dataset order.
func (r Record) Names() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

// Values converts every field to a float64. The first value that cannot be
// parsed aborts the conversion.
func (r Record) Values() (map[string]float64, error) {
	return Values(r.Fields)
}

// Values converts fields to a name to number mapping.
func Values(fields []Field) (map[string]float64, error) {
	out := make(map[string]float64, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f.Raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrNotNumeric, f.Name, f.Raw)
		}
		out[f.Name] = v
	}
	return out, nil
}

// Naive drops the location of t and keeps its wall clock, so that it can be
// compared with dataset timestamps.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Local interprets a naive wall-clock value in the local time zone.
func Local(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.Local)
}
