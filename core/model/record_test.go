package model

import (
	"errors"
	"testing"
	"time"
)

func TestRecordValues(t *testing.T) {
	r := Record{Fields: []Field{{Name: "a", Raw: "1.5"}, {Name: "b", Raw: " -2 "}}}
	v, err := r.Values()
	if err != nil {
		t.Fatalf("values: %v", err)
	}
	if v["a"] != 1.5 || v["b"] != -2 {
		t.Fatalf("unexpected values %v", v)
	}
	if got := r.Names(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected names %v", got)
	}
}

func TestRecordValuesNotNumeric(t *testing.T) {
	r := Record{Fields: []Field{{Name: "a", Raw: "1"}, {Name: "b", Raw: "n/a"}}}
	if _, err := r.Values(); !errors.Is(err, ErrNotNumeric) {
		t.Fatalf("expected ErrNotNumeric, got %v", err)
	}
	if _, err := Values([]Field{{Name: "empty", Raw: ""}}); err == nil {
		t.Fatalf("expected error for empty value")
	}
}

func TestNaiveLocalRoundTrip(t *testing.T) {
	loc := time.FixedZone("X", 3*3600)
	in := time.Date(2024, 3, 10, 14, 30, 5, 0, loc)
	n := Naive(in)
	if n.Location() != time.UTC || n.Hour() != 14 || n.Minute() != 30 {
		t.Fatalf("naive lost wall clock: %v", n)
	}
	l := Local(n)
	if l.Location() != time.Local || l.Hour() != 14 {
		t.Fatalf("local lost wall clock: %v", l)
	}
}
