package dataset

import (
	"context"
	"errors"
	"io"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the shape and cadence of a dataset.
type Summary struct {
	Names     []string
	Rows      int
	Malformed int
	Unordered int
	First     time.Time
	Last      time.Time
	MeanDelta time.Duration
	StdDelta  time.Duration
	MinDelta  time.Duration
	MaxDelta  time.Duration
	Median    time.Duration
	TotalSpan time.Duration
}

// Inspect scans src once and computes its cadence statistics. Unordered
// counts rows whose timestamp is earlier than the previous one.
func Inspect(ctx context.Context, src Source) (Summary, error) {
	cur, err := src.Open()
	if err != nil {
		return Summary{}, err
	}
	defer func() { _ = cur.Close() }()

	s := Summary{Names: cur.Names()}
	var deltas []float64
	var prev time.Time
	for {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		rec, err := cur.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, ErrMalformedRow) {
			s.Malformed++
			continue
		}
		if err != nil {
			return s, err
		}
		if s.Rows == 0 {
			s.First = rec.Timestamp
		} else {
			d := rec.Timestamp.Sub(prev)
			if d < 0 {
				s.Unordered++
			}
			deltas = append(deltas, d.Seconds())
		}
		s.Last = rec.Timestamp
		prev = rec.Timestamp
		s.Rows++
	}
	s.TotalSpan = s.Last.Sub(s.First)
	if len(deltas) == 0 {
		return s, nil
	}
	mean, std := stat.MeanStdDev(deltas, nil)
	if math.IsNaN(std) {
		std = 0
	}
	s.MeanDelta = seconds(mean)
	s.StdDelta = seconds(std)
	s.MinDelta = seconds(floats.Min(deltas))
	s.MaxDelta = seconds(floats.Max(deltas))
	sorted := make([]float64, len(deltas))
	copy(sorted, deltas)
	floats.Argsort(sorted, make([]int, len(sorted)))
	s.Median = seconds(stat.Quantile(0.5, stat.Empirical, sorted, nil))
	return s, nil
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
