package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kilianp07/dingo/core/model"
)

var (
	// ErrInputNotFound is returned when the dataset path is missing or is not a regular file.
	ErrInputNotFound = errors.New("input file not available")
	// ErrMissingTimeColumn is returned when the header has no time column.
	ErrMissingTimeColumn = errors.New("time column not found in header")
	// ErrEmptyDataset is returned when the source has no header line.
	ErrEmptyDataset = errors.New("dataset has no header")
	// ErrMalformedRow marks a row that cannot be turned into a record.
	ErrMalformedRow = errors.New("malformed row")
	// ErrInvalidDelimiter is returned for delimiters that are not a single character.
	ErrInvalidDelimiter = errors.New("delimiter must be a single character")
)

// Options controls how a dataset is parsed.
type Options struct {
	Delimiter  string
	TimeColumn string
	TimeFormat string
}

// RowError reports a row that was skipped. It matches ErrMalformedRow with errors.Is.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }

// Is reports whether target is ErrMalformedRow.
func (e *RowError) Is(target error) bool { return target == ErrMalformedRow }

// Reader iterates over the records of a dataset.
type Reader struct {
	closer  io.Closer
	csv     *csv.Reader
	names   []string
	timeIdx int
	layout  string
	row     int
}

// Open opens the file at path and reads its header.
func Open(path string, opts Options) (*Reader, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputNotFound, err)
	}
	r, err := NewReader(f, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewReader reads the header from src. The caller keeps ownership of src.
func NewReader(src io.Reader, opts Options) (*Reader, error) {
	comma, err := delimiter(opts.Delimiter)
	if err != nil {
		return nil, err
	}
	layout, err := Layout(opts.TimeFormat)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(src)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	timeIdx := -1
	names := make([]string, 0, len(header))
	for i, h := range header {
		if h == opts.TimeColumn && timeIdx < 0 {
			timeIdx = i
			continue
		}
		names = append(names, h)
	}
	if timeIdx < 0 {
		return nil, fmt.Errorf("%w: column %q not in %v", ErrMissingTimeColumn, opts.TimeColumn, header)
	}
	return &Reader{csv: cr, names: names, timeIdx: timeIdx, layout: layout}, nil
}

// Names returns the value column names, header order preserved.
func (r *Reader) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Next returns the next record. It returns io.EOF after the last row and a
// *RowError for rows that cannot be parsed; reading may continue after a
// *RowError.
func (r *Reader) Next() (model.Record, error) {
	cols, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return model.Record{}, io.EOF
	}
	r.row++
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return model.Record{}, &RowError{Row: r.row, Err: err}
	}
	if err != nil {
		return model.Record{}, err
	}
	if len(cols) != len(r.names)+1 {
		return model.Record{}, &RowError{Row: r.row, Err: fmt.Errorf("expected %d columns, got %d", len(r.names)+1, len(cols))}
	}
	ts, err := time.ParseInLocation(r.layout, strings.TrimSpace(cols[r.timeIdx]), time.UTC)
	if err != nil {
		return model.Record{}, &RowError{Row: r.row, Err: fmt.Errorf("parse time: %w", err)}
	}
	fields := make([]model.Field, 0, len(r.names))
	j := 0
	for i, v := range cols {
		if i == r.timeIdx {
			continue
		}
		fields = append(fields, model.Field{Name: r.names[j], Raw: v})
		j++
	}
	return model.Record{Timestamp: ts, Fields: fields}, nil
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func delimiter(s string) (rune, error) {
	if s == "" {
		return ',', nil
	}
	if s == `\t` {
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDelimiter, s)
	}
	c, _ := utf8.DecodeRuneInString(s)
	if c == '\r' || c == '\n' || c == '"' || c == utf8.RuneError {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDelimiter, s)
	}
	return c, nil
}
