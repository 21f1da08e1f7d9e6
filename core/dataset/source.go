package dataset

import (
	"errors"
	"io"

	"github.com/kilianp07/dingo/core/model"
)

// Cursor walks the records of one opened dataset.
type Cursor interface {
	Names() []string
	Next() (model.Record, error)
	Close() error
}

// Source opens a fresh cursor on every call. Replayers never share a cursor.
type Source interface {
	Open() (Cursor, error)
}

// File is a dataset stored on disk.
type File struct {
	Path    string
	Options Options
}

// NewFile validates that path can be opened with opts and returns a Source
// for it. Configuration problems such as a missing time column surface here
// instead of in the middle of a replay.
func NewFile(path string, opts Options) (*File, error) {
	f := &File{Path: path, Options: opts}
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return f, nil
}

// Open opens the file and reads its header.
func (f *File) Open() (Cursor, error) {
	return Open(f.Path, f.Options)
}

// Count returns the number of data rows of src, malformed rows included.
func Count(src Source) (int, error) {
	cur, err := src.Open()
	if err != nil {
		return 0, err
	}
	defer func() { _ = cur.Close() }()
	n := 0
	for {
		_, err := cur.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil && !errors.Is(err, ErrMalformedRow) {
			return n, err
		}
		n++
	}
}
