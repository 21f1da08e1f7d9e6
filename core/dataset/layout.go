package dataset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ncruces/go-strftime"
)

// ErrInvalidTimeFormat is returned when the time format cannot be converted
// to a Go layout.
var ErrInvalidTimeFormat = errors.New("invalid time format")

// Layout converts a dataset time format into a Go time layout. Formats
// containing a '%' directive are treated as strftime patterns, anything else
// is assumed to already be a Go layout.
func Layout(format string) (string, error) {
	if format == "" {
		return "", fmt.Errorf("%w: empty format", ErrInvalidTimeFormat)
	}
	if !strings.Contains(format, "%") {
		return format, nil
	}
	layout, err := strftime.Layout(format)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidTimeFormat, format, err)
	}
	return layout, nil
}
