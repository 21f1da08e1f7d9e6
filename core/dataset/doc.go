// Package dataset reads timestamped, delimited time-series files.
//
// The first line of a dataset is a header naming every column. One column
// holds the record timestamp, formatted with a strftime pattern such as
// "%Y-%m-%d %H:%M:%S" or a Go layout; every other column is a decimal value.
// Records are returned lazily in file order. Sort order is not verified.
package dataset
