package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/dingo/core/dataset"
)

var inspectOutput string

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print row count and cadence statistics of a dataset",
	Args:  cobra.NoArgs,
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectOutput, "output", "o", "text", "output format (text, json, yaml)")
	rootCmd.AddCommand(inspectCmd)
}

type inspectReport struct {
	File      string   `json:"file"`
	Columns   []string `json:"columns"`
	Rows      int      `json:"rows"`
	Malformed int      `json:"malformed"`
	Unordered int      `json:"unordered"`
	First     string   `json:"first,omitempty"`
	Last      string   `json:"last,omitempty"`
	Span      string   `json:"span"`
	Mean      string   `json:"mean_delta"`
	Std       string   `json:"std_delta"`
	Min       string   `json:"min_delta"`
	Median    string   `json:"median_delta"`
	Max       string   `json:"max_delta"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateTime)
}

func runInspect(cmd *cobra.Command, _ []string) error {
	_, _, ds, err := resolve()
	if err != nil {
		return err
	}
	src, err := dataset.NewFile(ds.InputFile, dataset.Options{Delimiter: ds.Delimiter, TimeColumn: ds.DateColumn, TimeFormat: ds.DateFormat})
	if err != nil {
		return err
	}
	sum, err := dataset.Inspect(cmd.Context(), src)
	if err != nil {
		return err
	}
	rep := inspectReport{
		File:      ds.InputFile,
		Columns:   sum.Names,
		Rows:      sum.Rows,
		Malformed: sum.Malformed,
		Unordered: sum.Unordered,
		First:     formatTime(sum.First),
		Last:      formatTime(sum.Last),
		Span:      sum.TotalSpan.String(),
		Mean:      sum.MeanDelta.String(),
		Std:       sum.StdDelta.String(),
		Min:       sum.MinDelta.String(),
		Median:    sum.Median.String(),
		Max:       sum.MaxDelta.String(),
	}
	if inspectOutput != "text" {
		return writeStructured(cmd.OutOrStdout(), inspectOutput, rep)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, row := range [][2]string{
		{"file", rep.File},
		{"columns", strings.Join(rep.Columns, ", ")},
		{"rows", fmt.Sprint(rep.Rows)},
		{"malformed", fmt.Sprint(rep.Malformed)},
		{"unordered", fmt.Sprint(rep.Unordered)},
		{"first", rep.First},
		{"last", rep.Last},
		{"span", rep.Span},
		{"mean delta", rep.Mean},
		{"std delta", rep.Std},
		{"min delta", rep.Min},
		{"median delta", rep.Median},
		{"max delta", rep.Max},
	} {
		if _, err := fmt.Fprintf(w, "%s:\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return w.Flush()
}
