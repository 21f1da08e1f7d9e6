package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/dingo/core/journal"
)

var historyOpts struct {
	phase  string
	since  time.Duration
	limit  int
	output string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the replay passes recorded in the journal",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historyOpts.phase, "phase", "", "only show batch or realtime passes")
	f.DurationVar(&historyOpts.since, "since", 0, "only show passes started within this duration")
	f.IntVar(&historyOpts.limit, "limit", 20, "maximum number of passes, 0 for all")
	f.StringVarP(&historyOpts.output, "output", "o", "text", "output format (text, json, yaml)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	store, err := journal.Open(cfg.Journal)
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	defer func() { _ = store.Close() }()

	q := journal.Query{Dataset: flags.dataset, Phase: historyOpts.phase, Limit: historyOpts.limit}
	if historyOpts.since > 0 {
		q.Since = time.Now().Add(-historyOpts.since)
	}
	entries, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}
	if historyOpts.output != "text" {
		if entries == nil {
			entries = []journal.Entry{}
		}
		return writeStructured(cmd.OutOrStdout(), historyOpts.output, entries)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tDATASET\tMODE\tPHASE\tFOUND\tEMITTED\tDROPPED\tFAILED\tFIRST\tLAST\tDURATION\tREASON")
	for _, e := range entries {
		reason := e.Reason
		if e.Error != "" {
			reason = e.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%d\t%d\t%d\t%s\t%s\t%s\t%s\n",
			e.Started.Format(time.DateTime), e.Dataset, e.Mode, e.Phase, e.Found,
			e.Emitted, e.Dropped, e.Failed, formatTime(e.First), formatTime(e.Last),
			e.Finished.Sub(e.Started).Round(time.Second), reason)
	}
	return w.Flush()
}
