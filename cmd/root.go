// Package cmd implements the dingo command line.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/dingo/app"
	"github.com/kilianp07/dingo/config"
	"github.com/kilianp07/dingo/core/dataset"
	"github.com/kilianp07/dingo/core/factory"
	"github.com/kilianp07/dingo/core/monitoring"
	"github.com/kilianp07/dingo/infra/logger"
	inframon "github.com/kilianp07/dingo/infra/monitoring"
)

// Version is set at build time with -ldflags "-X github.com/kilianp07/dingo/cmd.Version=...".
var Version = "0.2.0"

// datasetFlags mirrors config.DatasetConfig on the command line.
type datasetFlags struct {
	dataset     string
	configFile  string
	transport   string
	logLevel    string
	inputFile   string
	mode        string
	apiKey      string
	url         string
	delimiter   string
	dateColumn  string
	dateFormat  string
	sleep       float64
	maxEntries  int
	randomStart bool
}

var flags datasetFlags

var rootCmd = &cobra.Command{
	Use:           "dingo",
	Short:         "Replay time-series datasets into an ingestion endpoint",
	Long:          "dingo replays a CSV dataset either as fast as possible (batch), following the original cadence (realtime), or both, so that a dataset looks like live data to the collector.",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config_file", "c", "config.json", "file storing the available datasets and their configuration")
	pf.StringVar(&flags.dataset, "dataset", "", "dataset of the config file to use instead of the command line values")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&flags.inputFile, "file", "", "CSV file containing the data to be ingested")
	pf.StringVar(&flags.mode, "mode", string(config.DefaultMode), "ingestion mode: batch, realtime, both or emulate")
	pf.StringVar(&flags.apiKey, "apikey", "", "remote API key")
	pf.StringVar(&flags.url, "url", config.DefaultURL, "API endpoint URL")
	pf.StringVar(&flags.delimiter, "delimiter", config.DefaultDelimiter, "CSV field delimiter")
	pf.StringVar(&flags.dateColumn, "date_column", config.DefaultDateColumn, "name of the column holding the timestamp")
	pf.StringVar(&flags.dateFormat, "date_format", config.DefaultDateFormat, "strftime format of the timestamp column")
	pf.Float64Var(&flags.sleep, "sleep", 0, "seconds to wait between two batch posts")
	pf.IntVar(&flags.maxEntries, "max_entries", -1, "maximum number of batch entries, -1 for no limit")
	pf.BoolVar(&flags.randomStart, "random_start", false, "start realtime ingestion at a random record")
	pf.StringVar(&flags.transport, "transport", "", "transport type overriding the config file (http, curl, mqtt, influx, redis, nats, nop)")

	rootCmd.SetVersionTemplate("dingo {{.Version}}\n")
	cobra.OnInitialize(applyLogLevel)
}

func applyLogLevel() {
	if flags.logLevel == "" {
		return
	}
	if err := logger.SetLevel(flags.logLevel); err != nil {
		logger.New("cmd").Warnf("%v", err)
	}
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the config file. Without a selected dataset a missing
// file is not an error and defaults are used.
func loadConfig(required bool) (*config.Config, error) {
	cfg, err := config.Load(flags.configFile)
	if errors.Is(err, config.ErrConfigNotFound) && !required {
		return config.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// resolve returns the configuration and the dataset to work on: the named
// dataset of the config file when --dataset is set, the command line values
// otherwise.
func resolve() (*config.Config, string, config.DatasetConfig, error) {
	cfg, err := loadConfig(flags.dataset != "")
	if err != nil {
		return nil, "", config.DatasetConfig{}, err
	}
	if flags.transport != "" && flags.transport != cfg.Transport.Type {
		cfg.Transport = factory.ModuleConfig{Type: flags.transport}
	}
	if flags.dataset != "" {
		ds, err := cfg.Dataset(flags.dataset)
		return cfg, flags.dataset, ds, err
	}
	if flags.inputFile == "" {
		return nil, "", config.DatasetConfig{}, fmt.Errorf("%w: no input file specified", dataset.ErrInputNotFound)
	}
	mode, err := config.ParseMode(flags.mode)
	if err != nil {
		return nil, "", config.DatasetConfig{}, err
	}
	ds := config.DatasetConfig{
		InputFile:   flags.inputFile,
		Mode:        mode,
		URL:         flags.url,
		APIKey:      flags.apiKey,
		Delimiter:   flags.delimiter,
		DateColumn:  flags.dateColumn,
		DateFormat:  flags.dateFormat,
		Sleep:       flags.sleep,
		MaxEntries:  flags.maxEntries,
		RandomStart: flags.randomStart,
	}
	ds.SetDefaults()
	return cfg, "cli", ds, nil
}

func initMonitor(cfg config.SentryConfig) {
	mon, err := inframon.NewSentryMonitor(cfg)
	if err != nil {
		logger.New("cmd").Warnf("sentry disabled: %v", err)
		return
	}
	monitoring.Init(mon)
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, name, ds, err := resolve()
	if err != nil {
		return err
	}
	if cfg.Sentry.Release == "" {
		cfg.Sentry.Release = "dingo@" + Version
	}
	initMonitor(cfg.Sentry)
	defer monitoring.Flush(2 * time.Second)
	defer monitoring.Current().Recover()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.New(cfg, name, ds)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("cmd").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}
