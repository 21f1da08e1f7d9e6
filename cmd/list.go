package cmd

import (
	"github.com/spf13/cobra"
)

var listOutput string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the datasets available in the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(true)
		if err != nil {
			return err
		}
		return writeStructured(cmd.OutOrStdout(), listOutput, cfg.Datasets)
	},
}

func init() {
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "json", "output format (json, yaml)")
	rootCmd.AddCommand(listCmd)
}
