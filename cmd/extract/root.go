package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/khoahotran/billing-extractor/internal/config"
	"github.com/khoahotran/billing-extractor/pkg/logger"
)

var (
	configDir string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run billing extractions from the command line",
	Long: `extract runs the same billing extraction as the HTTP service against a
local file, prints the extraction schema, or lists recorded extractions.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configDir, "config-dir", ".", "directory holding .env and config.yaml",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "log to stderr while running",
	)

	rootCmd.AddCommand(runCmd, schemaCmd, historyCmd)
}

func loadConfig() (config.Config, logger.Logger, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return cfg, nil, err
	}
	if verbose {
		return cfg, logger.NewZapLogger("development"), nil
	}
	return cfg, logger.NewNopLogger(), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
