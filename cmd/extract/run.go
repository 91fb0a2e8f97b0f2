package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/khoahotran/billing-extractor/internal/application/service"
	extractionUC "github.com/khoahotran/billing-extractor/internal/application/usecase/extraction"
	"github.com/khoahotran/billing-extractor/internal/bootstrap"
)

var (
	runFile  string
	runModel string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract billing details from a document",
	Long: `Reads the document (default: extraction.document_path from config), sends it
to the selected model and prints the validated JSON result.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync()

		core, err := bootstrap.NewCore(cfg, log)
		if err != nil {
			return err
		}
		uc := core.ExtractUseCase(cfg, service.NoopPublisher{}, log)

		out, err := uc.Execute(cmd.Context(), extractionUC.ExtractInput{
			RequestID:    uuid.New().String(),
			DocumentPath: runFile,
			Model:        runModel,
		})
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), out.Result)
	},
}

func init() {
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "document to extract from")
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "registered model name (default: default)")
}
