package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/khoahotran/billing-extractor/adapters/persistence"
)

var (
	historyLimit int
	historyID    string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List extractions recorded by the worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync()

		pool, err := persistence.NewPostgresPool(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer pool.Close()
		repo := persistence.NewPostgresExtractionRepo(pool, log)

		if historyID != "" {
			id, err := uuid.Parse(historyID)
			if err != nil {
				return err
			}
			e, err := repo.FindByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), e)
		}

		events, err := repo.ListRecent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), events)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of recent extractions to show")
	historyCmd.Flags().StringVar(&historyID, "id", "", "show a single extraction by id")
}
