package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/khoahotran/billing-extractor/internal/application/schema"
	"github.com/khoahotran/billing-extractor/internal/prompts"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema sent to the model",
	RunE: func(cmd *cobra.Command, args []string) error {
		codec, err := schema.NewCodec(prompts.BillingSchema())
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), json.RawMessage(codec.JSON()))
	},
}
