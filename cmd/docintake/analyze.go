package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docintake/internal/app"
	"github.com/joseph-ayodele/docintake/internal/extract"
)

var (
	analyzeBucket string
	analyzeKey    string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one stored document and write its extraction record",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		bucket := analyzeBucket
		if bucket == "" {
			bucket = cfg.Storage.ImageBucket
		}
		st, err := a.Processor.ProcessObject(cmd.Context(), extract.DocumentRef{Bucket: bucket, Key: analyzeKey})
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(st); encErr != nil {
			return encErr
		}
		return err
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeBucket, "bucket", "", "bucket holding the document (default IMAGE_BUCKET)")
	analyzeCmd.Flags().StringVar(&analyzeKey, "key", "", "object key of the document")
	_ = analyzeCmd.MarkFlagRequired("key")
	rootCmd.AddCommand(analyzeCmd)
}
