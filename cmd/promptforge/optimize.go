package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxlab/promptforge/internal/domain"
)

// optimizeCmd runs one optimization cycle from a JSON payload file.
func optimizeCmd() *cobra.Command {
	var payloadFile string

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Run one optimization cycle from a payload file",
		Long: `Run a single optimization cycle against the database, reading the
payload (failed_calls, optional objectives, alert_id, prompt_version)
from a JSON file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(payloadFile)
			if err != nil {
				return fmt.Errorf("failed to read payload file: %w", err)
			}
			var payload domain.OptimizationPayload
			if err := json.Unmarshal(data, &payload); err != nil {
				return fmt.Errorf("failed to parse payload: %w", err)
			}

			pool, s, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			opt, _, err := buildOptimizer(s)
			if err != nil {
				return err
			}

			result, err := opt.Optimize(ctx, &payload)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&payloadFile, "file", "f", "", "path to the JSON payload (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
