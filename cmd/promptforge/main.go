package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxlab/promptforge/internal/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "promptforge",
		Short: "Prompt optimization service for voice agents",
		Long: `Promptforge rewrites underperforming voice-agent prompts from batches
of failed calls, scores each rewrite, and keeps a versioned history
with exactly one active prompt.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg = config.Load()

			slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			})))

			return nil
		},
	}

	rootCmd.AddCommand(
		serveCmd(),
		optimizeCmd(),
		promptsCmd(),
		runsCmd(),
		configCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
