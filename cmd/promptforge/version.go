package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("promptforge %s (commit %s, built %s)\n", version, commit, buildDate)
		},
	}
}

// configCmd shows the resolved configuration
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Server:")
			fmt.Printf("  Host: %s\n", cfg.Server.Host)
			fmt.Printf("  Port: %d\n", cfg.Server.Port)
			fmt.Println()

			fmt.Println("Database:")
			fmt.Printf("  URL: %s\n", maskSecret(cfg.Database.URL))
			fmt.Println()

			fmt.Println("Generative:")
			fmt.Printf("  Provider:    %s\n", cfg.Generative.Provider)
			fmt.Printf("  Endpoint:    %s\n", cfg.Generative.Endpoint)
			fmt.Printf("  Model:       %s\n", cfg.Generative.Model)
			fmt.Printf("  Max Tokens:  %d\n", cfg.Generative.MaxTokens)
			fmt.Printf("  Temperature: %.2f\n", cfg.Generative.Temperature)
			fmt.Printf("  API Key:     %s\n", maskSecret(cfg.Generative.APIKey))
			fmt.Println()

			fmt.Println("Voice metrics:")
			fmt.Printf("  Base URL:    %s\n", cfg.VoiceMetrics.BaseURL)
			fmt.Printf("  Configured:  %t\n", cfg.IsVoiceMetricsConfigured())
			fmt.Println()

			fmt.Println("Objectives:")
			fmt.Printf("  Rules path:  %s\n", cfg.Objectives.RulesPath)
			return nil
		},
	}
}
