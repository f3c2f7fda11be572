package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// runsCmd lists recent optimization runs.
func runsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent optimization runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, s, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			runs, err := s.RecentRuns(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No optimization runs recorded yet.")
				return nil
			}

			for _, run := range runs {
				improvement := "-"
				if run.Improvement != nil {
					improvement = fmt.Sprintf("%.4f", *run.Improvement)
				}
				transition := run.PromptVersion
				if run.PreviousVersion != nil && run.NewVersion != nil {
					transition = fmt.Sprintf("%s -> %s", *run.PreviousVersion, *run.NewVersion)
				}
				fmt.Printf("#%-5d %-11s %-14s improvement=%-8s %s\n",
					run.ID, run.Status, transition, improvement,
					run.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum runs to list")
	return cmd
}
