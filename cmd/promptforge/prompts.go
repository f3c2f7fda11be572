package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// promptsCmd inspects the stored prompt versions.
func promptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Inspect stored prompt versions",
	}
	cmd.AddCommand(promptsListCmd(), promptsShowCmd())
	return cmd
}

func promptsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List prompt versions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, s, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			prompts, err := s.ListPrompts(ctx, limit)
			if err != nil {
				return err
			}
			if len(prompts) == 0 {
				fmt.Println("No prompt versions stored yet.")
				return nil
			}

			for _, p := range prompts {
				marker := " "
				if p.IsActive {
					marker = "*"
				}
				notes := ""
				if p.Notes != nil {
					notes = strings.SplitN(*p.Notes, "\n", 2)[0]
				}
				fmt.Printf("%s %-8s %s  %s\n", marker, p.Version, p.CreatedAt.Format("2006-01-02 15:04:05"), notes)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum versions to list")
	return cmd
}

func promptsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <version>",
		Short: "Print the full content of one prompt version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, s, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			p, err := s.GetPromptByVersion(ctx, args[0])
			if err != nil {
				return err
			}
			if p == nil {
				return fmt.Errorf("prompt version %q not found", args[0])
			}

			fmt.Printf("Version:    %s\n", p.Version)
			fmt.Printf("Created:    %s\n", p.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("Active:     %t\n", p.IsActive)
			if p.Notes != nil {
				fmt.Printf("Notes:      %s\n", *p.Notes)
			}
			fmt.Println()
			fmt.Println(p.Content)
			return nil
		},
	}
}
