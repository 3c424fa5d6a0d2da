package main

import (
	"github.com/spf13/cobra"

	"codequest/internal/app"
)

func newHistoryCmd(flags *rootFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent generate, run and submit attempts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			return app.WriteHistory(cmd.Context(), cmd.OutOrStdout(), cfg, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of attempts to show")
	return cmd
}
