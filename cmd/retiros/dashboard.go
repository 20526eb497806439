package main

import (
	"github.com/spf13/cobra"

	"github.com/retiros-app/retiros/internal/tui"
)

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Panel interactivo de retiros",
		Long:  `Abrir un panel de terminal con los retiros y sus balances.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			return tui.Run(ctx, db)
		},
	}
}
