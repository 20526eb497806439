package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/retiros-app/retiros/internal/bridge"
	"github.com/retiros-app/retiros/internal/common"
	"github.com/retiros-app/retiros/internal/config"
)

func bridgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bridge",
		Short: "Atender comandos JSON por stdin/stdout",
		Long: `Ejecutar el puente de comandos para la aplicación de escritorio:
lee peticiones JSON por línea en stdin y responde por stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			common.LogInfo("bridge listening on stdin", common.Fields{
				"database": config.DatabasePath(),
			})
			return bridge.New(db).Serve(ctx, os.Stdin, os.Stdout)
		},
	}
}
