package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/retiros-app/retiros/internal/cli"
	"github.com/retiros-app/retiros/internal/export"
)

func exportarCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "exportar",
		Short: "Exportar los datos a CSV",
		Long:  `Volcar categorías, retiros y transacciones a archivos CSV en un directorio.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			exporter := export.New(db)

			total, err := exporter.CountRows(ctx)
			if err != nil {
				return fmt.Errorf("failed to count rows: %w", err)
			}

			bar := progressbar.NewOptions(int(total),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("[cyan][bold]Exportando registros...[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(os.Stderr)
				}),
			)
			exporter.OnRow = func() {
				_ = bar.Add(1)
			}

			files, err := exporter.ExportAll(ctx, dir)
			if err != nil {
				return fmt.Errorf("failed to export: %w", err)
			}
			_ = bar.Finish()

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%d registros exportados", total)))
			for _, path := range files {
				fmt.Printf("  %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "export", "directorio de destino")

	return cmd
}
