package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retiros-app/retiros/internal/cli"
	"github.com/retiros-app/retiros/internal/storage"
)

func estadisticasCmd() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "estadisticas",
		Short: "Resumen financiero global",
		Long: `Mostrar el balance global, los promedios por retiro, las categorías
con más gasto y los últimos retiros finalizados.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			retiros := storage.NewRetiroRepository(db)
			transacciones := storage.NewTransaccionRepository(db)

			global, err := transacciones.CalculateGlobalBalance(ctx)
			if err != nil {
				return fmt.Errorf("failed to calculate global balance: %w", err)
			}

			participantes, err := retiros.TotalParticipantes(ctx)
			if err != nil {
				return fmt.Errorf("failed to total participantes: %w", err)
			}

			fmt.Println(cli.FormatTitle("Balance global"))
			fmt.Printf("  Ingresos:       %s\n", cli.IncomeStyle.Render(fmt.Sprintf("%.2f", global.TotalIngresos)))
			fmt.Printf("  Gastos:         %s\n", cli.ExpenseStyle.Render(fmt.Sprintf("%.2f", global.TotalGastos)))
			fmt.Printf("  Balance:        %s\n", formatBalance(global.TotalIngresos-global.TotalGastos))
			fmt.Printf("  Transacciones:  %d\n", global.Transacciones)
			fmt.Printf("  Participantes:  %d\n", participantes)

			stats, err := transacciones.GetRetiroStatistics(ctx)
			if err != nil {
				return fmt.Errorf("failed to get retiro statistics: %w", err)
			}

			fmt.Println()
			fmt.Println(cli.FormatTitle("Promedios por retiro"))
			fmt.Printf("  Balance promedio:  %s\n", formatBalance(stats.PromedioBalance))
			fmt.Printf("  Ingreso promedio:  %s\n", cli.IncomeStyle.Render(fmt.Sprintf("%.2f", stats.PromedioIngresos)))
			fmt.Printf("  Gasto promedio:    %s\n", cli.ExpenseStyle.Render(fmt.Sprintf("%.2f", stats.PromedioGastos)))
			fmt.Printf("  Retiros con gasto: %d\n", stats.RetirosConGastos)

			categorias, err := transacciones.GetTopCategoriasByGasto(ctx, top)
			if err != nil {
				return fmt.Errorf("failed to get top categorias: %w", err)
			}

			if len(categorias) > 0 {
				fmt.Println()
				fmt.Println(cli.FormatTitle("Categorías con más gasto"))
				for i, cat := range categorias {
					fmt.Printf("  %d. %s: %s\n", i+1, cat.Nombre,
						cli.ExpenseStyle.Render(fmt.Sprintf("%.2f", cat.Total)))
				}
			}

			finalizados, err := retiros.RecentFinalizados(ctx, 5)
			if err != nil {
				return fmt.Errorf("failed to get recent finalizados: %w", err)
			}

			if len(finalizados) > 0 {
				fmt.Println()
				fmt.Println(cli.FormatTitle("Últimos retiros finalizados"))
				for _, retiro := range finalizados {
					fmt.Printf("  %s (%s)\n", retiro.Nombre, formatFecha(retiro.FechaFin))
				}
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 5, "cuántas categorías de gasto mostrar")

	return cmd
}
