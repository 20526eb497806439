package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/retiros-app/retiros/internal/cli"
	"github.com/retiros-app/retiros/internal/common"
	"github.com/retiros-app/retiros/internal/model"
	"github.com/retiros-app/retiros/internal/storage"
)

func transaccionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transaccion",
		Short: "Registrar y consultar transacciones",
		Long:  `Registrar ingresos y gastos de un retiro, listarlos y calcular balances.`,
	}

	cmd.AddCommand(crearTransaccionCmd())
	cmd.AddCommand(listarTransaccionesCmd())
	cmd.AddCommand(mostrarTransaccionCmd())
	cmd.AddCommand(eliminarTransaccionCmd())
	cmd.AddCommand(balanceCmd())

	return cmd
}

func crearTransaccionCmd() *cobra.Command {
	var (
		retiroID    string
		categoriaID string
		tipo        string
		fecha       string
		monto       float64
	)

	cmd := &cobra.Command{
		Use:   "crear <descripcion>",
		Short: "Registrar una transacción",
		Long:  `Registrar un movimiento de dinero contra un retiro. Sin --fecha se usa el momento actual.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			retiro, err := parseUUIDArg(retiroID, "retiro id")
			if err != nil {
				return err
			}
			categoria, err := parseUUIDArg(categoriaID, "categoria id")
			if err != nil {
				return err
			}

			input := model.CrearTransaccion{
				RetiroID:    retiro,
				CategoriaID: categoria,
				Tipo:        model.TipoTransaccion(tipo),
				Monto:       monto,
				Descripcion: args[0],
			}
			if fecha != "" {
				input.Fecha, err = parseDateTime(fecha)
				if err != nil {
					return err
				}
			}

			db, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := storage.NewTransaccionRepository(db)
			txn, err := repo.Create(ctx, input)
			if err != nil {
				return fmt.Errorf("failed to create transaccion: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Transacción registrada: %s %s (%s)",
				txn.Tipo, formatMonto(txn), txn.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&retiroID, "retiro", "", "id del retiro")
	cmd.Flags().StringVar(&categoriaID, "categoria", "", "id de la categoría")
	cmd.Flags().StringVar(&tipo, "tipo", "", "Ingreso o Gasto")
	cmd.Flags().Float64Var(&monto, "monto", 0, "importe (mayor que cero)")
	cmd.Flags().StringVar(&fecha, "fecha", "", "fecha del movimiento (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("retiro")
	_ = cmd.MarkFlagRequired("categoria")
	_ = cmd.MarkFlagRequired("tipo")
	_ = cmd.MarkFlagRequired("monto")

	return cmd
}

func listarTransaccionesCmd() *cobra.Command {
	var (
		retiroID string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "listar",
		Short: "Listar las transacciones de un retiro",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			retiro, err := parseUUIDArg(retiroID, "retiro id")
			if err != nil {
				return err
			}

			db, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := storage.NewTransaccionRepository(db)
			transacciones, err := repo.GetByRetiro(ctx, retiro)
			if err != nil {
				return fmt.Errorf("failed to list transacciones: %w", err)
			}
			if limit > 0 && len(transacciones) > limit {
				transacciones = transacciones[:limit]
			}

			if len(transacciones) == 0 {
				fmt.Println(cli.InfoStyle.Render("Este retiro no tiene transacciones."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("ID"),
				cli.TableHeaderStyle.Render("Fecha"),
				cli.TableHeaderStyle.Render("Tipo"),
				cli.TableHeaderStyle.Render("Monto"),
				cli.TableHeaderStyle.Render("Descripción"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 36),
				strings.Repeat("-", 16),
				strings.Repeat("-", 7),
				strings.Repeat("-", 10),
				strings.Repeat("-", 30))

			for _, txn := range transacciones {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					txn.ID,
					formatFecha(txn.Fecha),
					txn.Tipo,
					formatMonto(&txn),
					txn.Descripcion)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&retiroID, "retiro", "", "id del retiro")
	cmd.Flags().IntVar(&limit, "limit", 0, "mostrar como máximo N transacciones")
	_ = cmd.MarkFlagRequired("retiro")

	return cmd
}

func mostrarTransaccionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mostrar <id>",
		Short: "Mostrar una transacción",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseUUIDArg(args[0], "transaccion id")
			if err != nil {
				return err
			}

			db, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := storage.NewTransaccionRepository(db)
			txn, err := repo.GetByID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get transaccion: %w", err)
			}
			if txn == nil {
				return fmt.Errorf("transaccion %s: %w", id, common.ErrNotFound)
			}

			fmt.Println(cli.FormatTitle(txn.Descripcion))
			fmt.Printf("  ID:        %s\n", txn.ID)
			fmt.Printf("  Retiro:    %s\n", txn.RetiroID)
			fmt.Printf("  Categoría: %s\n", txn.CategoriaID)
			fmt.Printf("  Tipo:      %s\n", txn.Tipo)
			fmt.Printf("  Monto:     %s\n", formatMonto(txn))
			fmt.Printf("  Fecha:     %s\n", formatFecha(txn.Fecha))
			return nil
		},
	}
}

func eliminarTransaccionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eliminar <id>",
		Short: "Eliminar una transacción",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseUUIDArg(args[0], "transaccion id")
			if err != nil {
				return err
			}

			db, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := storage.NewTransaccionRepository(db)
			deleted, err := repo.Delete(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to delete transaccion: %w", err)
			}
			if !deleted {
				return fmt.Errorf("transaccion %s: %w", id, common.ErrNotFound)
			}

			fmt.Println(cli.FormatSuccess("Transacción eliminada"))
			return nil
		},
	}
}

func balanceCmd() *cobra.Command {
	var retiroID string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Calcular el balance de un retiro",
		Long:  `Mostrar ingresos, gastos y balance neto (ingresos menos gastos) de un retiro.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			retiro, err := parseUUIDArg(retiroID, "retiro id")
			if err != nil {
				return err
			}

			db, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := storage.NewTransaccionRepository(db)

			ingreso := model.TipoTransaccionIngreso
			totalIngresos, err := repo.CalculateBalance(ctx, retiro, &ingreso)
			if err != nil {
				return fmt.Errorf("failed to calculate ingresos: %w", err)
			}

			gasto := model.TipoTransaccionGasto
			totalGastos, err := repo.CalculateBalance(ctx, retiro, &gasto)
			if err != nil {
				return fmt.Errorf("failed to calculate gastos: %w", err)
			}

			count, err := repo.CountByRetiro(ctx, retiro)
			if err != nil {
				return fmt.Errorf("failed to count transacciones: %w", err)
			}

			fmt.Println(cli.FormatTitle("Balance del retiro"))
			fmt.Printf("  Ingresos:      %s\n", cli.IncomeStyle.Render(fmt.Sprintf("%.2f", totalIngresos)))
			fmt.Printf("  Gastos:        %s\n", cli.ExpenseStyle.Render(fmt.Sprintf("%.2f", totalGastos)))
			fmt.Printf("  Balance:       %s\n", formatBalance(totalIngresos-totalGastos))
			fmt.Printf("  Transacciones: %d\n", count)
			return nil
		},
	}

	cmd.Flags().StringVar(&retiroID, "retiro", "", "id del retiro")
	_ = cmd.MarkFlagRequired("retiro")

	return cmd
}

func formatMonto(txn *model.Transaccion) string {
	text := fmt.Sprintf("%.2f", txn.Monto)
	if txn.Tipo == model.TipoTransaccionGasto {
		return cli.ExpenseStyle.Render("-" + text)
	}
	return cli.IncomeStyle.Render("+" + text)
}
