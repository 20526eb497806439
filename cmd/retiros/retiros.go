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

func retiroCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retiro",
		Short: "Gestionar retiros",
		Long:  `Crear, listar, actualizar y eliminar retiros, y cambiar su estado.`,
	}

	cmd.AddCommand(crearRetiroCmd())
	cmd.AddCommand(listarRetirosCmd())
	cmd.AddCommand(mostrarRetiroCmd())
	cmd.AddCommand(buscarRetirosCmd())
	cmd.AddCommand(actualizarRetiroCmd())
	cmd.AddCommand(estadoRetiroCmd())
	cmd.AddCommand(eliminarRetiroCmd())

	return cmd
}

func crearRetiroCmd() *cobra.Command {
	var (
		descripcion   string
		ubicacion     string
		fechaInicio   string
		fechaFin      string
		participantes int
	)

	cmd := &cobra.Command{
		Use:   "crear <nombre>",
		Short: "Crear un retiro",
		Long:  `Registrar un retiro nuevo. Los retiros empiezan en estado Planificacion.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			inicio, err := parseDateTime(fechaInicio)
			if err != nil {
				return err
			}
			fin, err := parseDateTime(fechaFin)
			if err != nil {
				return err
			}

			db, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := storage.NewRetiroRepository(db)
			retiro, err := repo.Create(ctx, model.CrearRetiro{
				Nombre:              args[0],
				Descripcion:         descripcion,
				Ubicacion:           ubicacion,
				FechaInicio:         inicio,
				FechaFin:            fin,
				NumeroParticipantes: participantes,
			})
			if err != nil {
				return fmt.Errorf("failed to create retiro: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Retiro %q creado (%s)", retiro.Nombre, retiro.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&fechaInicio, "inicio", "", "fecha de inicio (YYYY-MM-DD)")
	cmd.Flags().StringVar(&fechaFin, "fin", "", "fecha de fin (YYYY-MM-DD)")
	cmd.Flags().IntVar(&participantes, "participantes", 1, "número de participantes")
	cmd.Flags().StringVar(&descripcion, "descripcion", "", "descripción del retiro")
	cmd.Flags().StringVar(&ubicacion, "ubicacion", "", "ubicación del retiro")
	_ = cmd.MarkFlagRequired("inicio")
	_ = cmd.MarkFlagRequired("fin")

	return cmd
}

func listarRetirosCmd() *cobra.Command {
	var (
		estado  string
		activos bool
	)

	cmd := &cobra.Command{
		Use:   "listar",
		Short: "Listar retiros",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := storage.NewRetiroRepository(db)

			var retiros []model.Retiro
			switch {
			case activos:
				retiros, err = repo.GetActive(ctx)
			case estado != "":
				var parsed model.EstadoRetiro
				parsed, err = model.ParseEstadoRetiro(estado)
				if err != nil {
					return err
				}
				retiros, err = repo.GetByEstado(ctx, parsed)
			default:
				retiros, err = repo.GetAll(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to list retiros: %w", err)
			}

			if len(retiros) == 0 {
				fmt.Println(cli.InfoStyle.Render("No hay retiros. Usa 'retiros retiro crear' para registrar uno."))
				return nil
			}

			printRetirosTable(retiros)
			return nil
		},
	}

	cmd.Flags().StringVar(&estado, "estado", "", "filtrar por estado (Planificacion, Activo, Finalizado)")
	cmd.Flags().BoolVar(&activos, "activos", false, "mostrar solo retiros activos")

	return cmd
}

func mostrarRetiroCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mostrar <id>",
		Short: "Mostrar un retiro con su balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseUUIDArg(args[0], "retiro id")
			if err != nil {
				return err
			}

			db, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			retiros := storage.NewRetiroRepository(db)
			retiro, err := retiros.GetByID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get retiro: %w", err)
			}
			if retiro == nil {
				return fmt.Errorf("retiro %s: %w", id, common.ErrNotFound)
			}

			transacciones := storage.NewTransaccionRepository(db)
			balance, err := transacciones.CalculateBalance(ctx, id, nil)
			if err != nil {
				return fmt.Errorf("failed to calculate balance: %w", err)
			}
			count, err := transacciones.CountByRetiro(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to count transacciones: %w", err)
			}

			fmt.Println(cli.FormatTitle(retiro.Nombre))
			fmt.Printf("  ID:            %s\n", retiro.ID)
			fmt.Printf("  Estado:        %s\n", retiro.Estado)
			fmt.Printf("  Fechas:        %s a %s\n", formatFecha(retiro.FechaInicio), formatFecha(retiro.FechaFin))
			fmt.Printf("  Participantes: %d\n", retiro.NumeroParticipantes)
			if retiro.Ubicacion != "" {
				fmt.Printf("  Ubicación:     %s\n", retiro.Ubicacion)
			}
			if retiro.Descripcion != "" {
				fmt.Printf("  Descripción:   %s\n", retiro.Descripcion)
			}
			fmt.Printf("  Transacciones: %d\n", count)
			fmt.Printf("  Balance:       %s\n", formatBalance(balance))
			return nil
		},
	}
}

func buscarRetirosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buscar <texto>",
		Short: "Buscar retiros por nombre",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := storage.NewRetiroRepository(db)
			retiros, err := repo.SearchByName(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to search retiros: %w", err)
			}

			if len(retiros) == 0 {
				fmt.Println(cli.InfoStyle.Render(fmt.Sprintf("Ningún retiro coincide con %q.", args[0])))
				return nil
			}

			printRetirosTable(retiros)
			return nil
		},
	}
}

func actualizarRetiroCmd() *cobra.Command {
	var (
		nombre        string
		descripcion   string
		ubicacion     string
		fechaInicio   string
		fechaFin      string
		participantes int
	)

	cmd := &cobra.Command{
		Use:   "actualizar <id>",
		Short: "Actualizar un retiro",
		Long:  `Actualizar los datos de un retiro. El estado no cambia; usa 'retiros retiro estado'.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseUUIDArg(args[0], "retiro id")
			if err != nil {
				return err
			}

			db, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := storage.NewRetiroRepository(db)
			current, err := repo.GetByID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get retiro: %w", err)
			}
			if current == nil {
				return fmt.Errorf("retiro %s: %w", id, common.ErrNotFound)
			}

			// Unspecified flags keep the stored values.
			input := model.CrearRetiro{
				Nombre:              current.Nombre,
				Descripcion:         current.Descripcion,
				Ubicacion:           current.Ubicacion,
				FechaInicio:         current.FechaInicio,
				FechaFin:            current.FechaFin,
				NumeroParticipantes: current.NumeroParticipantes,
			}
			if nombre != "" {
				input.Nombre = nombre
			}
			if cmd.Flags().Changed("descripcion") {
				input.Descripcion = descripcion
			}
			if cmd.Flags().Changed("ubicacion") {
				input.Ubicacion = ubicacion
			}
			if fechaInicio != "" {
				input.FechaInicio, err = parseDateTime(fechaInicio)
				if err != nil {
					return err
				}
			}
			if fechaFin != "" {
				input.FechaFin, err = parseDateTime(fechaFin)
				if err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("participantes") {
				input.NumeroParticipantes = participantes
			}

			updated, err := repo.Update(ctx, id, input)
			if err != nil {
				return fmt.Errorf("failed to update retiro: %w", err)
			}
			if updated == nil {
				return fmt.Errorf("retiro %s: %w", id, common.ErrNotFound)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Retiro %q actualizado", updated.Nombre)))
			return nil
		},
	}

	cmd.Flags().StringVar(&nombre, "nombre", "", "nuevo nombre")
	cmd.Flags().StringVar(&descripcion, "descripcion", "", "nueva descripción")
	cmd.Flags().StringVar(&ubicacion, "ubicacion", "", "nueva ubicación")
	cmd.Flags().StringVar(&fechaInicio, "inicio", "", "nueva fecha de inicio (YYYY-MM-DD)")
	cmd.Flags().StringVar(&fechaFin, "fin", "", "nueva fecha de fin (YYYY-MM-DD)")
	cmd.Flags().IntVar(&participantes, "participantes", 0, "nuevo número de participantes")

	return cmd
}

func estadoRetiroCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "estado <id> <estado>",
		Short: "Cambiar el estado de un retiro",
		Long:  `Mover un retiro a Planificacion, Activo o Finalizado.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseUUIDArg(args[0], "retiro id")
			if err != nil {
				return err
			}

			db, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := storage.NewRetiroRepository(db)
			updated, err := repo.UpdateEstado(ctx, id, model.EstadoRetiro(args[1]))
			if err != nil {
				return fmt.Errorf("failed to update estado: %w", err)
			}
			if updated == nil {
				return fmt.Errorf("retiro %s: %w", id, common.ErrNotFound)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Retiro %q ahora está en %s", updated.Nombre, updated.Estado)))
			return nil
		},
	}
}

func eliminarRetiroCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "eliminar <id>",
		Short: "Eliminar un retiro",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseUUIDArg(args[0], "retiro id")
			if err != nil {
				return err
			}

			db, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			transacciones := storage.NewTransaccionRepository(db)
			count, err := transacciones.CountByRetiro(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to count transacciones: %w", err)
			}

			if !force {
				if count > 0 {
					fmt.Println(cli.FormatWarning(fmt.Sprintf("Este retiro tiene %d transacciones que quedarán sin retiro asociado.", count)))
				}
				fmt.Printf("¿Eliminar el retiro %s? (y/N): ", id)
				var response string
				fmt.Scanln(&response)
				if strings.ToLower(response) != "y" {
					fmt.Println("Eliminación cancelada.")
					return nil
				}
			}

			repo := storage.NewRetiroRepository(db)
			deleted, err := repo.Delete(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to delete retiro: %w", err)
			}
			if !deleted {
				return fmt.Errorf("retiro %s: %w", id, common.ErrNotFound)
			}

			fmt.Println(cli.FormatSuccess("Retiro eliminado"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")

	return cmd
}

func printRetirosTable(retiros []model.Retiro) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		cli.TableHeaderStyle.Render("ID"),
		cli.TableHeaderStyle.Render("Nombre"),
		cli.TableHeaderStyle.Render("Estado"),
		cli.TableHeaderStyle.Render("Inicio"),
		cli.TableHeaderStyle.Render("Participantes"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("-", 36),
		strings.Repeat("-", 25),
		strings.Repeat("-", 13),
		strings.Repeat("-", 10),
		strings.Repeat("-", 13))

	for _, retiro := range retiros {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			retiro.ID,
			retiro.Nombre,
			retiro.Estado,
			formatFecha(retiro.FechaInicio),
			retiro.NumeroParticipantes)
	}
}

func formatBalance(balance float64) string {
	text := fmt.Sprintf("%.2f", balance)
	if balance < 0 {
		return cli.ExpenseStyle.Render(text)
	}
	return cli.IncomeStyle.Render(text)
}
