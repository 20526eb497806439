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

func categoriaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categoria",
		Short: "Gestionar categorías de transacciones",
		Long:  `Crear, listar, actualizar y eliminar las categorías de ingresos y gastos.`,
	}

	cmd.AddCommand(crearCategoriaCmd())
	cmd.AddCommand(listarCategoriasCmd())
	cmd.AddCommand(mostrarCategoriaCmd())
	cmd.AddCommand(actualizarCategoriaCmd())
	cmd.AddCommand(eliminarCategoriaCmd())

	return cmd
}

func crearCategoriaCmd() *cobra.Command {
	var (
		tipo  string
		color string
	)

	cmd := &cobra.Command{
		Use:   "crear <nombre>",
		Short: "Crear una categoría",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := storage.NewCategoriaRepository(db)
			categoria, err := repo.Create(ctx, model.CrearCategoria{
				Nombre: args[0],
				Tipo:   model.TipoCategoria(tipo),
				Color:  color,
			})
			if err != nil {
				return fmt.Errorf("failed to create categoria: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Categoría %q creada (%s)", categoria.Nombre, categoria.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&tipo, "tipo", "", "Ingreso o Gasto")
	cmd.Flags().StringVar(&color, "color", "#7C9E6C", "color en formato #RRGGBB")
	_ = cmd.MarkFlagRequired("tipo")

	return cmd
}

func listarCategoriasCmd() *cobra.Command {
	var tipo string

	cmd := &cobra.Command{
		Use:   "listar",
		Short: "Listar categorías",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := storage.NewCategoriaRepository(db)

			var categorias []model.Categoria
			if tipo != "" {
				parsed, err := model.ParseTipoCategoria(tipo)
				if err != nil {
					return err
				}
				categorias, err = repo.GetByTipo(ctx, parsed)
				if err != nil {
					return fmt.Errorf("failed to list categorias: %w", err)
				}
			} else {
				categorias, err = repo.GetAll(ctx)
				if err != nil {
					return fmt.Errorf("failed to list categorias: %w", err)
				}
			}

			if len(categorias) == 0 {
				fmt.Println(cli.InfoStyle.Render("No hay categorías. Usa 'retiros categoria crear' para añadir una."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("ID"),
				cli.TableHeaderStyle.Render("Nombre"),
				cli.TableHeaderStyle.Render("Tipo"),
				cli.TableHeaderStyle.Render("Color"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 36),
				strings.Repeat("-", 20),
				strings.Repeat("-", 8),
				strings.Repeat("-", 8))

			for _, cat := range categorias {
				tipoCell := string(cat.Tipo)
				if cat.Tipo == model.TipoCategoriaIngreso {
					tipoCell = cli.IncomeStyle.Render(tipoCell)
				} else {
					tipoCell = cli.ExpenseStyle.Render(tipoCell)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", cat.ID, cat.Nombre, tipoCell, cat.Color)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&tipo, "tipo", "", "filtrar por tipo (Ingreso o Gasto)")

	return cmd
}

func mostrarCategoriaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mostrar <id>",
		Short: "Mostrar una categoría",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseUUIDArg(args[0], "categoria id")
			if err != nil {
				return err
			}

			db, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := storage.NewCategoriaRepository(db)
			categoria, err := repo.GetByID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get categoria: %w", err)
			}
			if categoria == nil {
				return fmt.Errorf("categoria %s: %w", id, common.ErrNotFound)
			}

			fmt.Println(cli.FormatTitle(categoria.Nombre))
			fmt.Printf("  ID:    %s\n", categoria.ID)
			fmt.Printf("  Tipo:  %s\n", categoria.Tipo)
			fmt.Printf("  Color: %s\n", categoria.Color)
			return nil
		},
	}
}

func actualizarCategoriaCmd() *cobra.Command {
	var (
		nombre string
		tipo   string
		color  string
	)

	cmd := &cobra.Command{
		Use:   "actualizar <id>",
		Short: "Actualizar una categoría",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseUUIDArg(args[0], "categoria id")
			if err != nil {
				return err
			}

			db, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := storage.NewCategoriaRepository(db)
			current, err := repo.GetByID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get categoria: %w", err)
			}
			if current == nil {
				return fmt.Errorf("categoria %s: %w", id, common.ErrNotFound)
			}

			// Unspecified flags keep the stored values.
			input := model.CrearCategoria{
				Nombre: current.Nombre,
				Tipo:   current.Tipo,
				Color:  current.Color,
			}
			if nombre != "" {
				input.Nombre = nombre
			}
			if tipo != "" {
				input.Tipo = model.TipoCategoria(tipo)
			}
			if color != "" {
				input.Color = color
			}

			updated, err := repo.Update(ctx, id, input)
			if err != nil {
				return fmt.Errorf("failed to update categoria: %w", err)
			}
			if updated == nil {
				return fmt.Errorf("categoria %s: %w", id, common.ErrNotFound)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Categoría %q actualizada", updated.Nombre)))
			return nil
		},
	}

	cmd.Flags().StringVar(&nombre, "nombre", "", "nuevo nombre")
	cmd.Flags().StringVar(&tipo, "tipo", "", "nuevo tipo (Ingreso o Gasto)")
	cmd.Flags().StringVar(&color, "color", "", "nuevo color #RRGGBB")

	return cmd
}

func eliminarCategoriaCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "eliminar <id>",
		Short: "Eliminar una categoría",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseUUIDArg(args[0], "categoria id")
			if err != nil {
				return err
			}

			db, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if !force {
				count, err := storage.NewTransaccionRepository(db).CountByCategoria(ctx, id)
				if err != nil {
					return fmt.Errorf("failed to count transacciones: %w", err)
				}
				if count > 0 {
					fmt.Println(cli.FormatWarning(fmt.Sprintf("Hay %d transacciones que usan esta categoría.", count)))
				}
				fmt.Printf("¿Eliminar la categoría %s? (y/N): ", id)
				var response string
				fmt.Scanln(&response)
				if strings.ToLower(response) != "y" {
					fmt.Println("Eliminación cancelada.")
					return nil
				}
			}

			repo := storage.NewCategoriaRepository(db)
			deleted, err := repo.Delete(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to delete categoria: %w", err)
			}
			if !deleted {
				return fmt.Errorf("categoria %s: %w", id, common.ErrNotFound)
			}

			fmt.Println(cli.FormatSuccess("Categoría eliminada"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")

	return cmd
}
