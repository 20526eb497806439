// Package export writes the stored records out as CSV files.
package export

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/retiros-app/retiros/internal/storage"
)

// Exporter dumps categories, retreats and transactions to CSV. Transactions
// are gathered retreat by retreat since there is no unscoped listing.
type Exporter struct {
	categorias    *storage.CategoriaRepository
	retiros       *storage.RetiroRepository
	transacciones *storage.TransaccionRepository

	// OnRow is called once per exported record, if set.
	OnRow func()
}

// New wires an exporter over the caller-owned pool.
func New(db *sql.DB) *Exporter {
	return &Exporter{
		categorias:    storage.NewCategoriaRepository(db),
		retiros:       storage.NewRetiroRepository(db),
		transacciones: storage.NewTransaccionRepository(db),
	}
}

// CountRows returns the number of records ExportAll will write.
func (e *Exporter) CountRows(ctx context.Context) (int64, error) {
	retiros, err := e.retiros.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	categorias, err := e.categorias.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	total := int64(len(retiros) + len(categorias))
	for _, retiro := range retiros {
		count, err := e.transacciones.CountByRetiro(ctx, retiro.ID)
		if err != nil {
			return 0, err
		}
		total += count
	}
	return total, nil
}

// ExportAll writes categorias.csv, retiros.csv and transacciones.csv into
// dir, creating it if needed, and returns the written file paths.
func (e *Exporter) ExportAll(ctx context.Context, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	files := []struct {
		write func(context.Context, *csv.Writer) error
		name  string
	}{
		{e.writeCategorias, "categorias.csv"},
		{e.writeRetiros, "retiros.csv"},
		{e.writeTransacciones, "transacciones.csv"},
	}

	written := make([]string, 0, len(files))
	for _, file := range files {
		path := filepath.Join(dir, file.name)
		if err := e.writeFile(ctx, path, file.write); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func (e *Exporter) writeFile(ctx context.Context, path string, write func(context.Context, *csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := write(ctx, w); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return nil
}

func (e *Exporter) rowWritten() {
	if e.OnRow != nil {
		e.OnRow()
	}
}

func (e *Exporter) writeCategorias(ctx context.Context, w *csv.Writer) error {
	if err := w.Write([]string{"id", "nombre", "tipo", "color"}); err != nil {
		return err
	}

	categorias, err := e.categorias.GetAll(ctx)
	if err != nil {
		return err
	}
	for _, cat := range categorias {
		record := []string{cat.ID.String(), cat.Nombre, string(cat.Tipo), cat.Color}
		if err := w.Write(record); err != nil {
			return err
		}
		e.rowWritten()
	}
	return nil
}

func (e *Exporter) writeRetiros(ctx context.Context, w *csv.Writer) error {
	header := []string{"id", "nombre", "descripcion", "fecha_inicio", "fecha_fin",
		"ubicacion", "numero_participantes", "estado", "created_at", "updated_at"}
	if err := w.Write(header); err != nil {
		return err
	}

	retiros, err := e.retiros.GetAll(ctx)
	if err != nil {
		return err
	}
	for _, retiro := range retiros {
		record := []string{
			retiro.ID.String(),
			retiro.Nombre,
			retiro.Descripcion,
			retiro.FechaInicio.Format("2006-01-02 15:04:05"),
			retiro.FechaFin.Format("2006-01-02 15:04:05"),
			retiro.Ubicacion,
			strconv.Itoa(retiro.NumeroParticipantes),
			string(retiro.Estado),
			retiro.CreatedAt.Format("2006-01-02 15:04:05"),
			retiro.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := w.Write(record); err != nil {
			return err
		}
		e.rowWritten()
	}
	return nil
}

func (e *Exporter) writeTransacciones(ctx context.Context, w *csv.Writer) error {
	header := []string{"id", "retiro_id", "categoria_id", "tipo", "monto",
		"descripcion", "fecha", "created_at", "updated_at"}
	if err := w.Write(header); err != nil {
		return err
	}

	retiros, err := e.retiros.GetAll(ctx)
	if err != nil {
		return err
	}
	for _, retiro := range retiros {
		transacciones, err := e.transacciones.GetByRetiro(ctx, retiro.ID)
		if err != nil {
			return err
		}
		for _, txn := range transacciones {
			record := []string{
				txn.ID.String(),
				txn.RetiroID.String(),
				txn.CategoriaID.String(),
				string(txn.Tipo),
				strconv.FormatFloat(txn.Monto, 'f', 2, 64),
				txn.Descripcion,
				txn.Fecha.Format("2006-01-02 15:04:05"),
				txn.CreatedAt.Format("2006-01-02 15:04:05"),
				txn.UpdatedAt.Format("2006-01-02 15:04:05"),
			}
			if err := w.Write(record); err != nil {
				return err
			}
			e.rowWritten()
		}
	}
	return nil
}
