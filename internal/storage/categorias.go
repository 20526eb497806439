package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/retiros-app/retiros/internal/common"
	"github.com/retiros-app/retiros/internal/model"
)

// CategoriaRepository owns all CRUD access to the categorias table.
type CategoriaRepository struct {
	db *sql.DB
}

// NewCategoriaRepository creates a repository bound to the shared pool.
func NewCategoriaRepository(db *sql.DB) *CategoriaRepository {
	return &CategoriaRepository{db: db}
}

// Create validates the input, assigns a fresh identity, and persists the
// category.
func (r *CategoriaRepository) Create(ctx context.Context, data model.CrearCategoria) (*model.Categoria, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}

	categoria := model.NewCategoria(data)

	query := `
		INSERT INTO categorias (id, nombre, tipo, color)
		VALUES (?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		categoria.ID.String(), categoria.Nombre, string(categoria.Tipo), categoria.Color)
	if err != nil {
		return nil, fmt.Errorf("failed to insert categoria: %w", err)
	}

	slog.Info("created categoria", "id", categoria.ID, "nombre", categoria.Nombre, "tipo", categoria.Tipo)
	return &categoria, nil
}

// GetByID returns the category or nil when no row matches.
func (r *CategoriaRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Categoria, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, nombre, tipo, color
		FROM categorias
		WHERE id = ?`

	categoria, err := scanCategoria(r.db.QueryRowContext(ctx, query, id.String()))
	if err == sql.ErrNoRows {
		return nil, nil // not found is absence, not an error
	}
	if err != nil {
		return nil, err
	}

	return categoria, nil
}

// GetAll returns every category ordered by name.
func (r *CategoriaRepository) GetAll(ctx context.Context) ([]model.Categoria, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, nombre, tipo, color
		FROM categorias
		ORDER BY nombre`

	return r.queryCategorias(ctx, query)
}

// GetByTipo returns the categories of the given kind ordered by name.
func (r *CategoriaRepository) GetByTipo(ctx context.Context, tipo model.TipoCategoria) ([]model.Categoria, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, nombre, tipo, color
		FROM categorias
		WHERE tipo = ?
		ORDER BY nombre`

	return r.queryCategorias(ctx, query, string(tipo))
}

// Update validates the input and overwrites all mutable fields. It returns
// nil when no row matches the id, leaving nothing mutated.
func (r *CategoriaRepository) Update(ctx context.Context, id uuid.UUID, data model.CrearCategoria) (*model.Categoria, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}

	query := `
		UPDATE categorias
		SET nombre = ?, tipo = ?, color = ?, updated_at = datetime('now')
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		data.Nombre, string(data.Tipo), data.Color, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to update categoria: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	slog.Info("updated categoria", "id", id)
	return r.GetByID(ctx, id)
}

// Delete removes the category and reports whether a row existed. Referential
// integrity with transactions is the caller's concern.
func (r *CategoriaRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM categorias WHERE id = ?`, id.String())
	if err != nil {
		return false, fmt.Errorf("failed to delete categoria: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected > 0 {
		slog.Info("deleted categoria", "id", id)
	}
	return affected > 0, nil
}

// CountByTipo returns how many categories exist for the given kind.
func (r *CategoriaRepository) CountByTipo(ctx context.Context, tipo model.TipoCategoria) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categorias WHERE tipo = ?`, string(tipo)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count categorias: %w", err)
	}

	return count, nil
}

func (r *CategoriaRepository) queryCategorias(ctx context.Context, query string, args ...any) ([]model.Categoria, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categorias: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categorias []model.Categoria
	for rows.Next() {
		categoria, err := scanCategoria(rows)
		if err != nil {
			return nil, err
		}
		categorias = append(categorias, *categoria)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categorias: %w", err)
	}

	slog.Debug("retrieved categorias", "count", len(categorias))
	return categorias, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategoria(row rowScanner) (*model.Categoria, error) {
	var idStr, tipoStr string
	var categoria model.Categoria

	if err := row.Scan(&idStr, &categoria.Nombre, &tipoStr, &categoria.Color); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan categoria: %w", err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, common.InternalError("categoria id %q is not a UUID: %v", idStr, err)
	}
	categoria.ID = id

	tipo, err := model.ParseTipoCategoria(tipoStr)
	if err != nil {
		return nil, common.InternalError("categoria %s: %v", idStr, err)
	}
	categoria.Tipo = tipo

	return &categoria, nil
}
