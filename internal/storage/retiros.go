package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/retiros-app/retiros/internal/common"
	"github.com/retiros-app/retiros/internal/model"
)

// RetiroRepository owns all CRUD access to the retiros table.
type RetiroRepository struct {
	db *sql.DB
}

// NewRetiroRepository creates a repository bound to the shared pool.
func NewRetiroRepository(db *sql.DB) *RetiroRepository {
	return &RetiroRepository{db: db}
}

const retiroColumns = `id, nombre, descripcion, fecha_inicio, fecha_fin,
		ubicacion, numero_participantes, estado, created_at, updated_at`

// Create validates the input and persists a new retreat in the
// Planificacion state.
func (r *RetiroRepository) Create(ctx context.Context, data model.CrearRetiro) (*model.Retiro, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}

	retiro := model.NewRetiro(data)

	query := `
		INSERT INTO retiros (` + retiroColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		retiro.ID.String(),
		retiro.Nombre,
		nullable(retiro.Descripcion),
		formatStoredTime(retiro.FechaInicio),
		formatStoredTime(retiro.FechaFin),
		nullable(retiro.Ubicacion),
		retiro.NumeroParticipantes,
		string(retiro.Estado),
		formatStoredTime(retiro.CreatedAt),
		formatStoredTime(retiro.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert retiro: %w", err)
	}

	slog.Info("created retiro", "id", retiro.ID, "nombre", retiro.Nombre)
	return &retiro, nil
}

// GetByID returns the retreat or nil when no row matches.
func (r *RetiroRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Retiro, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + retiroColumns + ` FROM retiros WHERE id = ?`

	retiro, err := scanRetiro(r.db.QueryRowContext(ctx, query, id.String()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return retiro, nil
}

// GetAll returns every retreat, most recent start date first.
func (r *RetiroRepository) GetAll(ctx context.Context) ([]model.Retiro, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + retiroColumns + ` FROM retiros ORDER BY fecha_inicio DESC`
	return r.queryRetiros(ctx, query)
}

// GetByEstado returns the retreats in the given state, most recent start
// date first.
func (r *RetiroRepository) GetByEstado(ctx context.Context, estado model.EstadoRetiro) ([]model.Retiro, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + retiroColumns + ` FROM retiros WHERE estado = ? ORDER BY fecha_inicio DESC`
	return r.queryRetiros(ctx, query, string(estado))
}

// GetActive returns the retreats currently in progress.
func (r *RetiroRepository) GetActive(ctx context.Context) ([]model.Retiro, error) {
	return r.GetByEstado(ctx, model.EstadoActivo)
}

// SearchByName returns the retreats whose name contains the query substring,
// most recent start date first. Case sensitivity follows the engine's
// collation; an empty query matches every retreat.
func (r *RetiroRepository) SearchByName(ctx context.Context, query string) ([]model.Retiro, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	stmt := `SELECT ` + retiroColumns + ` FROM retiros WHERE nombre LIKE ? ORDER BY fecha_inicio DESC`
	return r.queryRetiros(ctx, stmt, "%"+query+"%")
}

// Update validates the input and overwrites the caller-editable fields,
// preserving estado and created_at and refreshing updated_at. It returns nil
// when no row matches the id.
func (r *RetiroRepository) Update(ctx context.Context, id uuid.UUID, data model.CrearRetiro) (*model.Retiro, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}

	query := `
		UPDATE retiros
		SET nombre = ?, descripcion = ?, fecha_inicio = ?, fecha_fin = ?,
		    ubicacion = ?, numero_participantes = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		data.Nombre,
		nullable(data.Descripcion),
		formatStoredTime(data.FechaInicio),
		formatStoredTime(data.FechaFin),
		nullable(data.Ubicacion),
		data.NumeroParticipantes,
		formatStoredTime(time.Now()),
		id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update retiro: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	slog.Info("updated retiro", "id", id)
	return r.GetByID(ctx, id)
}

// UpdateEstado sets only the state and updated_at. Any state may replace any
// other; no transition legality is checked. It returns nil when no row
// matches the id.
func (r *RetiroRepository) UpdateEstado(ctx context.Context, id uuid.UUID, estado model.EstadoRetiro) (*model.Retiro, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if _, err := model.ParseEstadoRetiro(string(estado)); err != nil {
		return nil, common.ValidationError("%v", err)
	}

	query := `UPDATE retiros SET estado = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		string(estado), formatStoredTime(time.Now()), id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to update retiro estado: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	slog.Info("updated retiro estado", "id", id, "estado", estado)
	return r.GetByID(ctx, id)
}

// Delete removes the retreat and reports whether a row existed. Associated
// transactions are not cascaded at this layer.
func (r *RetiroRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM retiros WHERE id = ?`, id.String())
	if err != nil {
		return false, fmt.Errorf("failed to delete retiro: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected > 0 {
		slog.Info("deleted retiro", "id", id)
	}
	return affected > 0, nil
}

// TotalParticipantes returns the participant headcount summed across all
// retreats.
func (r *RetiroRepository) TotalParticipantes(ctx context.Context) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(numero_participantes), 0) FROM retiros`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum participantes: %w", err)
	}

	return total, nil
}

// RecentFinalizados returns the most recently finished retreats by end date,
// up to limit.
func (r *RetiroRepository) RecentFinalizados(ctx context.Context, limit int) ([]model.Retiro, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + retiroColumns + `
		FROM retiros
		WHERE estado = ?
		ORDER BY fecha_fin DESC
		LIMIT ?`

	return r.queryRetiros(ctx, query, string(model.EstadoFinalizado), limit)
}

func (r *RetiroRepository) queryRetiros(ctx context.Context, query string, args ...any) ([]model.Retiro, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query retiros: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var retiros []model.Retiro
	for rows.Next() {
		retiro, err := scanRetiro(rows)
		if err != nil {
			return nil, err
		}
		retiros = append(retiros, *retiro)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating retiros: %w", err)
	}

	slog.Debug("retrieved retiros", "count", len(retiros))
	return retiros, nil
}

func scanRetiro(row rowScanner) (*model.Retiro, error) {
	var (
		retiro                 model.Retiro
		idStr, estadoStr       string
		descripcion, ubicacion sql.NullString
		inicio, fin            string
		createdAt, updatedAt   string
	)

	err := row.Scan(&idStr, &retiro.Nombre, &descripcion, &inicio, &fin,
		&ubicacion, &retiro.NumeroParticipantes, &estadoStr, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan retiro: %w", err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, common.InternalError("retiro id %q is not a UUID: %v", idStr, err)
	}
	retiro.ID = id

	estado, err := model.ParseEstadoRetiro(estadoStr)
	if err != nil {
		return nil, common.InternalError("retiro %s: %v", idStr, err)
	}
	retiro.Estado = estado

	retiro.Descripcion = descripcion.String
	retiro.Ubicacion = ubicacion.String

	for _, field := range []struct {
		dst *time.Time
		raw string
	}{
		{&retiro.FechaInicio, inicio},
		{&retiro.FechaFin, fin},
		{&retiro.CreatedAt, createdAt},
		{&retiro.UpdatedAt, updatedAt},
	} {
		t, parseErr := parseStoredTime(field.raw)
		if parseErr != nil {
			return nil, fmt.Errorf("retiro %s: %w", idStr, parseErr)
		}
		*field.dst = t
	}

	return &retiro, nil
}

// nullable maps an empty optional string to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
