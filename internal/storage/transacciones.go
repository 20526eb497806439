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

// TransaccionRepository owns all access to the transacciones table,
// including the balance and statistics aggregations.
type TransaccionRepository struct {
	db *sql.DB
}

// NewTransaccionRepository creates a repository bound to the shared pool.
func NewTransaccionRepository(db *sql.DB) *TransaccionRepository {
	return &TransaccionRepository{db: db}
}

// CategoriaGasto is one row of the top-expense-categories report.
type CategoriaGasto struct {
	Nombre string
	Color  string
	Total  float64
}

// BalanceGlobal aggregates every transaction across all retreats.
type BalanceGlobal struct {
	TotalIngresos float64
	TotalGastos   float64
	Transacciones int64
}

// RetiroStatistics holds the per-retreat averages. Each average is computed
// over the set of retreats that have at least one matching transaction of
// the relevant kind, so the three denominators are independent: a retreat
// with only expenses is absent from the income average entirely.
type RetiroStatistics struct {
	PromedioBalance  float64
	PromedioIngresos float64
	PromedioGastos   float64
	RetirosConGastos int64
}

const transaccionColumns = `id, retiro_id, categoria_id, tipo, monto,
		descripcion, fecha, created_at, updated_at`

// Create validates the input, assigns identity and timestamps, and persists
// the transaction. The retiro and categoria references are stored as given;
// existence is not checked here.
func (r *TransaccionRepository) Create(ctx context.Context, data model.CrearTransaccion) (*model.Transaccion, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}

	txn := model.NewTransaccion(data)

	query := `
		INSERT INTO transacciones (` + transaccionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		txn.ID.String(),
		txn.RetiroID.String(),
		txn.CategoriaID.String(),
		string(txn.Tipo),
		txn.Monto,
		txn.Descripcion,
		formatStoredTime(txn.Fecha),
		formatStoredTime(txn.CreatedAt),
		formatStoredTime(txn.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaccion: %w", err)
	}

	slog.Info("created transaccion",
		"id", txn.ID, "retiro", txn.RetiroID, "tipo", txn.Tipo, "monto", txn.Monto)
	return &txn, nil
}

// GetByID returns the transaction or nil when no row matches.
func (r *TransaccionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Transaccion, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + transaccionColumns + ` FROM transacciones WHERE id = ?`

	txn, err := scanTransaccion(r.db.QueryRowContext(ctx, query, id.String()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return txn, nil
}

// GetByRetiro returns the retreat's transactions, most recent first. There
// is deliberately no unscoped listing: callers always scope by retreat.
func (r *TransaccionRepository) GetByRetiro(ctx context.Context, retiroID uuid.UUID) ([]model.Transaccion, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + transaccionColumns + `
		FROM transacciones
		WHERE retiro_id = ?
		ORDER BY fecha DESC`

	rows, err := r.db.QueryContext(ctx, query, retiroID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query transacciones: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transacciones []model.Transaccion
	for rows.Next() {
		txn, err := scanTransaccion(rows)
		if err != nil {
			return nil, err
		}
		transacciones = append(transacciones, *txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transacciones: %w", err)
	}

	slog.Debug("retrieved transacciones", "retiro", retiroID, "count", len(transacciones))
	return transacciones, nil
}

// Delete removes the transaction and reports whether a row existed.
func (r *TransaccionRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM transacciones WHERE id = ?`, id.String())
	if err != nil {
		return false, fmt.Errorf("failed to delete transaccion: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected > 0 {
		slog.Info("deleted transaccion", "id", id)
	}
	return affected > 0, nil
}

// CalculateBalance sums the retreat's transactions. With a tipo it returns
// the plain sum of matching amounts; without one it returns income minus
// expenses. A retreat with no transactions balances to 0.
func (r *TransaccionRepository) CalculateBalance(ctx context.Context, retiroID uuid.UUID, tipo *model.TipoTransaccion) (float64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var (
		query string
		args  []any
	)
	if tipo != nil {
		query = `
			SELECT COALESCE(SUM(monto), 0)
			FROM transacciones
			WHERE retiro_id = ? AND tipo = ?`
		args = []any{retiroID.String(), string(*tipo)}
	} else {
		query = `
			SELECT COALESCE(SUM(CASE WHEN tipo = 'Ingreso' THEN monto ELSE -monto END), 0)
			FROM transacciones
			WHERE retiro_id = ?`
		args = []any{retiroID.String()}
	}

	var balance float64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to calculate balance: %w", err)
	}

	return balance, nil
}

// CountByRetiro returns the number of transactions recorded against the
// retreat.
func (r *TransaccionRepository) CountByRetiro(ctx context.Context, retiroID uuid.UUID) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transacciones WHERE retiro_id = ?`, retiroID.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transacciones: %w", err)
	}

	return count, nil
}

// CountByCategoria returns how many transactions reference a category.
func (r *TransaccionRepository) CountByCategoria(ctx context.Context, categoriaID uuid.UUID) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transacciones WHERE categoria_id = ?`, categoriaID.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transacciones: %w", err)
	}

	return count, nil
}

// CalculateGlobalBalance totals income, expenses, and transaction count
// across all retreats.
func (r *TransaccionRepository) CalculateGlobalBalance(ctx context.Context) (*BalanceGlobal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT
			COALESCE(SUM(CASE WHEN tipo = 'Ingreso' THEN monto ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN tipo = 'Gasto' THEN monto ELSE 0 END), 0),
			COUNT(*)
		FROM transacciones`

	var global BalanceGlobal
	err := r.db.QueryRowContext(ctx, query).Scan(
		&global.TotalIngresos, &global.TotalGastos, &global.Transacciones)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate global balance: %w", err)
	}

	return &global, nil
}

// GetTopCategoriasByGasto returns the categories with the highest expense
// totals, largest first, up to limit.
func (r *TransaccionRepository) GetTopCategoriasByGasto(ctx context.Context, limit int) ([]CategoriaGasto, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT c.nombre, c.color, SUM(t.monto) AS total
		FROM transacciones t
		JOIN categorias c ON t.categoria_id = c.id
		WHERE t.tipo = 'Gasto'
		GROUP BY c.id, c.nombre, c.color
		ORDER BY total DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top categorias: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var top []CategoriaGasto
	for rows.Next() {
		var row CategoriaGasto
		if err := rows.Scan(&row.Nombre, &row.Color, &row.Total); err != nil {
			return nil, fmt.Errorf("failed to scan top categoria: %w", err)
		}
		top = append(top, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top categorias: %w", err)
	}

	return top, nil
}

// GetRetiroStatistics computes the per-retreat averages. The three averages
// are three independently grouped queries, not one joint query: collapsing
// them would change the denominators.
func (r *TransaccionRepository) GetRetiroStatistics(ctx context.Context) (*RetiroStatistics, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var stats RetiroStatistics

	// Average balance over retreats with at least one transaction.
	balanceQuery := `
		SELECT COALESCE(AVG(balance), 0)
		FROM (
			SELECT SUM(CASE WHEN tipo = 'Ingreso' THEN monto ELSE -monto END) AS balance
			FROM transacciones
			GROUP BY retiro_id
		)`
	if err := r.db.QueryRowContext(ctx, balanceQuery).Scan(&stats.PromedioBalance); err != nil {
		return nil, fmt.Errorf("failed to average balances: %w", err)
	}

	// Average income over retreats with at least one income transaction.
	ingresosQuery := `
		SELECT COALESCE(AVG(total), 0)
		FROM (
			SELECT SUM(monto) AS total
			FROM transacciones
			WHERE tipo = 'Ingreso'
			GROUP BY retiro_id
		)`
	if err := r.db.QueryRowContext(ctx, ingresosQuery).Scan(&stats.PromedioIngresos); err != nil {
		return nil, fmt.Errorf("failed to average ingresos: %w", err)
	}

	// Average expenses over retreats with at least one expense transaction.
	gastosQuery := `
		SELECT COALESCE(AVG(total), 0)
		FROM (
			SELECT SUM(monto) AS total
			FROM transacciones
			WHERE tipo = 'Gasto'
			GROUP BY retiro_id
		)`
	if err := r.db.QueryRowContext(ctx, gastosQuery).Scan(&stats.PromedioGastos); err != nil {
		return nil, fmt.Errorf("failed to average gastos: %w", err)
	}

	countQuery := `
		SELECT COUNT(DISTINCT retiro_id)
		FROM transacciones
		WHERE tipo = 'Gasto'`
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&stats.RetirosConGastos); err != nil {
		return nil, fmt.Errorf("failed to count retiros with gastos: %w", err)
	}

	return &stats, nil
}

func scanTransaccion(row rowScanner) (*model.Transaccion, error) {
	var (
		txn                            model.Transaccion
		idStr, retiroStr, categoriaStr string
		tipoStr                        string
		fecha, createdAt, updatedAt    string
	)

	err := row.Scan(&idStr, &retiroStr, &categoriaStr, &tipoStr, &txn.Monto,
		&txn.Descripcion, &fecha, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan transaccion: %w", err)
	}

	for _, field := range []struct {
		dst  *uuid.UUID
		name string
		raw  string
	}{
		{&txn.ID, "id", idStr},
		{&txn.RetiroID, "retiro_id", retiroStr},
		{&txn.CategoriaID, "categoria_id", categoriaStr},
	} {
		id, parseErr := uuid.Parse(field.raw)
		if parseErr != nil {
			return nil, common.InternalError("transaccion %s %q is not a UUID: %v", field.name, field.raw, parseErr)
		}
		*field.dst = id
	}

	tipo, err := model.ParseTipoTransaccion(tipoStr)
	if err != nil {
		return nil, common.InternalError("transaccion %s: %v", idStr, err)
	}
	txn.Tipo = tipo

	for _, field := range []struct {
		dst *time.Time
		raw string
	}{
		{&txn.Fecha, fecha},
		{&txn.CreatedAt, createdAt},
		{&txn.UpdatedAt, updatedAt},
	} {
		t, parseErr := parseStoredTime(field.raw)
		if parseErr != nil {
			return nil, fmt.Errorf("transaccion %s: %w", idStr, parseErr)
		}
		*field.dst = t
	}

	return &txn, nil
}
