package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS categorias (
					id TEXT PRIMARY KEY,
					nombre TEXT NOT NULL,
					tipo TEXT NOT NULL,
					color TEXT NOT NULL,
					created_at TEXT DEFAULT (datetime('now')),
					updated_at TEXT DEFAULT (datetime('now'))
				)`,
				`CREATE INDEX idx_categorias_tipo ON categorias(tipo)`,
				`CREATE INDEX idx_categorias_nombre ON categorias(nombre)`,

				`CREATE TABLE IF NOT EXISTS retiros (
					id TEXT PRIMARY KEY,
					nombre TEXT NOT NULL,
					descripcion TEXT,
					fecha_inicio TEXT NOT NULL,
					fecha_fin TEXT NOT NULL,
					ubicacion TEXT,
					numero_participantes INTEGER NOT NULL,
					estado TEXT NOT NULL,
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				)`,
				`CREATE INDEX idx_retiros_estado ON retiros(estado)`,
				`CREATE INDEX idx_retiros_fecha_inicio ON retiros(fecha_inicio)`,

				`CREATE TABLE IF NOT EXISTS transacciones (
					id TEXT PRIMARY KEY,
					retiro_id TEXT NOT NULL,
					categoria_id TEXT NOT NULL,
					tipo TEXT NOT NULL,
					monto REAL NOT NULL,
					descripcion TEXT NOT NULL,
					fecha TEXT NOT NULL,
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				)`,
				`CREATE INDEX idx_transacciones_retiro ON transacciones(retiro_id)`,
				`CREATE INDEX idx_transacciones_fecha ON transacciones(fecha)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Index transactions by tipo for aggregation queries",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE INDEX IF NOT EXISTS idx_transacciones_tipo ON transacciones(tipo)`,
				`CREATE INDEX IF NOT EXISTS idx_transacciones_categoria ON transacciones(categoria_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
}

// Migrate brings the database schema up to ExpectedSchemaVersion, applying
// each pending migration in its own transaction.
func Migrate(ctx context.Context, db *sql.DB) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
