// Package testutil provides shared test helpers for database-backed tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/retiros-app/retiros/internal/storage"
)

// Repos bundles the three repositories over one shared test database.
type Repos struct {
	DB            *sql.DB
	Categorias    *storage.CategoriaRepository
	Retiros       *storage.RetiroRepository
	Transacciones *storage.TransaccionRepository
}

// SetupDB creates a migrated file-backed database in a temp dir and wires
// the repositories over the shared pool. Cleanup is registered on t.
func SetupDB(t *testing.T) *Repos {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "retiros.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := storage.Migrate(context.Background(), db); err != nil {
		_ = db.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return &Repos{
		DB:            db,
		Categorias:    storage.NewCategoriaRepository(db),
		Retiros:       storage.NewRetiroRepository(db),
		Transacciones: storage.NewTransaccionRepository(db),
	}
}
