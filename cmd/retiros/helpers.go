package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/retiros-app/retiros/internal/common"
	"github.com/retiros-app/retiros/internal/config"
	"github.com/retiros-app/retiros/internal/storage"
)

// initDB opens the configured database and brings the schema up to date.
// The caller owns the returned pool.
func initDB(ctx context.Context) (*sql.DB, error) {
	db, err := storage.Open(config.DatabasePath())
	if err != nil {
		return nil, common.NewUserError("no se pudo abrir la base de datos", err)
	}

	if err := storage.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

var inputDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
}

// parseDateTime reads a user-supplied date, with or without a time of day.
func parseDateTime(value string) (time.Time, error) {
	for _, layout := range inputDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, common.ValidationError(
		"invalid date %q, expected YYYY-MM-DD or YYYY-MM-DD HH:MM:SS", value)
}

// parseUUIDArg parses a positional or flag identifier argument.
func parseUUIDArg(value, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, common.ValidationError("invalid %s %q", name, value)
	}
	return id, nil
}

// formatFecha renders a timestamp for table output, dropping midnight times.
func formatFecha(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04")
}
