package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retiros-app/retiros/internal/common"
	"github.com/retiros-app/retiros/internal/model"
)

func crearRetiroInput(nombre string, inicio time.Time) model.CrearRetiro {
	return model.CrearRetiro{
		Nombre:              nombre,
		Descripcion:         "Retiro de prueba",
		FechaInicio:         inicio,
		FechaFin:            inicio.AddDate(0, 0, 4),
		Ubicacion:           "Sierra Nevada",
		NumeroParticipantes: 25,
	}
}

func TestRetiroRepositoryCreateAndGet(t *testing.T) {
	repo := NewRetiroRepository(newTestDB(t))
	ctx := context.Background()

	inicio := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	created, err := repo.Create(ctx, crearRetiroInput("Retiro de Primavera", inicio))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, model.EstadoPlanificacion, created.Estado)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Retiro de Primavera", got.Nombre)
	assert.Equal(t, "Retiro de prueba", got.Descripcion)
	assert.Equal(t, "Sierra Nevada", got.Ubicacion)
	assert.Equal(t, 25, got.NumeroParticipantes)
	assert.True(t, got.FechaInicio.Equal(inicio))
	assert.True(t, got.FechaFin.Equal(inicio.AddDate(0, 0, 4)))
}

func TestRetiroRepositoryOptionalFieldsRoundTripAsEmpty(t *testing.T) {
	repo := NewRetiroRepository(newTestDB(t))
	ctx := context.Background()

	input := crearRetiroInput("Retiro Minimo", time.Now().UTC())
	input.Descripcion = ""
	input.Ubicacion = ""

	created, err := repo.Create(ctx, input)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Descripcion)
	assert.Empty(t, got.Ubicacion)
}

func TestRetiroRepositoryGetByEstadoOrdersByFechaInicio(t *testing.T) {
	repo := NewRetiroRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		created, err := repo.Create(ctx, crearRetiroInput("Retiro", base.AddDate(0, i, 0)))
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	planificados, err := repo.GetByEstado(ctx, model.EstadoPlanificacion)
	require.NoError(t, err)
	require.Len(t, planificados, 3)
	// Most recent start date first.
	assert.Equal(t, ids[2], planificados[0].ID)
	assert.Equal(t, ids[0], planificados[2].ID)

	activos, err := repo.GetByEstado(ctx, model.EstadoActivo)
	require.NoError(t, err)
	assert.Empty(t, activos)
}

func TestRetiroRepositoryUpdatePreservesEstadoAndCreatedAt(t *testing.T) {
	repo := NewRetiroRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, crearRetiroInput("Retiro", time.Now().UTC()))
	require.NoError(t, err)

	_, err = repo.UpdateEstado(ctx, created.ID, model.EstadoActivo)
	require.NoError(t, err)

	input := crearRetiroInput("Retiro Renombrado", time.Now().UTC())
	input.NumeroParticipantes = 40
	updated, err := repo.Update(ctx, created.ID, input)
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, "Retiro Renombrado", updated.Nombre)
	assert.Equal(t, 40, updated.NumeroParticipantes)
	assert.Equal(t, model.EstadoActivo, updated.Estado, "full update preserves estado")
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt.Truncate(time.Second)),
		"full update preserves created_at")
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))
}

func TestRetiroRepositoryUpdateAbsence(t *testing.T) {
	repo := NewRetiroRepository(newTestDB(t))

	updated, err := repo.Update(context.Background(), uuid.New(),
		crearRetiroInput("Fantasma", time.Now().UTC()))
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestRetiroRepositoryUpdateEstado(t *testing.T) {
	repo := NewRetiroRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, crearRetiroInput("Retiro", time.Now().UTC()))
	require.NoError(t, err)

	// Any state may replace any other, including skipping Activo entirely.
	updated, err := repo.UpdateEstado(ctx, created.ID, model.EstadoFinalizado)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, model.EstadoFinalizado, updated.Estado)

	// And back again.
	updated, err = repo.UpdateEstado(ctx, created.ID, model.EstadoPlanificacion)
	require.NoError(t, err)
	assert.Equal(t, model.EstadoPlanificacion, updated.Estado)

	// Unknown labels are rejected before touching the row.
	_, err = repo.UpdateEstado(ctx, created.ID, model.EstadoRetiro("Cancelado"))
	require.ErrorIs(t, err, common.ErrValidation)

	// Absence is not an error.
	missing, err := repo.UpdateEstado(ctx, uuid.New(), model.EstadoActivo)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRetiroRepositorySearchByName(t *testing.T) {
	repo := NewRetiroRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	names := []string{"Retiro de Primavera", "Retiro de Verano", "Encuentro Anual"}
	for i, nombre := range names {
		_, err := repo.Create(ctx, crearRetiroInput(nombre, base.AddDate(0, i, 0)))
		require.NoError(t, err)
	}

	// Wildcard on both sides.
	matches, err := repo.SearchByName(ctx, "de")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Retiro de Verano", matches[0].Nombre, "ordered by start date descending")

	matches, err = repo.SearchByName(ctx, "Anual")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	matches, err = repo.SearchByName(ctx, "Invierno")
	require.NoError(t, err)
	assert.Empty(t, matches)

	// An empty query matches everything.
	matches, err = repo.SearchByName(ctx, "")
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

func TestRetiroRepositoryDelete(t *testing.T) {
	repo := NewRetiroRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, crearRetiroInput("Retiro", time.Now().UTC()))
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	deleted, err = repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRetiroRepositoryTotalParticipantes(t *testing.T) {
	repo := NewRetiroRepository(newTestDB(t))
	ctx := context.Background()

	total, err := repo.TotalParticipantes(ctx)
	require.NoError(t, err)
	assert.Zero(t, total, "empty table sums to zero")

	for _, n := range []int{10, 25, 7} {
		input := crearRetiroInput("Retiro", time.Now().UTC())
		input.NumeroParticipantes = n
		_, err := repo.Create(ctx, input)
		require.NoError(t, err)
	}

	total, err = repo.TotalParticipantes(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 42, total)
}

func TestRetiroRepositoryRecentFinalizados(t *testing.T) {
	repo := NewRetiroRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var finished []uuid.UUID
	for i := 0; i < 4; i++ {
		created, err := repo.Create(ctx, crearRetiroInput("Retiro", base.AddDate(0, i, 0)))
		require.NoError(t, err)
		if i < 3 {
			_, err = repo.UpdateEstado(ctx, created.ID, model.EstadoFinalizado)
			require.NoError(t, err)
			finished = append(finished, created.ID)
		}
	}

	recent, err := repo.RecentFinalizados(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	// Latest end date first; the still-planned retreat never appears.
	assert.Equal(t, finished[2], recent[0].ID)
	assert.Equal(t, finished[1], recent[1].ID)
}

func TestRetiroRepositoryReadsLegacyTimestamps(t *testing.T) {
	db := newTestDB(t)
	repo := NewRetiroRepository(db)
	ctx := context.Background()

	// Rows written by an earlier era of the system used naive datetime
	// strings, with and without fractional seconds.
	id := uuid.New()
	_, err := db.ExecContext(ctx, `
		INSERT INTO retiros (id, nombre, descripcion, fecha_inicio, fecha_fin,
			ubicacion, numero_participantes, estado, created_at, updated_at)
		VALUES (?, ?, NULL, ?, ?, NULL, ?, ?, ?, ?)`,
		id.String(), "Retiro Antiguo",
		"2023-06-01 09:00:00", "2023-06-05 18:00:00.500",
		12, "Finalizado",
		"2023-05-01 00:00:00", "2023-06-06T10:00:00Z")
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.FechaInicio.Equal(time.Date(2023, 6, 1, 9, 0, 0, 0, time.UTC)))
	assert.True(t, got.FechaFin.Equal(time.Date(2023, 6, 5, 18, 0, 0, int(500*time.Millisecond), time.UTC)))
}

func TestRetiroRepositoryRejectsCorruptEstado(t *testing.T) {
	db := newTestDB(t)
	repo := NewRetiroRepository(db)
	ctx := context.Background()

	id := uuid.New()
	_, err := db.ExecContext(ctx, `
		INSERT INTO retiros (id, nombre, descripcion, fecha_inicio, fecha_fin,
			ubicacion, numero_participantes, estado, created_at, updated_at)
		VALUES (?, ?, NULL, ?, ?, NULL, ?, ?, ?, ?)`,
		id.String(), "Retiro Corrupto",
		"2023-06-01T09:00:00Z", "2023-06-05T18:00:00Z",
		12, "Suspendido",
		"2023-05-01T00:00:00Z", "2023-05-01T00:00:00Z")
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, id)
	require.ErrorIs(t, err, common.ErrInternal)
}
