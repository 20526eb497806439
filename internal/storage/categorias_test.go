package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retiros-app/retiros/internal/common"
	"github.com/retiros-app/retiros/internal/model"
)

func TestCategoriaRepositoryCreateAndGet(t *testing.T) {
	repo := NewCategoriaRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, model.CrearCategoria{
		Nombre: "Alojamiento",
		Tipo:   model.TipoCategoriaGasto,
		Color:  "#FF5733",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "Alojamiento", created.Nombre)
	assert.Equal(t, model.TipoCategoriaGasto, created.Tipo)
	assert.Equal(t, "#FF5733", created.Color)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *created, *got)
}

func TestCategoriaRepositoryCreateRejectsInvalidInput(t *testing.T) {
	repo := NewCategoriaRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, model.CrearCategoria{
		Nombre: "",
		Tipo:   model.TipoCategoriaGasto,
		Color:  "#FF5733",
	})
	require.ErrorIs(t, err, common.ErrValidation)

	// Nothing was persisted.
	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCategoriaRepositoryGetByIDAbsence(t *testing.T) {
	repo := NewCategoriaRepository(newTestDB(t))

	got, err := repo.GetByID(context.Background(), uuid.New())
	require.NoError(t, err, "absence is not an error")
	assert.Nil(t, got)
}

func TestCategoriaRepositoryGetAllOrdersByNombre(t *testing.T) {
	repo := NewCategoriaRepository(newTestDB(t))
	ctx := context.Background()

	for _, nombre := range []string{"Transporte", "Alojamiento", "Comida"} {
		_, err := repo.Create(ctx, model.CrearCategoria{
			Nombre: nombre,
			Tipo:   model.TipoCategoriaGasto,
			Color:  "#000000",
		})
		require.NoError(t, err)
	}

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Alojamiento", all[0].Nombre)
	assert.Equal(t, "Comida", all[1].Nombre)
	assert.Equal(t, "Transporte", all[2].Nombre)
}

func TestCategoriaRepositoryGetByTipo(t *testing.T) {
	repo := NewCategoriaRepository(newTestDB(t))
	ctx := context.Background()

	seed := []model.CrearCategoria{
		{Nombre: "Donaciones", Tipo: model.TipoCategoriaIngreso, Color: "#11AA22"},
		{Nombre: "Cuotas", Tipo: model.TipoCategoriaIngreso, Color: "#11AA33"},
		{Nombre: "Comida", Tipo: model.TipoCategoriaGasto, Color: "#AA1122"},
	}
	for _, input := range seed {
		_, err := repo.Create(ctx, input)
		require.NoError(t, err)
	}

	ingresos, err := repo.GetByTipo(ctx, model.TipoCategoriaIngreso)
	require.NoError(t, err)
	require.Len(t, ingresos, 2)
	assert.Equal(t, "Cuotas", ingresos[0].Nombre)
	assert.Equal(t, "Donaciones", ingresos[1].Nombre)

	gastos, err := repo.GetByTipo(ctx, model.TipoCategoriaGasto)
	require.NoError(t, err)
	require.Len(t, gastos, 1)
}

func TestCategoriaRepositoryUpdate(t *testing.T) {
	repo := NewCategoriaRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, model.CrearCategoria{
		Nombre: "Comida",
		Tipo:   model.TipoCategoriaGasto,
		Color:  "#AA1122",
	})
	require.NoError(t, err)

	updated, err := repo.Update(ctx, created.ID, model.CrearCategoria{
		Nombre: "Alimentacion",
		Tipo:   model.TipoCategoriaGasto,
		Color:  "#BB2233",
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, created.ID, updated.ID, "identity is immutable")
	assert.Equal(t, "Alimentacion", updated.Nombre)
	assert.Equal(t, "#BB2233", updated.Color)
}

func TestCategoriaRepositoryUpdateAbsence(t *testing.T) {
	repo := NewCategoriaRepository(newTestDB(t))
	ctx := context.Background()

	updated, err := repo.Update(ctx, uuid.New(), model.CrearCategoria{
		Nombre: "Comida",
		Tipo:   model.TipoCategoriaGasto,
		Color:  "#AA1122",
	})
	require.NoError(t, err)
	assert.Nil(t, updated, "update of a missing row returns absence")
}

func TestCategoriaRepositoryDelete(t *testing.T) {
	repo := NewCategoriaRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, model.CrearCategoria{
		Nombre: "Comida",
		Tipo:   model.TipoCategoriaGasto,
		Color:  "#AA1122",
	})
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting again reports false, not an error.
	deleted, err = repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestCategoriaRepositoryCountByTipo(t *testing.T) {
	repo := NewCategoriaRepository(newTestDB(t))
	ctx := context.Background()

	count, err := repo.CountByTipo(ctx, model.TipoCategoriaIngreso)
	require.NoError(t, err)
	assert.Zero(t, count)

	for i, tipo := range []model.TipoCategoria{
		model.TipoCategoriaIngreso,
		model.TipoCategoriaIngreso,
		model.TipoCategoriaGasto,
	} {
		_, err := repo.Create(ctx, model.CrearCategoria{
			Nombre: string(rune('A' + i)),
			Tipo:   tipo,
			Color:  "#000000",
		})
		require.NoError(t, err)
	}

	count, err = repo.CountByTipo(ctx, model.TipoCategoriaIngreso)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestCategoriaRepositoryRejectsCorruptTipo(t *testing.T) {
	db := newTestDB(t)
	repo := NewCategoriaRepository(db)
	ctx := context.Background()

	// Simulate schema drift: a label no variant recognizes.
	id := uuid.New()
	_, err := db.ExecContext(ctx,
		`INSERT INTO categorias (id, nombre, tipo, color) VALUES (?, ?, ?, ?)`,
		id.String(), "Rara", "Transferencia", "#123456")
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, id)
	require.ErrorIs(t, err, common.ErrInternal)
}
