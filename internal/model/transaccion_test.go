package model

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retiros-app/retiros/internal/common"
)

func validCrearTransaccion() CrearTransaccion {
	return CrearTransaccion{
		RetiroID:    uuid.New(),
		CategoriaID: uuid.New(),
		Tipo:        TipoTransaccionGasto,
		Monto:       120.50,
		Descripcion: "Alquiler de cabañas",
		Fecha:       time.Date(2024, 3, 2, 10, 30, 0, 0, time.UTC),
	}
}

func TestCrearTransaccionValidate(t *testing.T) {
	tests := []struct {
		mutate  func(*CrearTransaccion)
		name    string
		wantErr bool
	}{
		{name: "valid input", mutate: func(_ *CrearTransaccion) {}, wantErr: false},
		{name: "zero monto", mutate: func(tr *CrearTransaccion) { tr.Monto = 0 }, wantErr: true},
		{name: "negative monto", mutate: func(tr *CrearTransaccion) { tr.Monto = -5 }, wantErr: true},
		{name: "small positive monto", mutate: func(tr *CrearTransaccion) { tr.Monto = 0.01 }, wantErr: false},
		{name: "empty descripcion", mutate: func(tr *CrearTransaccion) { tr.Descripcion = "" }, wantErr: true},
		{name: "descripcion over 300", mutate: func(tr *CrearTransaccion) { tr.Descripcion = strings.Repeat("x", 301) }, wantErr: true},
		{name: "unknown tipo", mutate: func(tr *CrearTransaccion) { tr.Tipo = "Prestamo" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validCrearTransaccion()
			tt.mutate(&input)

			err := input.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewTransaccionDefaultsFecha(t *testing.T) {
	input := validCrearTransaccion()
	input.Fecha = time.Time{}

	before := time.Now().UTC()
	txn := NewTransaccion(input)
	after := time.Now().UTC()

	assert.NotEqual(t, uuid.Nil, txn.ID)
	assert.False(t, txn.Fecha.Before(before))
	assert.False(t, txn.Fecha.After(after))
}

func TestNewTransaccionKeepsCallerFecha(t *testing.T) {
	input := validCrearTransaccion()
	txn := NewTransaccion(input)

	assert.Equal(t, input.Fecha, txn.Fecha)
	assert.Equal(t, input.RetiroID, txn.RetiroID)
	assert.Equal(t, input.CategoriaID, txn.CategoriaID)
}
