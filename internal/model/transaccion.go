package model

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/retiros-app/retiros/internal/common"
)

// TipoTransaccion indicates whether a transaction is income or an expense.
// It is independent of the referenced category's tipo; no cross-validation
// is performed.
type TipoTransaccion string

const (
	// TipoTransaccionIngreso represents money coming in.
	TipoTransaccionIngreso TipoTransaccion = "Ingreso"
	// TipoTransaccionGasto represents money going out.
	TipoTransaccionGasto TipoTransaccion = "Gasto"
)

// ParseTipoTransaccion maps a stored label back to its variant.
func ParseTipoTransaccion(s string) (TipoTransaccion, error) {
	switch TipoTransaccion(s) {
	case TipoTransaccionIngreso, TipoTransaccionGasto:
		return TipoTransaccion(s), nil
	default:
		return "", fmt.Errorf("unrecognized transaccion tipo %q", s)
	}
}

// Transaccion represents a single financial movement against a retreat,
// classified under a category. Transactions are immutable after creation;
// the only mutation is deletion.
type Transaccion struct {
	Fecha       time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Descripcion string
	Tipo        TipoTransaccion
	Monto       float64
	ID          uuid.UUID
	RetiroID    uuid.UUID
	CategoriaID uuid.UUID
}

// CrearTransaccion is the input for recording a transaction. A zero Fecha
// means "now".
type CrearTransaccion struct {
	Fecha       time.Time
	Descripcion string
	Tipo        TipoTransaccion
	Monto       float64
	RetiroID    uuid.UUID
	CategoriaID uuid.UUID
}

// Validate checks the field constraints: monto strictly positive,
// descripcion 1–300 characters, tipo a known variant. The retiro and
// categoria references are not checked for existence here.
func (t *CrearTransaccion) Validate() error {
	if t.Monto <= 0 {
		return common.ValidationError("monto must be greater than 0, got %g", t.Monto)
	}
	if n := utf8.RuneCountInString(t.Descripcion); n < 1 || n > 300 {
		return common.ValidationError("descripcion must be 1-300 characters, got %d", n)
	}
	if _, err := ParseTipoTransaccion(string(t.Tipo)); err != nil {
		return common.ValidationError("%v", err)
	}
	return nil
}

// NewTransaccion builds a transaction from validated input with a fresh
// identity. A zero Fecha defaults to the current time.
func NewTransaccion(data CrearTransaccion) Transaccion {
	now := time.Now().UTC()
	fecha := data.Fecha
	if fecha.IsZero() {
		fecha = now
	}
	return Transaccion{
		ID:          uuid.New(),
		RetiroID:    data.RetiroID,
		CategoriaID: data.CategoriaID,
		Tipo:        data.Tipo,
		Monto:       data.Monto,
		Descripcion: data.Descripcion,
		Fecha:       fecha,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
