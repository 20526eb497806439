// Package model defines the domain entities: categories, retreats, and the
// financial transactions recorded against them.
package model

import (
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/retiros-app/retiros/internal/common"
)

// TipoCategoria indicates whether a category tracks income or expenses.
// The values are the literal labels persisted in the tipo column and must
// round-trip exactly.
type TipoCategoria string

const (
	// TipoCategoriaIngreso represents income categories.
	TipoCategoriaIngreso TipoCategoria = "Ingreso"
	// TipoCategoriaGasto represents expense categories.
	TipoCategoriaGasto TipoCategoria = "Gasto"
)

// ParseTipoCategoria maps a stored label back to its variant. Unrecognized
// labels are rejected, never defaulted.
func ParseTipoCategoria(s string) (TipoCategoria, error) {
	switch TipoCategoria(s) {
	case TipoCategoriaIngreso, TipoCategoriaGasto:
		return TipoCategoria(s), nil
	default:
		return "", fmt.Errorf("unrecognized categoria tipo %q", s)
	}
}

// Categoria represents an income or expense category.
type Categoria struct {
	Nombre string
	Tipo   TipoCategoria
	Color  string
	ID     uuid.UUID
}

// CrearCategoria is the input for creating or updating a category. The
// repository assigns the identity.
type CrearCategoria struct {
	Nombre string
	Tipo   TipoCategoria
	Color  string
}

// Validate checks the field constraints: nombre 1–100 characters, color
// exactly 7 characters (expected shape #RRGGBB), tipo a known variant.
func (c *CrearCategoria) Validate() error {
	if n := utf8.RuneCountInString(c.Nombre); n < 1 || n > 100 {
		return common.ValidationError("nombre must be 1-100 characters, got %d", n)
	}
	if _, err := ParseTipoCategoria(string(c.Tipo)); err != nil {
		return common.ValidationError("%v", err)
	}
	// Only the length is enforced; the #RRGGBB shape is a convention.
	if n := utf8.RuneCountInString(c.Color); n != 7 {
		return common.ValidationError("color must be exactly 7 characters (#RRGGBB), got %d", n)
	}
	return nil
}

// NewCategoria builds a category from validated input with a fresh identity.
func NewCategoria(data CrearCategoria) Categoria {
	return Categoria{
		ID:     uuid.New(),
		Nombre: data.Nombre,
		Tipo:   data.Tipo,
		Color:  data.Color,
	}
}
