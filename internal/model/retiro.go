package model

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/retiros-app/retiros/internal/common"
)

// EstadoRetiro is the lifecycle state of a retreat. The values are the
// literal labels persisted in the estado column.
type EstadoRetiro string

const (
	// EstadoPlanificacion is the initial state of every retreat.
	EstadoPlanificacion EstadoRetiro = "Planificacion"
	// EstadoActivo marks a retreat currently in progress.
	EstadoActivo EstadoRetiro = "Activo"
	// EstadoFinalizado marks a completed retreat.
	EstadoFinalizado EstadoRetiro = "Finalizado"
)

// ParseEstadoRetiro maps a stored label back to its variant.
func ParseEstadoRetiro(s string) (EstadoRetiro, error) {
	switch EstadoRetiro(s) {
	case EstadoPlanificacion, EstadoActivo, EstadoFinalizado:
		return EstadoRetiro(s), nil
	default:
		return "", fmt.Errorf("unrecognized retiro estado %q", s)
	}
}

// Retiro represents a retreat event with its schedule and headcount.
type Retiro struct {
	FechaInicio         time.Time
	FechaFin            time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Nombre              string
	Descripcion         string
	Ubicacion           string
	Estado              EstadoRetiro
	NumeroParticipantes int
	ID                  uuid.UUID
}

// CrearRetiro is the input for creating or updating a retreat. Estado is not
// part of the input: new retreats always start in Planificacion, and updates
// preserve the stored state.
type CrearRetiro struct {
	FechaInicio         time.Time
	FechaFin            time.Time
	Nombre              string
	Descripcion         string
	Ubicacion           string
	NumeroParticipantes int
}

// Validate checks the field constraints: nombre 1–200 characters,
// descripcion up to 500, ubicacion up to 200, at least one participant.
// No ordering constraint between the two dates is enforced.
func (r *CrearRetiro) Validate() error {
	if n := utf8.RuneCountInString(r.Nombre); n < 1 || n > 200 {
		return common.ValidationError("nombre must be 1-200 characters, got %d", n)
	}
	if n := utf8.RuneCountInString(r.Descripcion); n > 500 {
		return common.ValidationError("descripcion must be at most 500 characters, got %d", n)
	}
	if n := utf8.RuneCountInString(r.Ubicacion); n > 200 {
		return common.ValidationError("ubicacion must be at most 200 characters, got %d", n)
	}
	if r.NumeroParticipantes < 1 {
		return common.ValidationError("numero_participantes must be at least 1, got %d", r.NumeroParticipantes)
	}
	return nil
}

// NewRetiro builds a retreat from validated input. The state starts in
// Planificacion and both bookkeeping timestamps are set to now.
func NewRetiro(data CrearRetiro) Retiro {
	now := time.Now().UTC()
	return Retiro{
		ID:                  uuid.New(),
		Nombre:              data.Nombre,
		Descripcion:         data.Descripcion,
		FechaInicio:         data.FechaInicio,
		FechaFin:            data.FechaFin,
		Ubicacion:           data.Ubicacion,
		NumeroParticipantes: data.NumeroParticipantes,
		Estado:              EstadoPlanificacion,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}
