// Package bridge exposes the repository operations as named commands with
// JSON payloads, for embedding the tracker behind a desktop shell. Each
// command is a thin pass-through: decode the payload, call one repository
// operation, encode the outcome. Errors cross the bridge as plain strings.
package bridge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/retiros-app/retiros/internal/common"
	"github.com/retiros-app/retiros/internal/model"
	"github.com/retiros-app/retiros/internal/storage"
)

// Request is one command invocation. The ID is echoed back so the shell can
// correlate concurrent requests.
type Request struct {
	Payload json.RawMessage `json:"payload,omitempty"`
	Command string          `json:"command"`
	ID      int64           `json:"id"`
}

// Response is the outcome of one command.
type Response struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	ID     int64  `json:"id"`
	Ok     bool   `json:"ok"`
}

// Bridge dispatches commands to the repositories over a shared pool.
type Bridge struct {
	categorias    *storage.CategoriaRepository
	retiros       *storage.RetiroRepository
	transacciones *storage.TransaccionRepository
}

// New wires a bridge over the caller-owned pool.
func New(db *sql.DB) *Bridge {
	return &Bridge{
		categorias:    storage.NewCategoriaRepository(db),
		retiros:       storage.NewRetiroRepository(db),
		transacciones: storage.NewTransaccionRepository(db),
	}
}

// BalanceRetiro is the per-retreat financial summary returned by
// get_balance_retiro.
type BalanceRetiro struct {
	RetiroID      string  `json:"retiro_id"`
	Balance       float64 `json:"balance"`
	TotalIngresos float64 `json:"total_ingresos"`
	TotalGastos   float64 `json:"total_gastos"`
	Transacciones int64   `json:"transacciones_count"`
}

// Dispatch runs one command and never returns an error: failures become
// error responses.
func (b *Bridge) Dispatch(ctx context.Context, req Request) Response {
	result, err := b.handle(ctx, req.Command, req.Payload)
	if err != nil {
		common.LogError(err, "bridge command failed", common.Fields{
			"command": req.Command,
			"id":      req.ID,
		})
		return Response{ID: req.ID, Ok: false, Error: err.Error()}
	}
	return Response{ID: req.ID, Ok: true, Result: result}
}

func (b *Bridge) handle(ctx context.Context, command string, payload json.RawMessage) (any, error) {
	switch command {
	case "get_categorias":
		return b.getCategorias(ctx)
	case "create_categoria":
		return b.createCategoria(ctx, payload)
	case "update_categoria":
		return b.updateCategoria(ctx, payload)
	case "delete_categoria":
		return b.deleteCategoria(ctx, payload)
	case "get_retiros":
		return b.getRetiros(ctx)
	case "create_retiro":
		return b.createRetiro(ctx, payload)
	case "update_retiro":
		return b.updateRetiro(ctx, payload)
	case "update_retiro_estado":
		return b.updateRetiroEstado(ctx, payload)
	case "delete_retiro":
		return b.deleteRetiro(ctx, payload)
	case "get_transacciones":
		return b.getTransacciones(ctx, payload)
	case "create_transaccion":
		return b.createTransaccion(ctx, payload)
	case "delete_transaccion":
		return b.deleteTransaccion(ctx, payload)
	case "get_balance_retiro":
		return b.getBalanceRetiro(ctx, payload)
	default:
		return nil, fmt.Errorf("unknown command %q", command)
	}
}

// Wire representations. Optional strings are pointers so absent fields
// serialize as null, matching what the desktop shell expects.

type categoriaDTO struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
	Tipo   string `json:"tipo"`
	Color  string `json:"color"`
}

type crearCategoriaDTO struct {
	Nombre string `json:"nombre"`
	Tipo   string `json:"tipo"`
	Color  string `json:"color"`
}

type retiroDTO struct {
	FechaInicio         time.Time `json:"fecha_inicio"`
	FechaFin            time.Time `json:"fecha_fin"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
	Descripcion         *string   `json:"descripcion"`
	Ubicacion           *string   `json:"ubicacion"`
	ID                  string    `json:"id"`
	Nombre              string    `json:"nombre"`
	Estado              string    `json:"estado"`
	NumeroParticipantes int       `json:"numero_participantes"`
}

type crearRetiroDTO struct {
	FechaInicio         time.Time `json:"fecha_inicio"`
	FechaFin            time.Time `json:"fecha_fin"`
	Descripcion         *string   `json:"descripcion"`
	Ubicacion           *string   `json:"ubicacion"`
	Nombre              string    `json:"nombre"`
	NumeroParticipantes int       `json:"numero_participantes"`
}

type transaccionDTO struct {
	Fecha       time.Time `json:"fecha"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ID          string    `json:"id"`
	RetiroID    string    `json:"retiro_id"`
	CategoriaID string    `json:"categoria_id"`
	Tipo        string    `json:"tipo"`
	Descripcion string    `json:"descripcion"`
	Monto       float64   `json:"monto"`
}

type crearTransaccionDTO struct {
	Fecha       *time.Time `json:"fecha"`
	RetiroID    string     `json:"retiro_id"`
	CategoriaID string     `json:"categoria_id"`
	Tipo        string     `json:"tipo"`
	Descripcion string     `json:"descripcion"`
	Monto       float64    `json:"monto"`
}

func toCategoriaDTO(c model.Categoria) categoriaDTO {
	return categoriaDTO{
		ID:     c.ID.String(),
		Nombre: c.Nombre,
		Tipo:   string(c.Tipo),
		Color:  c.Color,
	}
}

func toRetiroDTO(r model.Retiro) retiroDTO {
	return retiroDTO{
		ID:                  r.ID.String(),
		Nombre:              r.Nombre,
		Descripcion:         optional(r.Descripcion),
		FechaInicio:         r.FechaInicio,
		FechaFin:            r.FechaFin,
		Ubicacion:           optional(r.Ubicacion),
		NumeroParticipantes: r.NumeroParticipantes,
		Estado:              string(r.Estado),
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func toTransaccionDTO(t model.Transaccion) transaccionDTO {
	return transaccionDTO{
		ID:          t.ID.String(),
		RetiroID:    t.RetiroID.String(),
		CategoriaID: t.CategoriaID.String(),
		Tipo:        string(t.Tipo),
		Monto:       t.Monto,
		Descripcion: t.Descripcion,
		Fecha:       t.Fecha,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func decode[T any](payload json.RawMessage) (T, error) {
	var v T
	if len(payload) == 0 {
		return v, fmt.Errorf("missing payload")
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, fmt.Errorf("invalid payload: %w", err)
	}
	return v, nil
}

func parseID(raw, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return id, nil
}

func (b *Bridge) getCategorias(ctx context.Context) (any, error) {
	categorias, err := b.categorias.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]categoriaDTO, 0, len(categorias))
	for _, c := range categorias {
		out = append(out, toCategoriaDTO(c))
	}
	return out, nil
}

func (b *Bridge) createCategoria(ctx context.Context, payload json.RawMessage) (any, error) {
	req, err := decode[struct {
		Data crearCategoriaDTO `json:"data"`
	}](payload)
	if err != nil {
		return nil, err
	}

	categoria, err := b.categorias.Create(ctx, model.CrearCategoria{
		Nombre: req.Data.Nombre,
		Tipo:   model.TipoCategoria(req.Data.Tipo),
		Color:  req.Data.Color,
	})
	if err != nil {
		return nil, err
	}
	return toCategoriaDTO(*categoria), nil
}

func (b *Bridge) updateCategoria(ctx context.Context, payload json.RawMessage) (any, error) {
	req, err := decode[struct {
		ID   string            `json:"id"`
		Data crearCategoriaDTO `json:"data"`
	}](payload)
	if err != nil {
		return nil, err
	}
	id, err := parseID(req.ID, "id")
	if err != nil {
		return nil, err
	}

	categoria, err := b.categorias.Update(ctx, id, model.CrearCategoria{
		Nombre: req.Data.Nombre,
		Tipo:   model.TipoCategoria(req.Data.Tipo),
		Color:  req.Data.Color,
	})
	if err != nil {
		return nil, err
	}
	if categoria == nil {
		return nil, nil // absence serializes as null
	}
	return toCategoriaDTO(*categoria), nil
}

func (b *Bridge) deleteCategoria(ctx context.Context, payload json.RawMessage) (any, error) {
	req, err := decode[struct {
		ID string `json:"id"`
	}](payload)
	if err != nil {
		return nil, err
	}
	id, err := parseID(req.ID, "id")
	if err != nil {
		return nil, err
	}
	return b.categorias.Delete(ctx, id)
}

func (b *Bridge) getRetiros(ctx context.Context) (any, error) {
	retiros, err := b.retiros.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]retiroDTO, 0, len(retiros))
	for _, r := range retiros {
		out = append(out, toRetiroDTO(r))
	}
	return out, nil
}

func (b *Bridge) createRetiro(ctx context.Context, payload json.RawMessage) (any, error) {
	req, err := decode[struct {
		Data crearRetiroDTO `json:"data"`
	}](payload)
	if err != nil {
		return nil, err
	}

	retiro, err := b.retiros.Create(ctx, model.CrearRetiro{
		Nombre:              req.Data.Nombre,
		Descripcion:         deref(req.Data.Descripcion),
		FechaInicio:         req.Data.FechaInicio,
		FechaFin:            req.Data.FechaFin,
		Ubicacion:           deref(req.Data.Ubicacion),
		NumeroParticipantes: req.Data.NumeroParticipantes,
	})
	if err != nil {
		return nil, err
	}
	return toRetiroDTO(*retiro), nil
}

func (b *Bridge) updateRetiro(ctx context.Context, payload json.RawMessage) (any, error) {
	req, err := decode[struct {
		ID   string         `json:"id"`
		Data crearRetiroDTO `json:"data"`
	}](payload)
	if err != nil {
		return nil, err
	}
	id, err := parseID(req.ID, "id")
	if err != nil {
		return nil, err
	}

	retiro, err := b.retiros.Update(ctx, id, model.CrearRetiro{
		Nombre:              req.Data.Nombre,
		Descripcion:         deref(req.Data.Descripcion),
		FechaInicio:         req.Data.FechaInicio,
		FechaFin:            req.Data.FechaFin,
		Ubicacion:           deref(req.Data.Ubicacion),
		NumeroParticipantes: req.Data.NumeroParticipantes,
	})
	if err != nil {
		return nil, err
	}
	if retiro == nil {
		return nil, nil
	}
	return toRetiroDTO(*retiro), nil
}

func (b *Bridge) updateRetiroEstado(ctx context.Context, payload json.RawMessage) (any, error) {
	req, err := decode[struct {
		ID     string `json:"id"`
		Estado string `json:"estado"`
	}](payload)
	if err != nil {
		return nil, err
	}
	id, err := parseID(req.ID, "id")
	if err != nil {
		return nil, err
	}

	retiro, err := b.retiros.UpdateEstado(ctx, id, model.EstadoRetiro(req.Estado))
	if err != nil {
		return nil, err
	}
	if retiro == nil {
		return nil, nil
	}
	return toRetiroDTO(*retiro), nil
}

func (b *Bridge) deleteRetiro(ctx context.Context, payload json.RawMessage) (any, error) {
	req, err := decode[struct {
		ID string `json:"id"`
	}](payload)
	if err != nil {
		return nil, err
	}
	id, err := parseID(req.ID, "id")
	if err != nil {
		return nil, err
	}
	return b.retiros.Delete(ctx, id)
}

func (b *Bridge) getTransacciones(ctx context.Context, payload json.RawMessage) (any, error) {
	var req struct {
		RetiroID *string `json:"retiro_id"`
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
	}

	// Listing is always scoped by retreat; without one the bridge answers
	// with an empty list rather than scanning every table.
	if req.RetiroID == nil {
		return []transaccionDTO{}, nil
	}

	retiroID, err := parseID(*req.RetiroID, "retiro_id")
	if err != nil {
		return nil, err
	}

	transacciones, err := b.transacciones.GetByRetiro(ctx, retiroID)
	if err != nil {
		return nil, err
	}
	out := make([]transaccionDTO, 0, len(transacciones))
	for _, t := range transacciones {
		out = append(out, toTransaccionDTO(t))
	}
	return out, nil
}

func (b *Bridge) createTransaccion(ctx context.Context, payload json.RawMessage) (any, error) {
	req, err := decode[struct {
		Data crearTransaccionDTO `json:"data"`
	}](payload)
	if err != nil {
		return nil, err
	}

	retiroID, err := parseID(req.Data.RetiroID, "retiro_id")
	if err != nil {
		return nil, err
	}
	categoriaID, err := parseID(req.Data.CategoriaID, "categoria_id")
	if err != nil {
		return nil, err
	}

	input := model.CrearTransaccion{
		RetiroID:    retiroID,
		CategoriaID: categoriaID,
		Tipo:        model.TipoTransaccion(req.Data.Tipo),
		Monto:       req.Data.Monto,
		Descripcion: req.Data.Descripcion,
	}
	if req.Data.Fecha != nil {
		input.Fecha = *req.Data.Fecha
	}

	txn, err := b.transacciones.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	return toTransaccionDTO(*txn), nil
}

func (b *Bridge) deleteTransaccion(ctx context.Context, payload json.RawMessage) (any, error) {
	req, err := decode[struct {
		ID string `json:"id"`
	}](payload)
	if err != nil {
		return nil, err
	}
	id, err := parseID(req.ID, "id")
	if err != nil {
		return nil, err
	}
	return b.transacciones.Delete(ctx, id)
}

func (b *Bridge) getBalanceRetiro(ctx context.Context, payload json.RawMessage) (any, error) {
	req, err := decode[struct {
		RetiroID string `json:"retiro_id"`
	}](payload)
	if err != nil {
		return nil, err
	}
	retiroID, err := parseID(req.RetiroID, "retiro_id")
	if err != nil {
		return nil, err
	}

	ingreso := model.TipoTransaccionIngreso
	totalIngresos, err := b.transacciones.CalculateBalance(ctx, retiroID, &ingreso)
	if err != nil {
		return nil, err
	}

	gasto := model.TipoTransaccionGasto
	totalGastos, err := b.transacciones.CalculateBalance(ctx, retiroID, &gasto)
	if err != nil {
		return nil, err
	}

	count, err := b.transacciones.CountByRetiro(ctx, retiroID)
	if err != nil {
		return nil, err
	}

	return BalanceRetiro{
		RetiroID:      req.RetiroID,
		Balance:       totalIngresos - totalGastos,
		TotalIngresos: totalIngresos,
		TotalGastos:   totalGastos,
		Transacciones: count,
	}, nil
}
