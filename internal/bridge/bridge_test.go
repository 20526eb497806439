package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retiros-app/retiros/internal/model"
	"github.com/retiros-app/retiros/internal/testutil"
)

func newTestBridge(t *testing.T) (*Bridge, *testutil.Repos) {
	t.Helper()
	repos := testutil.SetupDB(t)
	return New(repos.DB), repos
}

func dispatch(t *testing.T, b *Bridge, command string, payload string) Response {
	t.Helper()
	req := Request{ID: 1, Command: command}
	if payload != "" {
		req.Payload = json.RawMessage(payload)
	}
	return b.Dispatch(context.Background(), req)
}

func resultAs[T any](t *testing.T, resp Response) T {
	t.Helper()
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestDispatchUnknownCommand(t *testing.T) {
	b, _ := newTestBridge(t)

	resp := dispatch(t, b, "drop_database", "")
	assert.False(t, resp.Ok)
	assert.Contains(t, resp.Error, "unknown command")
	assert.Equal(t, int64(1), resp.ID)
}

func TestCategoriaLifecycle(t *testing.T) {
	b, _ := newTestBridge(t)
	ctx := context.Background()

	resp := dispatch(t, b, "create_categoria",
		`{"data": {"nombre": "Alojamiento", "tipo": "Gasto", "color": "#FF5733"}}`)
	require.True(t, resp.Ok, resp.Error)
	created := resultAs[categoriaDTO](t, resp)
	assert.Equal(t, "Alojamiento", created.Nombre)
	assert.Equal(t, "Gasto", created.Tipo)
	assert.NotEmpty(t, created.ID)

	resp = dispatch(t, b, "get_categorias", "")
	require.True(t, resp.Ok)
	listed := resultAs[[]categoriaDTO](t, resp)
	require.Len(t, listed, 1)
	assert.Equal(t, created, listed[0])

	resp = b.Dispatch(ctx, Request{ID: 2, Command: "update_categoria", Payload: json.RawMessage(
		fmt.Sprintf(`{"id": %q, "data": {"nombre": "Hospedaje", "tipo": "Gasto", "color": "#FF5733"}}`, created.ID))})
	require.True(t, resp.Ok, resp.Error)
	updated := resultAs[categoriaDTO](t, resp)
	assert.Equal(t, "Hospedaje", updated.Nombre)

	resp = dispatch(t, b, "delete_categoria", fmt.Sprintf(`{"id": %q}`, created.ID))
	require.True(t, resp.Ok)
	assert.Equal(t, true, resp.Result)

	resp = dispatch(t, b, "get_categorias", "")
	require.True(t, resp.Ok)
	assert.Empty(t, resultAs[[]categoriaDTO](t, resp))
}

func TestUpdateCategoriaAbsentReturnsNull(t *testing.T) {
	b, _ := newTestBridge(t)

	resp := dispatch(t, b, "update_categoria",
		`{"id": "a2e8b7d0-0000-4000-8000-000000000001", "data": {"nombre": "Comida", "tipo": "Gasto", "color": "#00FF00"}}`)
	require.True(t, resp.Ok, resp.Error)
	assert.Nil(t, resp.Result)
}

func TestValidationFailureCrossesAsString(t *testing.T) {
	b, _ := newTestBridge(t)

	resp := dispatch(t, b, "create_categoria",
		`{"data": {"nombre": "", "tipo": "Gasto", "color": "#FF5733"}}`)
	assert.False(t, resp.Ok)
	assert.Contains(t, resp.Error, "validation")
}

func TestCreateCategoriaRejectsMalformedPayload(t *testing.T) {
	b, _ := newTestBridge(t)

	resp := dispatch(t, b, "create_categoria", `{"data": `)
	assert.False(t, resp.Ok)
	assert.Contains(t, resp.Error, "invalid payload")

	resp = dispatch(t, b, "create_categoria", "")
	assert.False(t, resp.Ok)
	assert.Contains(t, resp.Error, "missing payload")
}

func TestRetiroEstadoOverBridge(t *testing.T) {
	b, _ := newTestBridge(t)

	resp := dispatch(t, b, "create_retiro",
		`{"data": {"nombre": "Retiro de Verano", "fecha_inicio": "2026-07-01T00:00:00Z", "fecha_fin": "2026-07-05T00:00:00Z", "numero_participantes": 25}}`)
	require.True(t, resp.Ok, resp.Error)
	created := resultAs[retiroDTO](t, resp)
	assert.Equal(t, "Planificacion", created.Estado)
	assert.Nil(t, created.Descripcion)

	resp = dispatch(t, b, "update_retiro_estado",
		fmt.Sprintf(`{"id": %q, "estado": "Activo"}`, created.ID))
	require.True(t, resp.Ok, resp.Error)
	assert.Equal(t, "Activo", resultAs[retiroDTO](t, resp).Estado)

	resp = dispatch(t, b, "update_retiro_estado",
		fmt.Sprintf(`{"id": %q, "estado": "Cancelado"}`, created.ID))
	assert.False(t, resp.Ok)
}

func TestGetTransaccionesWithoutRetiroIsEmpty(t *testing.T) {
	b, _ := newTestBridge(t)

	resp := dispatch(t, b, "get_transacciones", `{}`)
	require.True(t, resp.Ok, resp.Error)
	assert.Empty(t, resultAs[[]transaccionDTO](t, resp))

	resp = dispatch(t, b, "get_transacciones", "")
	require.True(t, resp.Ok, resp.Error)
	assert.Empty(t, resultAs[[]transaccionDTO](t, resp))
}

func TestBalanceRetiroOverBridge(t *testing.T) {
	b, repos := newTestBridge(t)
	ctx := context.Background()

	retiro, err := repos.Retiros.Create(ctx, model.CrearRetiro{
		Nombre:              "Retiro de Invierno",
		FechaInicio:         time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		FechaFin:            time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC),
		NumeroParticipantes: 12,
	})
	require.NoError(t, err)

	ingreso, err := repos.Categorias.Create(ctx, model.CrearCategoria{
		Nombre: "Inscripciones", Tipo: model.TipoCategoriaIngreso, Color: "#4ECDC4",
	})
	require.NoError(t, err)
	gasto, err := repos.Categorias.Create(ctx, model.CrearCategoria{
		Nombre: "Comida", Tipo: model.TipoCategoriaGasto, Color: "#FF5733",
	})
	require.NoError(t, err)

	_, err = repos.Transacciones.Create(ctx, model.CrearTransaccion{
		RetiroID: retiro.ID, CategoriaID: ingreso.ID,
		Tipo: model.TipoTransaccionIngreso, Monto: 500, Descripcion: "Cuotas",
	})
	require.NoError(t, err)
	_, err = repos.Transacciones.Create(ctx, model.CrearTransaccion{
		RetiroID: retiro.ID, CategoriaID: gasto.ID,
		Tipo: model.TipoTransaccionGasto, Monto: 120.50, Descripcion: "Mercado",
	})
	require.NoError(t, err)

	resp := dispatch(t, b, "get_balance_retiro", fmt.Sprintf(`{"retiro_id": %q}`, retiro.ID))
	require.True(t, resp.Ok, resp.Error)
	balance := resultAs[BalanceRetiro](t, resp)
	assert.Equal(t, retiro.ID.String(), balance.RetiroID)
	assert.InDelta(t, 379.50, balance.Balance, 0.001)
	assert.InDelta(t, 500, balance.TotalIngresos, 0.001)
	assert.InDelta(t, 120.50, balance.TotalGastos, 0.001)
	assert.Equal(t, int64(2), balance.Transacciones)

	resp = dispatch(t, b, "get_transacciones", fmt.Sprintf(`{"retiro_id": %q}`, retiro.ID))
	require.True(t, resp.Ok)
	assert.Len(t, resultAs[[]transaccionDTO](t, resp), 2)
}

func TestServeRoundTrip(t *testing.T) {
	b, _ := newTestBridge(t)

	input := strings.Join([]string{
		`{"id": 1, "command": "create_categoria", "payload": {"data": {"nombre": "Transporte", "tipo": "Gasto", "color": "#AA00BB"}}}`,
		``,
		`not json`,
		`{"id": 2, "command": "get_categorias"}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	err := b.Serve(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)

	var first, second, third Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &third))

	assert.True(t, first.Ok)
	assert.Equal(t, int64(1), first.ID)

	assert.False(t, second.Ok)
	assert.Contains(t, second.Error, "invalid request")

	assert.True(t, third.Ok)
	assert.Equal(t, int64(2), third.ID)
}

func TestServeStopsOnCanceledContext(t *testing.T) {
	b, _ := newTestBridge(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := b.Serve(ctx, strings.NewReader(`{"id": 1, "command": "get_categorias"}`+"\n"), &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}
