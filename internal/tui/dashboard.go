// Package tui renders a read-only dashboard of retreats and their balances.
package tui

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/retiros-app/retiros/internal/cli"
	"github.com/retiros-app/retiros/internal/model"
	"github.com/retiros-app/retiros/internal/storage"
)

// retiroRow pairs a retreat with its computed net balance.
type retiroRow struct {
	retiro  model.Retiro
	balance float64
}

type dataLoadedMsg struct {
	rows []retiroRow
}

type errorMsg struct {
	err error
}

// Model holds the dashboard state.
type Model struct {
	lastError     error
	retiros       *storage.RetiroRepository
	transacciones *storage.TransaccionRepository
	ctx           context.Context
	rows          []retiroRow
	table         table.Model
	width         int
	height        int
	ready         bool
	quitting      bool
}

// NewModel builds a dashboard over the given pool.
func NewModel(ctx context.Context, db *sql.DB) Model {
	columns := []table.Column{
		{Title: "Nombre", Width: 30},
		{Title: "Estado", Width: 14},
		{Title: "Participantes", Width: 14},
		{Title: "Inicio", Width: 12},
		{Title: "Balance", Width: 14},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#3A5F3A")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#7C9E6C")).
		Bold(true)
	t.SetStyles(s)

	return Model{
		ctx:           ctx,
		retiros:       storage.NewRetiroRepository(db),
		transacciones: storage.NewTransaccionRepository(db),
		table:         t,
		width:         80,
		height:        24,
	}
}

// Init starts the initial data load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, m.loadRetiros())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, m.loadRetiros()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(1, m.height-6))

	case dataLoadedMsg:
		m.rows = msg.rows
		m.lastError = nil
		m.ready = true
		m.table.SetRows(m.buildTableRows())

	case errorMsg:
		m.lastError = msg.err
		m.ready = true
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Cargando retiros..."
	}

	title := cli.TitleStyle.Render("Retiros")
	subtitle := cli.SubtleStyle.Render(m.summaryLine())

	var body string
	if m.lastError != nil {
		body = cli.ErrorStyle.Render(fmt.Sprintf("Error: %v", m.lastError))
	} else if len(m.rows) == 0 {
		body = cli.SubtleStyle.Render("No hay retiros registrados.")
	} else {
		body = m.table.View()
	}

	footer := cli.SubtleStyle.Render("[↑↓] Navegar  [r] Recargar  [q] Salir")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "", body, "", footer)
}

func (m Model) summaryLine() string {
	activos := 0
	for _, row := range m.rows {
		if row.retiro.Estado == model.EstadoActivo {
			activos++
		}
	}
	return fmt.Sprintf("%d retiros, %d activos", len(m.rows), activos)
}

// loadRetiros fetches every retreat and its net balance.
func (m Model) loadRetiros() tea.Cmd {
	return func() tea.Msg {
		retiros, err := m.retiros.GetAll(m.ctx)
		if err != nil {
			return errorMsg{err: err}
		}

		rows := make([]retiroRow, 0, len(retiros))
		for _, retiro := range retiros {
			balance, err := m.transacciones.CalculateBalance(m.ctx, retiro.ID, nil)
			if err != nil {
				return errorMsg{err: err}
			}
			rows = append(rows, retiroRow{retiro: retiro, balance: balance})
		}
		return dataLoadedMsg{rows: rows}
	}
}

func (m Model) buildTableRows() []table.Row {
	rows := make([]table.Row, 0, len(m.rows))
	for _, row := range m.rows {
		rows = append(rows, table.Row{
			truncate(row.retiro.Nombre, 30),
			string(row.retiro.Estado),
			fmt.Sprintf("%d", row.retiro.NumeroParticipantes),
			row.retiro.FechaInicio.Format("2006-01-02"),
			fmt.Sprintf("%.2f", row.balance),
		})
	}
	return rows
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// Run starts the dashboard program and blocks until the user quits.
func Run(ctx context.Context, db *sql.DB) error {
	p := tea.NewProgram(NewModel(ctx, db), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}
