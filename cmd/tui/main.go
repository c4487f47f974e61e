package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/budgetbox/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/budgetbox/internal/client"
	"github.com/MrJamesThe3rd/budgetbox/internal/config"
	"github.com/MrJamesThe3rd/budgetbox/internal/localstore"
	"github.com/MrJamesThe3rd/budgetbox/internal/session"
)

type model struct {
	session *session.Session
	userID  string
	month   string

	currentView View
	status      string

	editorView   view.EditorModel
	overviewView view.OverviewModel
	monthView    view.MonthPicker
}

type View int

const (
	ViewMenu     View = 0
	ViewEditor   View = 1
	ViewOverview View = 2
	ViewMonth    View = 3
)

type monthOpenedMsg struct {
	month string
	err   error
}

func (m model) openMonthCmd(month string) tea.Cmd {
	s, userID := m.session, m.userID

	return func() tea.Msg {
		ctx, cancel := view.SyncCtx()
		defer cancel()

		return monthOpenedMsg{month: month, err: s.Open(ctx, userID, month)}
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewEditor
				m.editorView = view.NewEditorModel(m.session)

				return m, m.editorView.Init()
			case "2":
				m.currentView = ViewOverview
				m.overviewView = view.NewOverviewModel(m.session)

				return m, m.overviewView.Init()
			case "3":
				m.currentView = ViewMonth
				m.monthView = view.NewMonthPicker()

				return m, m.monthView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	case view.MonthSelectedMsg:
		m.status = "Opening " + msg.Month + "..."
		return m, m.openMonthCmd(msg.Month)
	case monthOpenedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			m.currentView = ViewMenu

			return m, nil
		}

		m.month = msg.month
		m.status = ""
		m.currentView = ViewEditor
		m.editorView = view.NewEditorModel(m.session)

		return m, m.editorView.Init()
	}

	switch m.currentView {
	case ViewEditor:
		var newModel tea.Model
		newModel, cmd = m.editorView.Update(msg)
		m.editorView = newModel.(view.EditorModel)
	case ViewOverview:
		var newModel tea.Model
		newModel, cmd = m.overviewView.Update(msg)
		m.overviewView = newModel.(view.OverviewModel)
	case ViewMonth:
		var newModel tea.Model
		newModel, cmd = m.monthView.Update(msg)
		m.monthView = newModel.(view.MonthPicker)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		menu := fmt.Sprintf("BudgetBox · %s · %s\n%s\n\n", m.userID, m.month, view.StatusBadge(m.session.Status())) +
			"1. Edit Budget\n" +
			"2. Overview\n" +
			"3. Change Month\n\n" +
			"q. Quit"

		if m.status != "" {
			menu += "\n\n" + lipgloss.NewStyle().Faint(true).Render(m.status)
		}

		return lipgloss.NewStyle().Padding(2).Render(menu)
	case ViewEditor:
		return m.editorView.View()
	case ViewOverview:
		return m.overviewView.View()
	case ViewMonth:
		return lipgloss.NewStyle().Padding(1).Render(m.monthView.View())
	}

	return "Unknown View"
}

func initialModel(cfg *config.Config, local *localstore.Store) (model, error) {
	s := session.New(local, client.New(cfg.Client.ServerURL, cfg.Client.Timeout))
	month := time.Now().Format("2006-01")

	ctx, cancel := view.SyncCtx()
	defer cancel()

	if err := s.Open(ctx, cfg.Client.UserID, month); err != nil {
		return model{}, err
	}

	return model{
		session:     s,
		userID:      cfg.Client.UserID,
		month:       month,
		currentView: ViewMenu,
	}, nil
}

func main() {
	_ = godotenv.Load()

	logFile, err := tea.LogToFile("budgetbox-tui.log", "")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open log file:", err)
		os.Exit(1)
	}
	defer logFile.Close()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	local, err := localstore.Open(cfg.Client.LocalDB)
	if err != nil {
		slog.Error("failed to open local store", "error", err)
		os.Exit(1)
	}
	defer local.Close()

	m, err := initialModel(cfg, local)
	if err != nil {
		slog.Error("failed to open budget", "error", err)
		os.Exit(1)
	}

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
