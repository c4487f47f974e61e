package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/budgetbox/internal/budget"
	"github.com/MrJamesThe3rd/budgetbox/internal/session"
)

const barWidth = 30

// OverviewModel shows where the income goes.
type OverviewModel struct {
	CommonModel
	session *session.Session
}

func NewOverviewModel(s *session.Session) OverviewModel {
	return OverviewModel{session: s}
}

func (m OverviewModel) Title() string     { return "Overview" }
func (m OverviewModel) ShortHelp() string { return "Esc: back" }

func (m OverviewModel) Init() tea.Cmd {
	return nil
}

func (m OverviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	return m, nil
}

// bar draws part against whole, clamped to width cells.
func bar(part, whole decimal.Decimal, width int) string {
	filled := 0

	if whole.IsPositive() && part.IsPositive() {
		filled = int(part.Div(whole).Mul(decimal.NewFromInt(int64(width))).Round(0).IntPart())
		filled = min(max(filled, 1), width)
	}

	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func (m OverviewModel) View() string {
	b, err := m.session.Budget()
	if err != nil {
		return lipgloss.NewStyle().Padding(1).Render(errorStyle(fmt.Sprintf("Error: %v", err)))
	}

	// Bars are relative to income, or to expenses when there is no income yet.
	whole := b.Income
	if !whole.IsPositive() {
		whole = b.TotalExpenses
	}

	label := lipgloss.NewStyle().Width(12)
	barStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("63"))

	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%s · %s", b.UserID, b.Month)),
		StatusBadge(m.session.Status()),
		"",
		label.Render("Income") + FormatAmount(b.Income),
		label.Render("Expenses") + FormatAmount(b.TotalExpenses),
		label.Render("Remaining") + activeStyle(FormatAmount(budget.Remaining(b))),
		"",
		label.Render("Spent") + barStyle.Render(bar(b.TotalExpenses, whole, barWidth)),
		"",
	}

	if len(b.Categories) == 0 {
		lines = append(lines, lipgloss.NewStyle().Faint(true).Render("No categories yet."))
	}

	for _, c := range b.Categories {
		name := c.Name
		if r := []rune(name); len(r) > 11 {
			name = string(r[:10]) + "…"
		}

		lines = append(lines, fmt.Sprintf("%s%s %s",
			label.Render(name),
			barStyle.Render(bar(c.Amount, whole, barWidth)),
			FormatAmount(c.Amount),
		))
	}

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
