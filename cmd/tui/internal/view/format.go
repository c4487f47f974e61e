package view

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/budgetbox/internal/budget"
)

// FormatAmount renders an amount with two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// StatusLabel is the user-facing wording of a sync status.
func StatusLabel(s budget.SyncStatus) string {
	switch s {
	case budget.StatusSynced:
		return "All changes saved to cloud"
	case budget.StatusSyncPending:
		return "Unsaved changes"
	case budget.StatusLocalOnly:
		return "Local only"
	}

	return "Unknown"
}

func StatusBadge(s budget.SyncStatus) string {
	color := lipgloss.Color("240")

	switch s {
	case budget.StatusSynced:
		color = lipgloss.Color("46")
	case budget.StatusSyncPending:
		color = lipgloss.Color("214")
	}

	return lipgloss.NewStyle().Foreground(color).Render("● " + StatusLabel(s))
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func errorStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(s)
}
