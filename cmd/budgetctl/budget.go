package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/budgetbox/internal/budget"
	"github.com/MrJamesThe3rd/budgetbox/internal/session"
)

var statusLabels = map[budget.SyncStatus]string{
	budget.StatusSynced:      "All changes saved to cloud",
	budget.StatusSyncPending: "Unsaved changes",
	budget.StatusLocalOnly:   "Local only",
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}

	return d, nil
}

func printBudget(w io.Writer, b budget.Budget, status budget.SyncStatus) {
	fmt.Fprintf(w, "%s  %s  (%s)\n\n", b.UserID, b.Month, statusLabels[status])

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "CATEGORY", "AMOUNT")

	for _, c := range b.Categories {
		t.Row(c.ID, c.Name, c.Amount.StringFixed(2))
	}

	fmt.Fprintln(w, t.String())
	fmt.Fprintf(w, "Income:    %s\n", b.Income.StringFixed(2))
	fmt.Fprintf(w, "Expenses:  %s\n", b.TotalExpenses.StringFixed(2))
	fmt.Fprintf(w, "Remaining: %s\n", budget.Remaining(b).StringFixed(2))
}

// withBudget opens the month, runs edit and prints the resulting budget.
func withBudget(a *app, edit func(cmd *cobra.Command, s *session.Session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := a.session(cmd)
		if err != nil {
			return err
		}

		if err := edit(cmd, s, args); err != nil {
			return err
		}

		b, err := s.Budget()
		if err != nil {
			return err
		}

		printBudget(cmd.OutOrStdout(), b, s.Status())

		return nil
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the budget of the month",
		Args:  cobra.NoArgs,
		RunE: withBudget(a, func(*cobra.Command, *session.Session, []string) error {
			return nil
		}),
	}
}

func newIncomeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "income <amount>",
		Short: "Set the monthly income",
		Args:  cobra.ExactArgs(1),
		RunE: withBudget(a, func(cmd *cobra.Command, s *session.Session, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}

			return s.SetIncome(cmd.Context(), amount)
		}),
	}
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <amount>",
		Short: "Add an expense category",
		Args:  cobra.ExactArgs(2),
		RunE: withBudget(a, func(cmd *cobra.Command, s *session.Session, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			return s.AddCategory(cmd.Context(), args[0], amount)
		}),
	}
}

func newSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <categoryId> <amount>",
		Short: "Change the amount of a category",
		Args:  cobra.ExactArgs(2),
		RunE: withBudget(a, func(cmd *cobra.Command, s *session.Session, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			return s.UpdateCategoryAmount(cmd.Context(), args[0], amount)
		}),
	}
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <categoryId>",
		Short: "Remove a category",
		Args:  cobra.ExactArgs(1),
		RunE: withBudget(a, func(cmd *cobra.Command, s *session.Session, args []string) error {
			return s.RemoveCategory(cmd.Context(), args[0])
		}),
	}
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push the budget to the server",
		Args:  cobra.NoArgs,
		RunE: withBudget(a, func(cmd *cobra.Command, s *session.Session, _ []string) error {
			outcome, err := s.Sync(cmd.Context())
			if err != nil {
				return err
			}

			if outcome == session.OutcomeOverwritten {
				fmt.Fprintln(cmd.OutOrStdout(), session.OverwriteNotice)
			}

			return nil
		}),
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every budget stored on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			budgets, err := a.local.List(cmd.Context())
			if err != nil {
				return err
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("USER", "MONTH", "INCOME", "EXPENSES", "VERSION")

			for _, b := range budgets {
				t.Row(b.UserID, b.Month, b.Income.StringFixed(2), b.TotalExpenses.StringFixed(2), fmt.Sprint(b.Version))
			}

			fmt.Fprintln(cmd.OutOrStdout(), t.String())

			return nil
		},
	}
}
