package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/budgetbox/internal/client"
	"github.com/MrJamesThe3rd/budgetbox/internal/config"
	"github.com/MrJamesThe3rd/budgetbox/internal/localstore"
	"github.com/MrJamesThe3rd/budgetbox/internal/session"
)

type app struct {
	user    string
	month   string
	server  string
	dbPath  string
	timeout time.Duration

	local *localstore.Store
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	a := &app{timeout: cfg.Client.Timeout}

	root := &cobra.Command{
		Use:           "budgetctl",
		Short:         "BudgetBox command line",
		Long:          `Edit a monthly budget offline and sync it with the BudgetBox server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.user == "" {
				return errors.New("--user must not be empty")
			}

			if _, err := time.Parse("2006-01", a.month); err != nil {
				return fmt.Errorf("--month must look like YYYY-MM, got %q", a.month)
			}

			local, err := localstore.Open(a.dbPath)
			if err != nil {
				return fmt.Errorf("opening local store: %w", err)
			}

			a.local = local

			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.user, "user", cfg.Client.UserID, "user id owning the budget")
	flags.StringVar(&a.month, "month", time.Now().Format("2006-01"), "budget month (YYYY-MM)")
	flags.StringVar(&a.server, "server", cfg.Client.ServerURL, "sync server base URL")
	flags.StringVar(&a.dbPath, "db", cfg.Client.LocalDB, "path of the local SQLite database")

	for _, cmd := range []*cobra.Command{
		newShowCmd(a),
		newIncomeCmd(a),
		newAddCmd(a),
		newSetCmd(a),
		newRmCmd(a),
		newSyncCmd(a),
		newListCmd(a),
	} {
		cmd.RunE = a.closeAfter(cmd.RunE)
		root.AddCommand(cmd)
	}

	return root
}

// session opens the current user's month.
func (a *app) session(cmd *cobra.Command) (*session.Session, error) {
	s := session.New(a.local, client.New(a.server, a.timeout))

	if err := s.Open(cmd.Context(), a.user, a.month); err != nil {
		return nil, fmt.Errorf("opening budget: %w", err)
	}

	return s, nil
}

// closeAfter releases the local store once run returns, including on error.
// PersistentPostRunE is skipped when RunE fails, so it cannot do this.
func (a *app) closeAfter(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := a.close(); err == nil && cerr != nil {
				err = fmt.Errorf("closing local store: %w", cerr)
			}
		}()

		return run(cmd, args)
	}
}

func (a *app) close() error {
	if a.local == nil {
		return nil
	}

	err := a.local.Close()
	a.local = nil

	return err
}
