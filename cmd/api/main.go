package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/budgetbox/internal/budgetsync"
	"github.com/MrJamesThe3rd/budgetbox/internal/budgetsync/memstore"
	"github.com/MrJamesThe3rd/budgetbox/internal/budgetsync/store"
	"github.com/MrJamesThe3rd/budgetbox/internal/config"
	"github.com/MrJamesThe3rd/budgetbox/internal/database"
	budgetHttp "github.com/MrJamesThe3rd/budgetbox/internal/http"
	budgetHandler "github.com/MrJamesThe3rd/budgetbox/internal/http/budget"
	healthHandler "github.com/MrJamesThe3rd/budgetbox/internal/http/health"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(cfg.Logger())

	repo, closeRepo, err := newRepository(cfg)
	if err != nil {
		slog.Error("failed to set up record store", "store", cfg.Server.Store, "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	syncService := budgetsync.NewService(repo)

	router := budgetHttp.New(
		budgetHandler.NewHandler(syncService),
		healthHandler.NewHandler(syncService),
		cfg.Server.CORSOrigins,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "app", cfg.App.Name, "port", srv.Addr, "store", cfg.Server.Store)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newRepository(cfg *config.Config) (budgetsync.Repository, func(), error) {
	if cfg.Server.Store == "memory" {
		slog.Warn("using in-memory record store, budgets are lost on restart")
		return memstore.New(), func() {}, nil
	}

	if err := database.Migrate(cfg.ConnectionString()); err != nil {
		return nil, nil, err
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, nil, err
	}

	return store.New(db), func() { db.Close() }, nil
}
