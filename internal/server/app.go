// Package server initializes and runs the marketplace application: it opens
// the database, runs migrations, constructs the services with their injected
// configuration, and starts the HTTP server with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"ipfsmarket/internal/logging"
	"ipfsmarket/internal/server/config"
	"ipfsmarket/internal/server/httpapi"
	"ipfsmarket/internal/server/ipfs"
	"ipfsmarket/internal/server/repositories/repomanager"
	"ipfsmarket/internal/server/services"
	"ipfsmarket/internal/server/wallet"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	handler := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(handler)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	verifier := wallet.NewVerifier(logger)
	pinner := ipfs.NewClient(cfg.PinataEndpoint, cfg.PinataJWT, cfg.IPFSGatewayURL)

	us := services.NewUserService(db, rm, verifier, cfg)
	as := services.NewAssetService(db, rm, pinner, logger, cfg)

	srv := httpapi.NewServer(logger, us, as, cfg)

	return &App{config: cfg, logger: logger, db: db, httpServer: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpServer.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
