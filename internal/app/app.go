package app

import (
	"context"
	"fmt"
	"net"

	"github.com/earthnet/frame-survey/internal/data/db"
	apphttp "github.com/earthnet/frame-survey/internal/http"
	"github.com/earthnet/frame-survey/internal/observability"
	"github.com/earthnet/frame-survey/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *db.Service
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Server   *apphttp.Server

	otelShutdown func(context.Context) error
}

// Open builds the logger, database and repos only. Command line tools use
// it directly; New builds the full service on top.
func Open() (*App, error) {
	cfg := LoadConfig()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	database, err := db.NewService(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(database.DB()); err != nil {
		_ = database.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	return &App{
		Log:   log,
		DB:    database,
		Cfg:   cfg,
		Repos: wireRepos(database.DB(), log),
	}, nil
}

func New(ctx context.Context) (*App, error) {
	a, err := Open()
	if err != nil {
		return nil, err
	}
	a.otelShutdown = observability.InitOTel(ctx, a.Log, a.Cfg.Otel)

	clients, err := wireClients(a.Log, a.Cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Clients = clients

	serviceset, err := wireServices(a.DB, a.Log, a.Cfg, a.Repos, clients)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Services = serviceset

	server, err := wireServer(a.Log, a.Cfg, wireHandlers(a.Log, a.Cfg, a.DB, serviceset))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Server = server
	return a, nil
}

// Run starts the mint queue consumer and serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}

	if a.Services.TemporalWorker != nil {
		if err := a.Services.TemporalWorker.Start(ctx); err != nil {
			return fmt.Errorf("start temporal worker: %w", err)
		}
	}
	if a.Services.MintPool != nil {
		a.Services.MintPool.Start(ctx)
	}

	addr := net.JoinHostPort("", a.Cfg.Port)
	a.Log.Info("HTTP server listening", "addr", addr)
	err := a.Server.Run(ctx, addr)

	if a.Services.MintPool != nil {
		a.Log.Info("Waiting for in-flight mints")
		_ = a.Services.MintPool.Wait()
	}
	return err
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && a.Log != nil {
			a.Log.Warn("database close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
