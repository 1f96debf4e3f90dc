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

	"github.com/vedran77/taskmate/internal/config"
	"github.com/vedran77/taskmate/internal/database"
	"github.com/vedran77/taskmate/internal/logger"
	"github.com/vedran77/taskmate/internal/repository"
	"github.com/vedran77/taskmate/internal/repository/memory"
	mongorepo "github.com/vedran77/taskmate/internal/repository/mongo"
	postgresrepo "github.com/vedran77/taskmate/internal/repository/postgres"
	"github.com/vedran77/taskmate/internal/service"
	"github.com/vedran77/taskmate/internal/transport/http/router"
	"github.com/vedran77/taskmate/internal/transport/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// store bundles the repositories of one driver with its lifecycle.
type store struct {
	users  repository.UserRepository
	tasks  repository.TaskRepository
	pinger database.Pinger
	close  func()
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		m, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		// Index creation needs a live server; without one the process still
		// starts and requests get 503 until the store comes back.
		idxCtx, cancel := context.WithTimeout(ctx, cfg.DBConnectTimeout)
		defer cancel()
		if err := mongorepo.EnsureIndexes(idxCtx, m.Database()); err != nil {
			log.Warn("ensuring mongo indexes", "error", err)
		}
		return &store{
			users:  mongorepo.NewUserRepo(m.Database()),
			tasks:  mongorepo.NewTaskRepo(m.Database()),
			pinger: m,
			close: func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := m.Close(closeCtx); err != nil {
					log.Error("closing mongo client", "error", err)
				}
			},
		}, nil

	case config.DriverPostgres:
		pg, err := database.ConnectPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx, log); err != nil {
			pg.Close()
			return nil, err
		}
		return &store{
			users:  postgresrepo.NewUserRepo(pg.Pool()),
			tasks:  postgresrepo.NewTaskRepo(pg.Pool()),
			pinger: pg,
			close:  pg.Close,
		}, nil

	case config.DriverMemory:
		s := memory.NewStore()
		return &store{
			users:  memory.NewUserRepo(s),
			tasks:  memory.NewTaskRepo(s),
			pinger: s,
			close:  func() {},
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()
	log.Info("store ready", "driver", cfg.StoreDriver)

	// Realtime
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := ws.NewHub(log)
	go hub.Run(hubCtx)

	// Services
	authService := service.NewAuthService(cfg.TokenSecret)
	userService := service.NewUserService(st.users, log)
	taskService := service.NewTaskService(st.tasks, log)
	taskService.SetNotifier(ws.NewHubNotifier(hub, log))

	handler := router.New(router.Deps{
		AuthService:  authService,
		UserService:  userService,
		TaskService:  taskService,
		Hub:          hub,
		Store:        database.NewHealth(st.pinger, cfg.DBHealthTTL, cfg.DBConnectTimeout),
		CORSOrigins:  cfg.CORSOrigins,
		SecureCookie: cfg.IsProduction(),
		Logger:       log,
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting server", "port", cfg.ServerPort, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	// Hijacked websocket connections are not tracked by Shutdown; stopping
	// the hub closes them.
	stopHub()

	log.Info("server stopped")
	return nil
}
