// Course Materials RAG System - API server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/course-rag/internal/api"
	"github.com/ashureev/course-rag/internal/config"
	"github.com/ashureev/course-rag/internal/middleware"
	"github.com/ashureev/course-rag/internal/rag"
	"github.com/ashureev/course-rag/internal/store"
	"github.com/ashureev/course-rag/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped successfully")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	slog.Info("Starting server", "service", api.ServiceName, "port", cfg.Port, "engine_addr", cfg.Engine.Address)

	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		return err
	}
	slog.Info("Database connected", "path", cfg.DBPath)

	backend, err := rag.NewGrpcClient(rag.GrpcClientConfig{
		Address:        cfg.Engine.Address,
		ConnectTimeout: cfg.Engine.ConnectTimeout,
		RequestTimeout: cfg.Engine.RequestTimeout,
	}, logger)
	if err != nil {
		return err
	}

	system, err := rag.NewSystem(backend, rag.NewStoreSessionManager(repo, cfg.Session.MaxHistory), logger)
	if err != nil {
		backend.Close()
		return err
	}
	defer system.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(cfg, system, repo, web.Handler()),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // answers can take as long as the engine needs
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return rag.RunSessionSweeper(gctx, repo, cfg.Session.TTL, cfg.Session.SweepInterval)
	})

	g.Go(func() error {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newRouter wires middleware, API routes and the frontend.
func newRouter(cfg *config.Config, engine *rag.System, repo store.Repository, static http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	api.NewHealthHandler(repo, engine).RegisterHealth(r)
	api.NewQueryHandler(engine).RegisterRoutes(r)

	// Serve embedded frontend.
	r.Handle("/*", static)

	return r
}
