package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/issafronov/urlscan/internal/app/config"
	"github.com/issafronov/urlscan/internal/app/handlers"
	"github.com/issafronov/urlscan/internal/app/reputation"
	"github.com/issafronov/urlscan/internal/app/service"
	"github.com/issafronov/urlscan/internal/app/storage"
	"github.com/issafronov/urlscan/internal/middleware/clientip"
	"github.com/issafronov/urlscan/internal/middleware/compress"
	"github.com/issafronov/urlscan/internal/middleware/cors"
	"github.com/issafronov/urlscan/internal/middleware/logger"
	"github.com/issafronov/urlscan/internal/pprof"
	"github.com/issafronov/urlscan/internal/scripts"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		panic(err)
	}
}

// Router собирает маршруты сервиса
func Router(cfg *config.Config, h *handlers.Handler) (chi.Router, error) {
	trustedNet, err := parseTrustedSubnet(cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(logger.RequestLogger)
	router.Use(cors.Middleware)
	router.Use(compress.Middleware)
	router.Use(clientip.Middleware(cfg.ClientIPHeader, trustedNet))

	router.Get("/ping", h.Ping)
	router.HandleFunc("/*", h.ScanHandle)
	return router, nil
}

func parseTrustedSubnet(cidr string) (*net.IPNet, error) {
	if cidr == "" {
		return nil, nil
	}
	_, trustedNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("invalid trusted subnet %q: %w", cidr, err)
	}
	return trustedNet, nil
}

// newStorage выбирает хранилище: PostgreSQL при заданном DSN, иначе память процесса
func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, func(), error) {
	if cfg.DatabaseDSN == "" {
		logger.Log.Info("Using in-memory storage")
		return storage.NewMemoryStorage(), func() {}, nil
	}

	if err := scripts.RunMigrations(cfg.MigrationsPath, cfg.DatabaseDSN); err != nil {
		return nil, nil, err
	}

	pg, err := storage.NewPostgresStorage(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	logger.Log.Info("Using PostgreSQL storage")
	return pg, func() {
		if err := pg.Close(); err != nil {
			logger.Log.Info("Failed to close storage", zap.Error(err))
		}
	}, nil
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	if err := logger.Initialize(cfg.LoggerLevel); err != nil {
		return err
	}
	defer logger.Log.Sync()

	if cfg.APIKey == "" {
		logger.Log.Warn("VIRUSTOTAL_API_KEY is not set, every scan request will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	client := reputation.NewVirusTotalClient(cfg.ReputationBaseURL, cfg.APIKey)
	svc := service.NewService(store, client, service.WithStrictDetails(cfg.StrictDetails))

	h, err := handlers.NewHandler(cfg, svc)
	if err != nil {
		return err
	}

	router, err := Router(cfg, h)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Log.Info("Starting server", zap.String("address", cfg.ServerAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Log.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.EnablePprof {
		g.Go(func() error {
			return pprof.Serve(gctx, cfg.PprofAddress)
		})
	}

	return g.Wait()
}
