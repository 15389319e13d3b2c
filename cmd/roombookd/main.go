// Command roombookd serves the booking ledger over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/room-ledger/internal/application"
	"github.com/example/room-ledger/internal/config"
	httptransport "github.com/example/room-ledger/internal/http"
	"github.com/example/room-ledger/internal/ledger"
	"github.com/example/room-ledger/internal/logging"
	"github.com/example/room-ledger/internal/persistence/backend"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close store", "error", cerr)
		}
	}()

	l, err := ledger.Open(ctx, store, ledger.WithLocation(cfg.Location))
	if err != nil {
		return fmt.Errorf("load bookings: %w", err)
	}
	svc := application.NewBookingService(l,
		application.WithLogger(logger),
		application.WithPublicURL(cfg.PublicURL),
	)

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}
	logger.Info("room booking API listening", "addr", listener.Addr().String(), "store", store.Kind)
	return serve(ctx, newServer(cfg, svc, store.Ping, logger), listener, logger)
}

func newHandler(cfg config.Config, svc *application.BookingService, ready func(context.Context) error, logger *slog.Logger) http.Handler {
	return httptransport.NewRouter(httptransport.RouterConfig{
		Bookings:    httptransport.NewBookingHandler(svc, logger),
		Ready:       ready,
		RateLimiter: httptransport.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, logger),
		Logger:      logger,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.CORS(cfg.CORSOrigins),
			httptransport.SecurityHeaders,
		},
	})
}

func newServer(cfg config.Config, svc *application.BookingService, ready func(context.Context) error, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newHandler(cfg, svc, ready, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
}

// serve runs server on listener until ctx is cancelled and then drains open
// connections.
func serve(ctx context.Context, server *http.Server, listener net.Listener, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
