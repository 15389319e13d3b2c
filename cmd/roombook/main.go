// Command roombook is the interactive booking prompt.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/example/room-ledger/internal/application"
	"github.com/example/room-ledger/internal/cli"
	"github.com/example/room-ledger/internal/config"
	"github.com/example/room-ledger/internal/ledger"
	"github.com/example/room-ledger/internal/logging"
	"github.com/example/room-ledger/internal/persistence/backend"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// The prompt shares the terminal with the log, so only warnings are
	// shown unless a level is configured explicitly.
	if os.Getenv("ROOMBOOK_LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}

	if err := run(context.Background(), cfg, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, in io.Reader, out, errOut io.Writer) (err error) {
	logger := logging.New(errOut, logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	store, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close store: %w", cerr)
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
	interp := cli.New(svc, out,
		cli.WithRenderOutput(cfg.RenderOutput),
		cli.WithLogger(logger),
	)
	return interp.Run(ctx, in)
}
