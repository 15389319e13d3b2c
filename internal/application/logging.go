package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/room-ledger/internal/ledger"
	"github.com/example/room-ledger/internal/logging"
	"github.com/example/room-ledger/internal/render"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps ledger, sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	if kind := ledger.KindOf(err); kind != ledger.KindUnknown {
		return kind.String()
	}

	var slotErr *InvalidSlotError
	if errors.As(err, &slotErr) {
		return ledger.KindInvalidTimeslot.String()
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ledger.ErrEmptyRoomID), errors.Is(err, render.ErrUnknownFormat):
		return "validation"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
