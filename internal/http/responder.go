package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/room-ledger/internal/application"
	"github.com/example/room-ledger/internal/ledger"
	"github.com/example/room-ledger/internal/logging"
	"github.com/example/room-ledger/internal/render"
)

var (
	errBadRequestBody   = errors.New("request body is not valid JSON")
	errRateLimited      = errors.New("too many requests, retry later")
	errStoreUnavailable = errors.New("booking store is unavailable")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, code string, err error) {
	message := statusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{ErrorCode: code, Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, "internal", errors.New("unknown error"))
		return
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "validation",
			Message:   statusMessage(http.StatusUnprocessableEntity),
			Errors:    vErr.FieldErrors,
		})
		return
	}

	status, code := statusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "error", err, "error_kind", application.ErrorKind(err))
		message = statusMessage(status)
	}
	r.writeJSON(ctx, w, status, errorResponse{ErrorCode: code, Message: message})
}

// statusForError maps service and ledger failures to a status code and a
// stable error code.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, render.ErrUnknownFormat):
		return http.StatusBadRequest, "unknown_format"
	case errors.Is(err, ledger.ErrEmptyRoomID):
		return http.StatusUnprocessableEntity, "validation"
	}

	kind := ledger.KindOf(err)
	switch kind {
	case ledger.KindRoomDoesntExist:
		return http.StatusNotFound, kind.String()
	case ledger.KindRoomAlreadyExists, ledger.KindTimeslotNotAvailable:
		return http.StatusConflict, kind.String()
	case ledger.KindInvalidBookingOnWeekend, ledger.KindBookingTooFarAhead,
		ledger.KindBookingInThePastForbidden, ledger.KindInvalidTimeslot:
		return http.StatusUnprocessableEntity, kind.String()
	}

	var slotErr *application.InvalidSlotError
	if errors.As(err, &slotErr) {
		return http.StatusUnprocessableEntity, ledger.KindInvalidTimeslot.String()
	}
	if kind == ledger.KindPersistence {
		return http.StatusInternalServerError, kind.String()
	}
	return http.StatusInternalServerError, "internal"
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "the request is malformed"
	case http.StatusNotFound:
		return "the requested resource does not exist"
	case http.StatusMethodNotAllowed:
		return "method not allowed"
	case http.StatusConflict:
		return "the request conflicts with the current state"
	case http.StatusUnprocessableEntity:
		return "the request contains invalid values"
	case http.StatusTooManyRequests:
		return "too many requests"
	case http.StatusServiceUnavailable:
		return "service unavailable"
	default:
		return "internal server error"
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
