package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type RouterConfig struct {
	Bookings    *BookingHandler
	Ready       func(ctx context.Context) error
	RateLimiter *RateLimiter
	Logger      *slog.Logger
	Middleware  []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	router := httprouter.New()
	responder := newResponder(cfg.Logger)

	router.GET("/health", health)
	router.GET("/ready", ready(cfg.Ready, responder))

	if cfg.Bookings != nil {
		limit := cfg.RateLimiter.Limit

		router.GET("/rooms", cfg.Bookings.ListRooms)
		router.POST("/rooms", limit(cfg.Bookings.AddRoom))
		router.POST("/rooms/:room/bookings", limit(cfg.Bookings.Book))
		router.GET("/rooms/:room/bookings/:date/:slot", cfg.Bookings.GetBooking)
		router.GET("/rooms/:room/days/:date", cfg.Bookings.GetDay)
		router.GET("/rooms/:room/week", cfg.Bookings.GetWeek)
	}

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		responder.writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{ErrorCode: "not_found", Message: statusMessage(http.StatusNotFound)})
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		responder.writeJSON(r.Context(), w, http.StatusMethodNotAllowed, errorResponse{ErrorCode: "method_not_allowed", Message: statusMessage(http.StatusMethodNotAllowed)})
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		responder.loggerFor(r.Context()).ErrorContext(r.Context(), "handler panicked", "panic", fmt.Sprint(v))
		responder.writeJSON(r.Context(), w, http.StatusInternalServerError, errorResponse{ErrorCode: "internal", Message: statusMessage(http.StatusInternalServerError)})
	}

	var handler http.Handler = router
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func ready(check func(ctx context.Context) error, responder responder) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				responder.writeError(r.Context(), w, http.StatusServiceUnavailable, "unavailable", errStoreUnavailable)
				responder.loggerFor(r.Context()).ErrorContext(r.Context(), "readiness check failed", "error", err)
				return
			}
		}
		responder.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
