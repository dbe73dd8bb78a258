package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/example/space-booking/internal/application"
)

type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (application.Principal, error)
}

// RequireSession rejects requests without a valid session token.
func RequireSession(validator SessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractTokenFromRequest(r)
			if token == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
				return
			}

			principal, err := validator.ValidateSession(r.Context(), token)
			if err != nil {
				writeSessionError(responder, w, r, err)
				return
			}

			ctx := ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalSession resolves a session token when one is present but lets
// anonymous requests through. Used for the public booking endpoint where
// unauthenticated visitors may request a reservation.
func OptionalSession(validator SessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractTokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := validator.ValidateSession(r.Context(), token)
			if err != nil {
				// A presented-but-bad token is rejected rather than silently
				// downgraded to anonymous.
				writeSessionError(responder, w, r, err)
				return
			}

			ctx := ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeSessionError renders session validation failures. Unknown tokens come
// back from the service as ErrUnauthorized or ErrNotFound, which here mean
// 401 rather than the 403/404 the generic mapping would produce.
func writeSessionError(responder responder, w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, application.ErrUnauthorized) || errors.Is(err, application.ErrNotFound) {
		responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Message: "the session is not valid, sign in again"})
		return
	}
	responder.handleServiceError(r.Context(), w, err)
}

// RequestLogger attaches a per-request logger to the context and records
// request boundaries.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}
