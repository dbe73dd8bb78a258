package http

import (
	"context"
	"log/slog"

	"github.com/example/space-booking/internal/application"
	"github.com/example/space-booking/internal/logging"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
	bookingIDContextKey contextKey = "booking_id"
	spaceIDContextKey   contextKey = "space_id"
	userIDContextKey    contextKey = "user_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithBookingID injects the booking identifier resolved from the request path.
func ContextWithBookingID(ctx context.Context, bookingID string) context.Context {
	return context.WithValue(ctx, bookingIDContextKey, bookingID)
}

// BookingIDFromContext extracts a booking identifier previously associated with the context.
func BookingIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(bookingIDContextKey).(string)
	return id, ok
}

// ContextWithSpaceID injects the space identifier resolved from the request path.
func ContextWithSpaceID(ctx context.Context, spaceID string) context.Context {
	return context.WithValue(ctx, spaceIDContextKey, spaceID)
}

// SpaceIDFromContext extracts a space identifier previously associated with the context.
func SpaceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(spaceIDContextKey).(string)
	return id, ok
}

// ContextWithUserID injects the user identifier resolved from the request path.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext extracts a user identifier previously associated with the context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDContextKey).(string)
	return id, ok
}

// ContextWithLogger attaches a request-scoped logger to the context. The
// logger is shared with the application layer so service log lines carry the
// request attributes.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request-scoped logger, or nil when absent.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
