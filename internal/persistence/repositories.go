package persistence

import (
	"context"
	"time"

	"github.com/example/space-booking/internal/booking"
)

// BookingFilter narrows booking queries. All predicates are conjunctive; zero
// values are ignored. StartsBefore/EndsAfter together select bookings whose
// half-open interval intersects a time window.
type BookingFilter struct {
	SpaceID       string
	RequesterID   string
	Status        booking.Status
	ExcludeStatus booking.Status
	StartsBefore  *time.Time
	EndsAfter     *time.Time
}

// BookingRepository stores reservation records.
type BookingRepository interface {
	CreateBooking(ctx context.Context, record Booking) error
	UpdateBooking(ctx context.Context, record Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}

// SpaceRepository exposes CRUD operations for spaces.
type SpaceRepository interface {
	CreateSpace(ctx context.Context, space Space) error
	UpdateSpace(ctx context.Context, space Space) error
	GetSpace(ctx context.Context, id string) (Space, error)
	ListSpaces(ctx context.Context) ([]Space, error)
	ListSpacesByType(ctx context.Context, spaceType string) ([]Space, error)
	DeleteSpace(ctx context.Context, id string) error
}

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
