package persistence

import (
	"time"

	"github.com/example/space-booking/internal/booking"
)

// Space represents a bookable resource catalog entry.
type Space struct {
	ID          string
	Name        string
	Type        string
	Capacity    int
	Location    string
	Description *string
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Booking represents a reservation claim stored in persistence.
type Booking struct {
	ID          string
	SpaceID     string
	RequesterID string
	Start       time.Time
	End         time.Time
	Status      booking.Status
	Notes       *string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// User represents an account managed by administrators.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Role         string
	Company      string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
