// Package testfixtures provides deterministic clocks, identifier generators,
// and prebuilt domain records shared by tests across packages.
package testfixtures

import (
	"time"

	"github.com/example/space-booking/internal/application"
	"github.com/example/space-booking/internal/booking"
	"github.com/example/space-booking/internal/persistence"
)

// ReferenceTime returns the fixed instant fixtures anchor their timestamps to.
func ReferenceTime() time.Time {
	return time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
}

// UserFixture describes a user record for tests.
type UserFixture struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Role         application.Role
	Company      string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption mutates a UserFixture under construction.
type UserOption func(*UserFixture)

// NewUserFixture builds a user fixture with sensible defaults.
func NewUserFixture(opts ...UserOption) UserFixture {
	fixture := UserFixture{
		ID:           "usr-1",
		Name:         "Alice Admin",
		Email:        "alice@example.com",
		Role:         application.RoleAdmin,
		PasswordHash: "hashed:password",
		CreatedAt:    ReferenceTime(),
		UpdatedAt:    ReferenceTime(),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the fixture's identifier.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) { f.ID = id }
}

// WithUserEmail overrides the fixture's email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) { f.Email = email }
}

// WithUserRole overrides the fixture's role.
func WithUserRole(role application.Role) UserOption {
	return func(f *UserFixture) { f.Role = role }
}

// WithUserPasswordHash overrides the stored password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) { f.PasswordHash = hash }
}

// Application converts the fixture to the application model.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:        f.ID,
		Name:      f.Name,
		Email:     f.Email,
		Phone:     f.Phone,
		Role:      f.Role,
		Company:   f.Company,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Credentials converts the fixture to the credential pair used by the auth service.
func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{
		User:         f.Application(),
		PasswordHash: f.PasswordHash,
	}
}

// Principal derives the acting principal for the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, IsAdmin: f.Role == application.RoleAdmin}
}

// Persistence converts the fixture to the persistence model.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Name:         f.Name,
		Email:        f.Email,
		Phone:        f.Phone,
		Role:         string(f.Role),
		Company:      f.Company,
		PasswordHash: f.PasswordHash,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// SpaceFixture describes a catalog entry for tests.
type SpaceFixture struct {
	ID          string
	Name        string
	Type        application.SpaceType
	Capacity    int
	Location    string
	Description string
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SpaceOption mutates a SpaceFixture under construction.
type SpaceOption func(*SpaceFixture)

// NewSpaceFixture builds a space fixture with sensible defaults.
func NewSpaceFixture(opts ...SpaceOption) SpaceFixture {
	fixture := SpaceFixture{
		ID:        "sp-1",
		Name:      "Room A",
		Type:      application.SpaceTypeRoom,
		Capacity:  8,
		Location:  "2nd floor",
		Available: true,
		CreatedAt: ReferenceTime(),
		UpdatedAt: ReferenceTime(),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSpaceID overrides the fixture's identifier.
func WithSpaceID(id string) SpaceOption {
	return func(f *SpaceFixture) { f.ID = id }
}

// WithSpaceName overrides the fixture's name.
func WithSpaceName(name string) SpaceOption {
	return func(f *SpaceFixture) { f.Name = name }
}

// WithSpaceType overrides the fixture's type.
func WithSpaceType(spaceType application.SpaceType) SpaceOption {
	return func(f *SpaceFixture) { f.Type = spaceType }
}

// WithSpaceAvailable overrides the fixture's availability flag.
func WithSpaceAvailable(available bool) SpaceOption {
	return func(f *SpaceFixture) { f.Available = available }
}

// Application converts the fixture to the application model.
func (f SpaceFixture) Application() application.Space {
	return application.Space{
		ID:          f.ID,
		Name:        f.Name,
		Type:        f.Type,
		Capacity:    f.Capacity,
		Location:    f.Location,
		Description: f.Description,
		Available:   f.Available,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Persistence converts the fixture to the persistence model.
func (f SpaceFixture) Persistence() persistence.Space {
	record := persistence.Space{
		ID:        f.ID,
		Name:      f.Name,
		Type:      string(f.Type),
		Capacity:  f.Capacity,
		Location:  f.Location,
		Available: f.Available,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
	if f.Description != "" {
		description := f.Description
		record.Description = &description
	}
	return record
}

// Input converts the fixture to the caller facing input model.
func (f SpaceFixture) Input() application.SpaceInput {
	available := f.Available
	return application.SpaceInput{
		Name:        f.Name,
		Type:        string(f.Type),
		Capacity:    f.Capacity,
		Location:    f.Location,
		Description: f.Description,
		Available:   &available,
	}
}

// BookingFixture describes a reservation record for tests.
type BookingFixture struct {
	ID          string
	SpaceID     string
	RequesterID string
	Start       time.Time
	End         time.Time
	Status      booking.Status
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// BookingOption mutates a BookingFixture under construction.
type BookingOption func(*BookingFixture)

// NewBookingFixture builds a booking fixture occupying 09:00 to 10:00 on the
// reference day.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	start := ReferenceTime().Add(time.Hour)
	fixture := BookingFixture{
		ID:          "bk-1",
		SpaceID:     "sp-1",
		RequesterID: "usr-1",
		Start:       start,
		End:         start.Add(time.Hour),
		Status:      booking.StatusPending,
		CreatedAt:   ReferenceTime(),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBookingID overrides the fixture's identifier.
func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) { f.ID = id }
}

// WithBookingSpace overrides the space claimed by the fixture.
func WithBookingSpace(spaceID string) BookingOption {
	return func(f *BookingFixture) { f.SpaceID = spaceID }
}

// WithBookingRequester overrides the requesting user.
func WithBookingRequester(requesterID string) BookingOption {
	return func(f *BookingFixture) { f.RequesterID = requesterID }
}

// WithBookingInterval overrides the fixture's half-open interval.
func WithBookingInterval(start, end time.Time) BookingOption {
	return func(f *BookingFixture) {
		f.Start = start
		f.End = end
	}
}

// WithBookingStatus overrides the fixture's lifecycle status.
func WithBookingStatus(status booking.Status) BookingOption {
	return func(f *BookingFixture) { f.Status = status }
}

// Application converts the fixture to the application model.
func (f BookingFixture) Application() application.Booking {
	return application.Booking{
		ID:          f.ID,
		SpaceID:     f.SpaceID,
		RequesterID: f.RequesterID,
		Start:       f.Start,
		End:         f.End,
		Status:      f.Status,
		Notes:       f.Notes,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Persistence converts the fixture to the persistence model.
func (f BookingFixture) Persistence() persistence.Booking {
	record := persistence.Booking{
		ID:          f.ID,
		SpaceID:     f.SpaceID,
		RequesterID: f.RequesterID,
		Start:       f.Start,
		End:         f.End,
		Status:      f.Status,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
	if f.Notes != "" {
		notes := f.Notes
		record.Notes = &notes
	}
	return record
}

// Input converts the fixture to the caller facing input model.
func (f BookingFixture) Input() application.BookingInput {
	return application.BookingInput{
		SpaceID:     f.SpaceID,
		RequesterID: f.RequesterID,
		Start:       f.Start,
		End:         f.End,
		Notes:       f.Notes,
	}
}
