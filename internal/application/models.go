package application

import (
	"time"

	"github.com/example/space-booking/internal/booking"
)

// Principal represents the authenticated caller invoking a service method.
// A zero Principal is an anonymous self-service requester.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// SpaceType classifies a bookable space.
type SpaceType string

const (
	SpaceTypeRoom       SpaceType = "room"
	SpaceTypeAuditorium SpaceType = "auditorium"
	SpaceTypeLab        SpaceType = "lab"
	SpaceTypeCoworking  SpaceType = "coworking"
)

// Valid reports whether the type is one of the catalog's known kinds.
func (t SpaceType) Valid() bool {
	switch t {
	case SpaceTypeRoom, SpaceTypeAuditorium, SpaceTypeLab, SpaceTypeCoworking:
		return true
	}
	return false
}

// Space represents a bookable resource exposed by the application services.
type Space struct {
	ID          string
	Name        string
	Type        SpaceType
	Capacity    int
	Location    string
	Description string
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SpaceInput captures caller provided space fields.
type SpaceInput struct {
	Name        string
	Type        string
	Capacity    int
	Location    string
	Description string
	Available   *bool
}

// CreateSpaceParams wraps the data required to create a space.
type CreateSpaceParams struct {
	Principal Principal
	Input     SpaceInput
}

// UpdateSpaceParams wraps the data required to update a space.
type UpdateSpaceParams struct {
	Principal Principal
	SpaceID   string
	Input     SpaceInput
}

// Booking represents a persisted reservation.
type Booking struct {
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

// BookingInput captures caller provided booking fields.
type BookingInput struct {
	SpaceID     string
	RequesterID string
	Start       time.Time
	End         time.Time
	Notes       string
}

// BookingPatch carries partial booking updates. Nil fields are left unchanged.
type BookingPatch struct {
	SpaceID *string
	Start   *time.Time
	End     *time.Time
	Notes   *string
}

// CreateBookingParams wraps the data required to create a booking.
type CreateBookingParams struct {
	Principal Principal
	Input     BookingInput
}

// UpdateBookingParams wraps the data required to edit an existing booking.
type UpdateBookingParams struct {
	Principal Principal
	BookingID string
	Patch     BookingPatch
}

// TransitionBookingParams wraps the data required to move a booking through
// its lifecycle.
type TransitionBookingParams struct {
	Principal Principal
	BookingID string
	Action    booking.Action
}

// ListBookingsParams narrows booking listings.
type ListBookingsParams struct {
	Principal   Principal
	SpaceID     string
	RequesterID string
	Status      booking.Status
}

// DaySchedule identifies a single-day agenda request. Date is a local
// calendar day ("2006-01-02") resolved against Location once at the boundary;
// all interval comparisons below that point use absolute instants.
type DaySchedule struct {
	Principal Principal
	Date      string
	SpaceID   string
	Location  *time.Location
}

// Role classifies an account's privileges.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// Valid reports whether the role is known.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleClient
}

// User represents an account exposed by the application services.
type User struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Role      Role
	Company   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Name     string
	Email    string
	Phone    string
	Role     string
	Company  string
	Password string
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update a user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication.
type AuthenticateResult struct {
	User    User
	Session Session
}

// ReportPeriod selects the trailing window applied to usage figures.
type ReportPeriod string

const (
	PeriodAll   ReportPeriod = "all"
	PeriodWeek  ReportPeriod = "week"
	PeriodMonth ReportPeriod = "month"
	PeriodYear  ReportPeriod = "year"
)

// Valid reports whether the period is a known preset.
func (p ReportPeriod) Valid() bool {
	switch p {
	case PeriodAll, PeriodWeek, PeriodMonth, PeriodYear:
		return true
	}
	return false
}

// StatusTotals counts bookings by lifecycle status.
type StatusTotals struct {
	Total     int
	Pending   int
	Confirmed int
	Cancelled int
}

// SpaceUsage reports how often a space was booked within the report window.
// Space is nil when the booking references a space that no longer exists.
type SpaceUsage struct {
	SpaceID string
	Space   *Space
	Count   int
}

// Report aggregates the derived figures shown on the reporting screen.
type Report struct {
	Period        ReportPeriod
	Totals        StatusTotals
	MostBooked    *SpaceUsage
	OccupancyRate float64
}
