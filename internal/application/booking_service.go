package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/space-booking/internal/booking"
	"github.com/example/space-booking/internal/persistence"
)

// BookingRepository captures the persistence interactions needed by the service.
type BookingRepository interface {
	CreateBooking(ctx context.Context, record Booking) (Booking, error)
	GetBooking(ctx context.Context, id string) (Booking, error)
	UpdateBooking(ctx context.Context, record Booking) (Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	ListBookings(ctx context.Context, filter BookingRepositoryFilter) ([]Booking, error)
}

// BookingRepositoryFilter narrows queries issued to the booking repository.
// StartsBefore/EndsAfter select bookings whose half-open interval intersects
// the window they describe.
type BookingRepositoryFilter struct {
	SpaceID       string
	RequesterID   string
	Status        booking.Status
	ExcludeStatus booking.Status
	StartsBefore  *time.Time
	EndsAfter     *time.Time
}

// SpaceCatalog exposes space lookup operations.
type SpaceCatalog interface {
	GetSpace(ctx context.Context, id string) (Space, error)
}

// BookingService orchestrates validation, conflict detection, and persistence
// for reservation operations. Every decision re-queries current store state;
// nothing is cached between calls.
type BookingService struct {
	bookings    BookingRepository
	spaces      SpaceCatalog
	locks       *spaceLocker
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService wires dependencies for booking operations.
func NewBookingService(bookings BookingRepository, spaces SpaceCatalog, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(bookings, spaces, idGenerator, now, nil)
}

// NewBookingServiceWithLogger constructs a booking service with a specified logger.
func NewBookingServiceWithLogger(bookings BookingRepository, spaces SpaceCatalog, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		bookings:    bookings,
		spaces:      spaces,
		locks:       newSpaceLocker(),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// CreateBooking validates the request, rejects overlapping intervals, and
// persists a new pending booking. Anonymous callers receive a synthetic
// guest requester id.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (created Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	input := params.Input
	principal := params.Principal

	logger := s.loggerWith(ctx, "CreateBooking",
		"principal_id", principal.UserID,
		"space_id", input.SpaceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", created.ID).InfoContext(ctx, "booking created")
	}()

	if input.RequesterID == "" {
		input.RequesterID = principal.UserID
	}
	if input.RequesterID == "" {
		// Public self-service request without an account; record a synthetic
		// requester id with no backing user.
		input.RequesterID = "guest-" + s.idGenerator()
	}
	if principal.UserID != "" && input.RequesterID != principal.UserID && !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	validateBookingCore(input.SpaceID, input.RequesterID, input.Start, input.End, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if err = s.ensureSpaceBookable(ctx, input.SpaceID); err != nil {
		return
	}

	createdAt := s.now()
	candidate := Booking{
		ID:          s.idGenerator(),
		SpaceID:     input.SpaceID,
		RequesterID: input.RequesterID,
		Start:       input.Start,
		End:         input.End,
		Status:      booking.StatusPending,
		Notes:       strings.TrimSpace(input.Notes),
		CreatedAt:   createdAt,
	}

	unlock := s.locks.Lock(candidate.SpaceID)
	defer unlock()

	var colliding []Booking
	colliding, err = s.findConflicts(ctx, candidate)
	if err != nil {
		return
	}
	if len(colliding) > 0 {
		err = &ConflictError{Colliding: colliding}
		return
	}

	created, err = s.bookings.CreateBooking(ctx, candidate)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}
	return
}

// UpdateBooking applies a partial edit to an existing booking. Interval or
// space changes re-run conflict detection with the edited booking excluded
// from the candidate set.
func (s *BookingService) UpdateBooking(ctx context.Context, params UpdateBookingParams) (updated Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateBooking",
		"principal_id", params.Principal.UserID,
		"booking_id", params.BookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking updated")
	}()

	var existing Booking
	existing, err = s.bookings.GetBooking(ctx, params.BookingID)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}

	principal := params.Principal
	if existing.RequesterID != principal.UserID && !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	next := existing
	patch := params.Patch
	if patch.SpaceID != nil {
		next.SpaceID = strings.TrimSpace(*patch.SpaceID)
	}
	if patch.Start != nil {
		next.Start = *patch.Start
	}
	if patch.End != nil {
		next.End = *patch.End
	}
	if patch.Notes != nil {
		next.Notes = strings.TrimSpace(*patch.Notes)
	}

	vErr := &ValidationError{}
	validateBookingCore(next.SpaceID, next.RequesterID, next.Start, next.End, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	intervalChanged := !next.Start.Equal(existing.Start) || !next.End.Equal(existing.End) || next.SpaceID != existing.SpaceID

	if next.SpaceID != existing.SpaceID {
		if err = s.ensureSpaceBookable(ctx, next.SpaceID); err != nil {
			return
		}
	}

	updatedAt := s.now()
	next.UpdatedAt = &updatedAt

	if !intervalChanged {
		updated, err = s.bookings.UpdateBooking(ctx, next)
		if err != nil {
			err = mapBookingRepoError(err)
		}
		return
	}

	unlock := s.locks.Lock(next.SpaceID)
	defer unlock()

	var colliding []Booking
	colliding, err = s.findConflicts(ctx, next)
	if err != nil {
		return
	}
	if len(colliding) > 0 {
		err = &ConflictError{Colliding: colliding}
		return
	}

	updated, err = s.bookings.UpdateBooking(ctx, next)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}
	return
}

// TransitionBooking moves a booking through its lifecycle. Accept and reject
// are admin-only; cancel is allowed for the requester or an admin. Legality
// of the transition itself is decided by the state machine.
func (s *BookingService) TransitionBooking(ctx context.Context, params TransitionBookingParams) (updated Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "TransitionBooking",
		"principal_id", params.Principal.UserID,
		"booking_id", params.BookingID,
		"action", string(params.Action),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to transition booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", string(updated.Status)).InfoContext(ctx, "booking transitioned")
	}()

	if !params.Action.Valid() {
		vErr := &ValidationError{}
		vErr.add("action", "action must be accept, reject, or cancel")
		err = vErr
		return
	}

	var existing Booking
	existing, err = s.bookings.GetBooking(ctx, params.BookingID)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}

	principal := params.Principal
	switch params.Action {
	case booking.ActionAccept, booking.ActionReject:
		if !principal.IsAdmin {
			err = ErrUnauthorized
			return
		}
	case booking.ActionCancel:
		if !principal.IsAdmin && principal.UserID != existing.RequesterID {
			err = ErrUnauthorized
			return
		}
	}

	var nextStatus booking.Status
	nextStatus, err = booking.Transition(existing.Status, params.Action)
	if err != nil {
		return
	}

	// Cancelling frees the slot implicitly: cancelled bookings are excluded
	// from every future conflict query.
	next := existing
	next.Status = nextStatus
	updatedAt := s.now()
	next.UpdatedAt = &updatedAt

	updated, err = s.bookings.UpdateBooking(ctx, next)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}
	return
}

// DeleteBooking permanently removes a booking. Admin-only; no state guard.
func (s *BookingService) DeleteBooking(ctx context.Context, principal Principal, bookingID string) error {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	if s.bookings == nil {
		return fmt.Errorf("booking repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteBooking",
		"principal_id", principal.UserID,
		"booking_id", bookingID,
	)

	if !principal.IsAdmin {
		logger.ErrorContext(ctx, "failed to delete booking", "error", ErrUnauthorized, "error_kind", ErrorKind(ErrUnauthorized))
		return ErrUnauthorized
	}

	if err := s.bookings.DeleteBooking(ctx, bookingID); err != nil {
		err = mapBookingRepoError(err)
		logger.ErrorContext(ctx, "failed to delete booking", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "booking deleted")
	return nil
}

// GetBooking retrieves a single booking by id.
func (s *BookingService) GetBooking(ctx context.Context, principal Principal, bookingID string) (Booking, error) {
	if s == nil {
		return Booking{}, fmt.Errorf("BookingService is nil")
	}
	if s.bookings == nil {
		return Booking{}, fmt.Errorf("booking repository not configured")
	}

	record, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return Booking{}, mapBookingRepoError(err)
	}
	return record, nil
}

// ListBookings enumerates bookings matching the supplied filters, ordered by
// start time.
func (s *BookingService) ListBookings(ctx context.Context, params ListBookingsParams) ([]Booking, error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	if s.bookings == nil {
		return nil, fmt.Errorf("booking repository not configured")
	}

	if params.Status != "" && !params.Status.Valid() {
		vErr := &ValidationError{}
		vErr.add("status", "status must be pending, confirmed, or cancelled")
		return nil, vErr
	}

	records, err := s.bookings.ListBookings(ctx, BookingRepositoryFilter{
		SpaceID:     params.SpaceID,
		RequesterID: params.RequesterID,
		Status:      params.Status,
	})
	if err != nil {
		return nil, mapBookingRepoError(err)
	}
	return records, nil
}

// ListBookingsForDay returns every booking whose interval intersects the
// given local calendar day. The date-only input is converted once, here at
// the boundary, to the absolute window [day 00:00, next day 00:00).
func (s *BookingService) ListBookingsForDay(ctx context.Context, params DaySchedule) ([]Booking, error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	if s.bookings == nil {
		return nil, fmt.Errorf("booking repository not configured")
	}

	loc := params.Location
	if loc == nil {
		loc = time.Local
	}

	day, err := time.ParseInLocation("2006-01-02", params.Date, loc)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("date", "date must be formatted as 2006-01-02")
		return nil, vErr
	}

	dayStart := day
	dayEnd := day.AddDate(0, 0, 1)

	records, err := s.bookings.ListBookings(ctx, BookingRepositoryFilter{
		SpaceID:      params.SpaceID,
		StartsBefore: &dayEnd,
		EndsAfter:    &dayStart,
	})
	if err != nil {
		return nil, mapBookingRepoError(err)
	}
	return records, nil
}

func (s *BookingService) ensureSpaceBookable(ctx context.Context, spaceID string) error {
	if s.spaces == nil {
		return nil
	}
	space, err := s.spaces.GetSpace(ctx, spaceID)
	if err != nil {
		if isNotFoundError(err) {
			vErr := &ValidationError{}
			vErr.add("space_id", "space does not exist")
			return vErr
		}
		return err
	}
	if !space.Available {
		vErr := &ValidationError{}
		vErr.add("space_id", "space is not available")
		return vErr
	}
	return nil
}

func (s *BookingService) findConflicts(ctx context.Context, candidate Booking) ([]Booking, error) {
	active, err := s.bookings.ListBookings(ctx, BookingRepositoryFilter{
		SpaceID:       candidate.SpaceID,
		ExcludeStatus: booking.StatusCancelled,
		StartsBefore:  &candidate.End,
		EndsAfter:     &candidate.Start,
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}

	existing := make([]booking.Booking, 0, len(active))
	for _, record := range active {
		existing = append(existing, toDomainBooking(record))
	}

	colliding := booking.DetectConflicts(existing, toDomainBooking(candidate))
	if len(colliding) == 0 {
		return nil, nil
	}

	byID := make(map[string]Booking, len(active))
	for _, record := range active {
		byID[record.ID] = record
	}

	result := make([]Booking, 0, len(colliding))
	for _, hit := range colliding {
		if record, ok := byID[hit.ID]; ok {
			result = append(result, record)
		}
	}
	return result, nil
}

func toDomainBooking(record Booking) booking.Booking {
	return booking.Booking{
		ID:      record.ID,
		SpaceID: record.SpaceID,
		Start:   record.Start,
		End:     record.End,
		Status:  record.Status,
	}
}

func validateBookingCore(spaceID, requesterID string, start, end time.Time, vErr *ValidationError) {
	if strings.TrimSpace(spaceID) == "" {
		vErr.add("space_id", "space id is required")
	}
	if strings.TrimSpace(requesterID) == "" {
		vErr.add("requester_id", "requester id is required")
	}
	if start.IsZero() {
		vErr.add("start", "start is required")
	}
	if end.IsZero() {
		vErr.add("end", "end is required")
	}
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		vErr.add("time", "end must be after start")
	}
}

func mapBookingRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("time", "end must be after start")
		return vErr
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("space_id", "space does not exist")
		return vErr
	}
	return err
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}
