package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/space-booking/internal/booking"
	"github.com/example/space-booking/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository using SQLite.
// Timestamps are stored as fixed-width RFC3339 UTC text, so interval
// predicates compare correctly as strings.
type BookingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewBookingRepository creates a new SQLite booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const bookingColumns = "id, space_id, requester_id, starts_at, ends_at, status, notes, created_at, updated_at"

// CreateBooking inserts a new booking.
func (r *BookingRepository) CreateBooking(ctx context.Context, record persistence.Booking) error {
	if record.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO bookings (id, space_id, requester_id, starts_at, ends_at, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		record.ID,
		record.SpaceID,
		record.RequesterID,
		formatTime(record.Start),
		formatTime(record.End),
		string(record.Status),
		record.Notes,
		formatTime(record.CreatedAt),
		formatTimePtr(record.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// UpdateBooking replaces an existing booking row.
func (r *BookingRepository) UpdateBooking(ctx context.Context, record persistence.Booking) error {
	if record.ID == "" {
		return persistence.ErrNotFound
	}

	query := `
		UPDATE bookings
		SET space_id = ?, requester_id = ?, starts_at = ?, ends_at = ?, status = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		record.SpaceID,
		record.RequesterID,
		formatTime(record.Start),
		formatTime(record.End),
		string(record.Status),
		record.Notes,
		formatTimePtr(record.UpdatedAt),
		record.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// GetBooking retrieves a booking by id.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	if id == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}

	query := "SELECT " + bookingColumns + " FROM bookings WHERE id = ?"

	record, err := scanBooking(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Booking{}, persistence.ErrNotFound
		}
		return persistence.Booking{}, r.mapper.MapError(err)
	}
	return record, nil
}

// ListBookings returns bookings matching the filter ordered by start time
// then id.
func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	var conditions []string
	var args []any

	if filter.SpaceID != "" {
		conditions = append(conditions, "space_id = ?")
		args = append(args, filter.SpaceID)
	}
	if filter.RequesterID != "" {
		conditions = append(conditions, "requester_id = ?")
		args = append(args, filter.RequesterID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.ExcludeStatus != "" {
		conditions = append(conditions, "status != ?")
		args = append(args, string(filter.ExcludeStatus))
	}
	if filter.StartsBefore != nil {
		conditions = append(conditions, "starts_at < ?")
		args = append(args, formatTime(*filter.StartsBefore))
	}
	if filter.EndsAfter != nil {
		conditions = append(conditions, "ends_at > ?")
		args = append(args, formatTime(*filter.EndsAfter))
	}

	query := "SELECT " + bookingColumns + " FROM bookings"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY starts_at ASC, id ASC"

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var records []persistence.Booking
	for rows.Next() {
		record, err := scanBooking(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return records, nil
}

// DeleteBooking removes a booking by id.
func (r *BookingRepository) DeleteBooking(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, "DELETE FROM bookings WHERE id = ?", id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (persistence.Booking, error) {
	var record persistence.Booking
	var startsAt, endsAt, createdAt string
	var status string
	var notes sql.NullString
	var updatedAt sql.NullString

	err := row.Scan(
		&record.ID,
		&record.SpaceID,
		&record.RequesterID,
		&startsAt,
		&endsAt,
		&status,
		&notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Booking{}, err
	}

	record.Status = booking.Status(status)
	if notes.Valid {
		record.Notes = &notes.String
	}

	if record.Start, err = parseTime(startsAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse starts_at: %w", err)
	}
	if record.End, err = parseTime(endsAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse ends_at: %w", err)
	}
	if record.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if updatedAt.Valid {
		parsed, err := parseTime(updatedAt.String)
		if err != nil {
			return persistence.Booking{}, fmt.Errorf("failed to parse updated_at: %w", err)
		}
		record.UpdatedAt = &parsed
	}

	return record, nil
}

// timeLayout keeps a fixed-width fractional part so stored timestamps stay
// order-preserving under string comparison and sub-second intervals survive
// the round trip.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}
