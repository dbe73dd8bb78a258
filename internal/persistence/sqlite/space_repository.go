package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/space-booking/internal/persistence"
)

// SpaceRepository implements persistence.SpaceRepository using SQLite.
type SpaceRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSpaceRepository creates a new SQLite space repository.
func NewSpaceRepository(pool *ConnectionPool) *SpaceRepository {
	return &SpaceRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const spaceColumns = "id, name, type, capacity, location, description, available, created_at, updated_at"

// CreateSpace inserts a new space.
func (r *SpaceRepository) CreateSpace(ctx context.Context, space persistence.Space) error {
	if space.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO spaces (id, name, type, capacity, location, description, available, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		space.ID,
		space.Name,
		space.Type,
		space.Capacity,
		space.Location,
		space.Description,
		boolToInt(space.Available),
		formatTime(space.CreatedAt),
		formatTime(space.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// UpdateSpace replaces an existing space row.
func (r *SpaceRepository) UpdateSpace(ctx context.Context, space persistence.Space) error {
	if space.ID == "" {
		return persistence.ErrNotFound
	}

	query := `
		UPDATE spaces
		SET name = ?, type = ?, capacity = ?, location = ?, description = ?, available = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		space.Name,
		space.Type,
		space.Capacity,
		space.Location,
		space.Description,
		boolToInt(space.Available),
		formatTime(space.UpdatedAt),
		space.ID,
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

// GetSpace retrieves a space by id.
func (r *SpaceRepository) GetSpace(ctx context.Context, id string) (persistence.Space, error) {
	if id == "" {
		return persistence.Space{}, persistence.ErrNotFound
	}

	query := "SELECT " + spaceColumns + " FROM spaces WHERE id = ?"

	space, err := scanSpace(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Space{}, persistence.ErrNotFound
		}
		return persistence.Space{}, r.mapper.MapError(err)
	}
	return space, nil
}

// ListSpaces returns all spaces ordered by name then id.
func (r *SpaceRepository) ListSpaces(ctx context.Context) ([]persistence.Space, error) {
	query := "SELECT " + spaceColumns + " FROM spaces ORDER BY name ASC, id ASC"
	return r.listSpaces(ctx, query)
}

// ListSpacesByType returns spaces of the given type ordered by name then id.
func (r *SpaceRepository) ListSpacesByType(ctx context.Context, spaceType string) ([]persistence.Space, error) {
	query := "SELECT " + spaceColumns + " FROM spaces WHERE type = ? ORDER BY name ASC, id ASC"
	return r.listSpaces(ctx, query, spaceType)
}

func (r *SpaceRepository) listSpaces(ctx context.Context, query string, args ...any) ([]persistence.Space, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var spaces []persistence.Space
	for rows.Next() {
		space, err := scanSpace(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		spaces = append(spaces, space)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return spaces, nil
}

// DeleteSpace removes a space by id. Bookings referencing the space are kept;
// readers resolve the dangling reference themselves.
func (r *SpaceRepository) DeleteSpace(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, "DELETE FROM spaces WHERE id = ?", id)
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

func scanSpace(row rowScanner) (persistence.Space, error) {
	var space persistence.Space
	var description sql.NullString
	var available int
	var createdAt, updatedAt string

	err := row.Scan(
		&space.ID,
		&space.Name,
		&space.Type,
		&space.Capacity,
		&space.Location,
		&description,
		&available,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Space{}, err
	}

	if description.Valid {
		space.Description = &description.String
	}
	space.Available = available != 0

	if space.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Space{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if space.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Space{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return space, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
