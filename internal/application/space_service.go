package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/space-booking/internal/persistence"
)

// SpaceRepository captures the persistence operations needed by the service.
type SpaceRepository interface {
	CreateSpace(ctx context.Context, space Space) (Space, error)
	GetSpace(ctx context.Context, id string) (Space, error)
	UpdateSpace(ctx context.Context, space Space) (Space, error)
	DeleteSpace(ctx context.Context, id string) error
	ListSpaces(ctx context.Context) ([]Space, error)
	ListSpacesByType(ctx context.Context, spaceType SpaceType) ([]Space, error)
}

// SpaceService orchestrates validation, authorization, and persistence for
// the space catalog.
type SpaceService struct {
	spaces      SpaceRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSpaceService constructs a space service with the provided dependencies.
func NewSpaceService(spaces SpaceRepository, idGenerator func() string, now func() time.Time) *SpaceService {
	return NewSpaceServiceWithLogger(spaces, idGenerator, now, nil)
}

// NewSpaceServiceWithLogger constructs a space service with a specified logger.
func NewSpaceServiceWithLogger(spaces SpaceRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SpaceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SpaceService{spaces: spaces, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *SpaceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SpaceService", operation, attrs...)
}

// CreateSpace validates input and persists a new space for administrators.
func (s *SpaceService) CreateSpace(ctx context.Context, params CreateSpaceParams) (space Space, err error) {
	if s == nil {
		err = fmt.Errorf("SpaceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateSpace",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create space", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("space_id", space.ID).InfoContext(ctx, "space created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	input := normalizeSpaceInput(params.Input)
	vErr := validateSpaceInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	available := true
	if input.Available != nil {
		available = *input.Available
	}

	space = Space{
		ID:          s.idGenerator(),
		Name:        input.Name,
		Type:        SpaceType(input.Type),
		Capacity:    input.Capacity,
		Location:    input.Location,
		Description: input.Description,
		Available:   available,
		CreatedAt:   s.now(),
	}
	space.UpdatedAt = space.CreatedAt

	if s.spaces == nil {
		return
	}

	var persisted Space
	persisted, err = s.spaces.CreateSpace(ctx, space)
	if err != nil {
		err = mapSpaceRepoError(err)
		return
	}
	space = persisted
	return
}

// UpdateSpace validates input and updates an existing space for administrators.
func (s *SpaceService) UpdateSpace(ctx context.Context, params UpdateSpaceParams) (space Space, err error) {
	if s == nil {
		err = fmt.Errorf("SpaceService is nil")
		return
	}
	if s.spaces == nil {
		err = fmt.Errorf("space repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateSpace",
		"principal_id", params.Principal.UserID,
		"space_id", params.SpaceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update space", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "space updated")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	var existing Space
	existing, err = s.spaces.GetSpace(ctx, params.SpaceID)
	if err != nil {
		err = mapSpaceRepoError(err)
		return
	}

	input := normalizeSpaceInput(params.Input)
	vErr := validateSpaceInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Name = input.Name
	updated.Type = SpaceType(input.Type)
	updated.Capacity = input.Capacity
	updated.Location = input.Location
	updated.Description = input.Description
	if input.Available != nil {
		updated.Available = *input.Available
	}
	updated.UpdatedAt = s.now()

	var persisted Space
	persisted, err = s.spaces.UpdateSpace(ctx, updated)
	if err != nil {
		err = mapSpaceRepoError(err)
		return
	}
	space = persisted
	return
}

// DeleteSpace removes a space for administrators. Bookings referencing the
// space are left in place; readers resolve the dangling reference to "N/A".
func (s *SpaceService) DeleteSpace(ctx context.Context, principal Principal, spaceID string) error {
	if s == nil {
		return fmt.Errorf("SpaceService is nil")
	}
	if s.spaces == nil {
		return fmt.Errorf("space repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteSpace",
		"principal_id", principal.UserID,
		"space_id", spaceID,
	)

	if !principal.IsAdmin {
		logger.ErrorContext(ctx, "failed to delete space", "error", ErrUnauthorized, "error_kind", ErrorKind(ErrUnauthorized))
		return ErrUnauthorized
	}

	if err := s.spaces.DeleteSpace(ctx, spaceID); err != nil {
		err = mapSpaceRepoError(err)
		logger.ErrorContext(ctx, "failed to delete space", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "space deleted")
	return nil
}

// GetSpace retrieves a single space by id.
func (s *SpaceService) GetSpace(ctx context.Context, id string) (Space, error) {
	if s == nil {
		return Space{}, fmt.Errorf("SpaceService is nil")
	}
	if s.spaces == nil {
		return Space{}, fmt.Errorf("space repository not configured")
	}

	space, err := s.spaces.GetSpace(ctx, id)
	if err != nil {
		return Space{}, mapSpaceRepoError(err)
	}
	return space, nil
}

// ListSpaces enumerates the catalog ordered by name, optionally filtered by type.
func (s *SpaceService) ListSpaces(ctx context.Context, spaceType string) ([]Space, error) {
	if s == nil {
		return nil, fmt.Errorf("SpaceService is nil")
	}
	if s.spaces == nil {
		return nil, fmt.Errorf("space repository not configured")
	}

	if spaceType == "" {
		spaces, err := s.spaces.ListSpaces(ctx)
		if err != nil {
			return nil, mapSpaceRepoError(err)
		}
		return spaces, nil
	}

	normalized := SpaceType(strings.ToLower(strings.TrimSpace(spaceType)))
	if !normalized.Valid() {
		vErr := &ValidationError{}
		vErr.add("type", "type must be room, auditorium, lab, or coworking")
		return nil, vErr
	}

	spaces, err := s.spaces.ListSpacesByType(ctx, normalized)
	if err != nil {
		return nil, mapSpaceRepoError(err)
	}
	return spaces, nil
}

// normalizeSpaceInput trims text fields and lower-cases the type, matching
// the normalization the legacy data carries.
func normalizeSpaceInput(input SpaceInput) SpaceInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Type = strings.ToLower(strings.TrimSpace(input.Type))
	input.Location = strings.TrimSpace(input.Location)
	input.Description = strings.TrimSpace(input.Description)
	return input
}

func validateSpaceInput(input SpaceInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if input.Type == "" {
		vErr.add("type", "type is required")
	} else if !SpaceType(input.Type).Valid() {
		vErr.add("type", "type must be room, auditorium, lab, or coworking")
	}
	if input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}
	if input.Location == "" {
		vErr.add("location", "location is required")
	}

	return vErr
}

func mapSpaceRepoError(err error) error {
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
		vErr.add("capacity", "capacity must be positive")
		return vErr
	}
	return err
}
