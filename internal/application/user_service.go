package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/example/space-booking/internal/persistence"
)

// UserRepository captures the persistence operations needed by the service.
type UserRepository interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	UpdateUser(ctx context.Context, user User, passwordHash string) (User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]User, error)
}

// UserService orchestrates validation, authorization, and persistence for
// account management. Accounts are independent of bookings: deleting a user
// leaves their bookings in place.
type UserService struct {
	users        UserRepository
	hashPassword func(string) (string, error)
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewUserService constructs a user service with the provided dependencies.
func NewUserService(users UserRepository, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, idGenerator, now, nil)
}

// NewUserServiceWithLogger constructs a user service with a specified logger.
func NewUserServiceWithLogger(users UserRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users: users,
		hashPassword: func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		},
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser validates input and persists a new account for administrators.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateUser",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	input := normalizeUserInput(params.Input)
	vErr := validateUserInput(input, true)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var hash string
	hash, err = s.hashPassword(input.Password)
	if err != nil {
		return
	}

	user = User{
		ID:        s.idGenerator(),
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Role:      Role(input.Role),
		Company:   input.Company,
		CreatedAt: s.now(),
	}
	user.UpdatedAt = user.CreatedAt

	if s.users == nil {
		return
	}

	var persisted User
	persisted, err = s.users.CreateUser(ctx, user, hash)
	if err != nil {
		err = mapUserRepoError(err)
		return
	}
	user = persisted
	return
}

// UpdateUser validates input and updates an existing account for administrators.
// An empty password leaves the stored hash unchanged.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateUser",
		"principal_id", params.Principal.UserID,
		"user_id", params.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user updated")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	var existing User
	existing, err = s.users.GetUser(ctx, params.UserID)
	if err != nil {
		err = mapUserRepoError(err)
		return
	}

	input := normalizeUserInput(params.Input)
	vErr := validateUserInput(input, false)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	hash := ""
	if input.Password != "" {
		hash, err = s.hashPassword(input.Password)
		if err != nil {
			return
		}
	}

	updated := existing
	updated.Name = input.Name
	updated.Email = input.Email
	updated.Phone = input.Phone
	updated.Role = Role(input.Role)
	updated.Company = input.Company
	updated.UpdatedAt = s.now()

	var persisted User
	persisted, err = s.users.UpdateUser(ctx, updated, hash)
	if err != nil {
		err = mapUserRepoError(err)
		return
	}
	user = persisted
	return
}

// DeleteUser removes an account for administrators.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteUser",
		"principal_id", principal.UserID,
		"user_id", userID,
	)

	if !principal.IsAdmin {
		logger.ErrorContext(ctx, "failed to delete user", "error", ErrUnauthorized, "error_kind", ErrorKind(ErrUnauthorized))
		return ErrUnauthorized
	}

	if err := s.users.DeleteUser(ctx, userID); err != nil {
		err = mapUserRepoError(err)
		logger.ErrorContext(ctx, "failed to delete user", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "user deleted")
	return nil
}

// ListUsers enumerates accounts for administrators, ordered by name.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return nil, fmt.Errorf("user repository not configured")
	}

	if !principal.IsAdmin {
		return nil, ErrUnauthorized
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, mapUserRepoError(err)
	}
	return users, nil
}

func normalizeUserInput(input UserInput) UserInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)
	input.Role = strings.ToLower(strings.TrimSpace(input.Role))
	input.Company = strings.TrimSpace(input.Company)
	return input
}

func validateUserInput(input UserInput, requirePassword bool) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is invalid")
	}
	if input.Role == "" {
		vErr.add("role", "role is required")
	} else if !Role(input.Role).Valid() {
		vErr.add("role", "role must be admin or client")
	}
	if requirePassword && input.Password == "" {
		vErr.add("password", "password is required")
	}

	return vErr
}

func mapUserRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		vErr := &ValidationError{}
		vErr.add("email", "email is already in use")
		return vErr
	}
	return err
}
