package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/space-booking/internal/application"
	"github.com/example/space-booking/internal/config"
	httptransport "github.com/example/space-booking/internal/http"
	"github.com/example/space-booking/internal/logging"
	"github.com/example/space-booking/internal/persistence"
	"github.com/example/space-booking/internal/persistence/memory"
	"github.com/example/space-booking/internal/persistence/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewLogger(os.Stderr, 0).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(os.Stdout, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := openStorage(cfg)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	bookingRepo := &bookingRepositoryAdapter{repo: storage.bookings}
	spaceRepo := &spaceRepositoryAdapter{repo: storage.spaces}
	userRepo := &userRepositoryAdapter{repo: storage.users}
	credentialStore := &credentialStoreAdapter{repo: storage.users}
	sessionRepo := &sessionRepositoryAdapter{repo: storage.sessions}

	bookingService := application.NewBookingServiceWithLogger(bookingRepo, spaceRepo, idGenerator, now, logger)
	spaceService := application.NewSpaceServiceWithLogger(spaceRepo, idGenerator, now, logger)
	userService := application.NewUserServiceWithLogger(userRepo, idGenerator, now, logger)
	reportService := application.NewReportServiceWithLogger(bookingRepo, spaceRepo, now, logger)
	authService := application.NewAuthServiceWithLogger(credentialStore, sessionRepo, nil, tokenGenerator, now, cfg.SessionTTL, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:            httptransport.NewAuthHandler(authService, logger),
		Bookings:        httptransport.NewBookingHandler(bookingService, cfg.Timezone, logger),
		Spaces:          httptransport.NewSpaceHandler(spaceService, logger),
		Users:           httptransport.NewUserHandler(userService, logger),
		Reports:         httptransport.NewReportHandler(reportService, logger),
		RequireSession:  httptransport.RequireSession(authService, logger),
		OptionalSession: httptransport.OptionalSession(authService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("booking API listening", "addr", server.Addr, "storage", cfg.Storage)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

type storageRepos struct {
	bookings persistence.BookingRepository
	spaces   persistence.SpaceRepository
	users    persistence.UserRepository
	sessions persistence.SessionRepository
	close    func() error
}

func openStorage(cfg config.Config) (storageRepos, error) {
	if cfg.Storage == config.StorageMemory {
		store := memory.NewStore()
		return storageRepos{
			bookings: store.BookingRepository(),
			spaces:   store.SpaceRepository(),
			users:    store.UserRepository(),
			sessions: store.SessionRepository(),
			close:    func() error { return nil },
		}, nil
	}

	pool, err := sqlite.Open(sqlite.DefaultConfig(cfg.SQLitePath))
	if err != nil {
		return storageRepos{}, err
	}
	if err := pool.Migrate(context.Background()); err != nil {
		_ = pool.Close()
		return storageRepos{}, err
	}
	return storageRepos{
		bookings: sqlite.NewBookingRepository(pool),
		spaces:   sqlite.NewSpaceRepository(pool),
		users:    sqlite.NewUserRepository(pool),
		sessions: sqlite.NewSessionRepository(pool),
		close:    pool.Close,
	}, nil
}

type bookingRepositoryAdapter struct {
	repo persistence.BookingRepository
}

func (a *bookingRepositoryAdapter) CreateBooking(ctx context.Context, record application.Booking) (application.Booking, error) {
	if err := a.repo.CreateBooking(ctx, toPersistenceBooking(record)); err != nil {
		return application.Booking{}, err
	}
	stored, err := a.repo.GetBooking(ctx, record.ID)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) UpdateBooking(ctx context.Context, record application.Booking) (application.Booking, error) {
	if err := a.repo.UpdateBooking(ctx, toPersistenceBooking(record)); err != nil {
		return application.Booking{}, err
	}
	stored, err := a.repo.GetBooking(ctx, record.ID)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) GetBooking(ctx context.Context, id string) (application.Booking, error) {
	stored, err := a.repo.GetBooking(ctx, id)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) DeleteBooking(ctx context.Context, id string) error {
	return a.repo.DeleteBooking(ctx, id)
}

func (a *bookingRepositoryAdapter) ListBookings(ctx context.Context, filter application.BookingRepositoryFilter) ([]application.Booking, error) {
	records, err := a.repo.ListBookings(ctx, persistence.BookingFilter{
		SpaceID:       filter.SpaceID,
		RequesterID:   filter.RequesterID,
		Status:        filter.Status,
		ExcludeStatus: filter.ExcludeStatus,
		StartsBefore:  filter.StartsBefore,
		EndsAfter:     filter.EndsAfter,
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	out := make([]application.Booking, 0, len(records))
	for _, record := range records {
		out = append(out, toApplicationBooking(record))
	}
	return out, nil
}

type spaceRepositoryAdapter struct {
	repo persistence.SpaceRepository
}

func (a *spaceRepositoryAdapter) CreateSpace(ctx context.Context, space application.Space) (application.Space, error) {
	if err := a.repo.CreateSpace(ctx, toPersistenceSpace(space)); err != nil {
		return application.Space{}, err
	}
	stored, err := a.repo.GetSpace(ctx, space.ID)
	if err != nil {
		return application.Space{}, err
	}
	return toApplicationSpace(stored), nil
}

func (a *spaceRepositoryAdapter) UpdateSpace(ctx context.Context, space application.Space) (application.Space, error) {
	if err := a.repo.UpdateSpace(ctx, toPersistenceSpace(space)); err != nil {
		return application.Space{}, err
	}
	stored, err := a.repo.GetSpace(ctx, space.ID)
	if err != nil {
		return application.Space{}, err
	}
	return toApplicationSpace(stored), nil
}

func (a *spaceRepositoryAdapter) GetSpace(ctx context.Context, id string) (application.Space, error) {
	stored, err := a.repo.GetSpace(ctx, id)
	if err != nil {
		return application.Space{}, err
	}
	return toApplicationSpace(stored), nil
}

func (a *spaceRepositoryAdapter) DeleteSpace(ctx context.Context, id string) error {
	return a.repo.DeleteSpace(ctx, id)
}

func (a *spaceRepositoryAdapter) ListSpaces(ctx context.Context) ([]application.Space, error) {
	records, err := a.repo.ListSpaces(ctx)
	if err != nil {
		return nil, err
	}
	return toApplicationSpaces(records), nil
}

func (a *spaceRepositoryAdapter) ListSpacesByType(ctx context.Context, spaceType application.SpaceType) ([]application.Space, error) {
	records, err := a.repo.ListSpacesByType(ctx, string(spaceType))
	if err != nil {
		return nil, err
	}
	return toApplicationSpaces(records), nil
}

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) UpdateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if err := a.repo.UpdateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) DeleteUser(ctx context.Context, id string) error {
	return a.repo.DeleteUser(ctx, id)
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	records, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	out := make([]application.User, 0, len(records))
	for _, record := range records {
		out = append(out, toApplicationUser(record))
	}
	return out, nil
}

type credentialStoreAdapter struct {
	repo persistence.UserRepository
}

func (a *credentialStoreAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *credentialStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.repo.DeleteExpiredSessions(ctx, reference)
}

func toPersistenceBooking(record application.Booking) persistence.Booking {
	stored := persistence.Booking{
		ID:          record.ID,
		SpaceID:     record.SpaceID,
		RequesterID: record.RequesterID,
		Start:       record.Start,
		End:         record.End,
		Status:      record.Status,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
	if record.Notes != "" {
		notes := record.Notes
		stored.Notes = &notes
	}
	return stored
}

func toApplicationBooking(stored persistence.Booking) application.Booking {
	record := application.Booking{
		ID:          stored.ID,
		SpaceID:     stored.SpaceID,
		RequesterID: stored.RequesterID,
		Start:       stored.Start,
		End:         stored.End,
		Status:      stored.Status,
		CreatedAt:   stored.CreatedAt,
		UpdatedAt:   stored.UpdatedAt,
	}
	if stored.Notes != nil {
		record.Notes = *stored.Notes
	}
	return record
}

func toPersistenceSpace(space application.Space) persistence.Space {
	stored := persistence.Space{
		ID:        space.ID,
		Name:      space.Name,
		Type:      string(space.Type),
		Capacity:  space.Capacity,
		Location:  space.Location,
		Available: space.Available,
		CreatedAt: space.CreatedAt,
		UpdatedAt: space.UpdatedAt,
	}
	if space.Description != "" {
		description := space.Description
		stored.Description = &description
	}
	return stored
}

func toApplicationSpace(stored persistence.Space) application.Space {
	space := application.Space{
		ID:        stored.ID,
		Name:      stored.Name,
		Type:      application.SpaceType(stored.Type),
		Capacity:  stored.Capacity,
		Location:  stored.Location,
		Available: stored.Available,
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
	}
	if stored.Description != nil {
		space.Description = *stored.Description
	}
	return space
}

func toApplicationSpaces(records []persistence.Space) []application.Space {
	if len(records) == 0 {
		return nil
	}
	out := make([]application.Space, 0, len(records))
	for _, record := range records {
		out = append(out, toApplicationSpace(record))
	}
	return out
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Phone:        user.Phone,
		Role:         string(user.Role),
		Company:      user.Company,
		PasswordHash: passwordHash,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationUser(stored persistence.User) application.User {
	return application.User{
		ID:        stored.ID,
		Name:      stored.Name,
		Email:     stored.Email,
		Phone:     stored.Phone,
		Role:      application.Role(stored.Role),
		Company:   stored.Company,
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: session.RevokedAt,
	}
}

func toApplicationSession(stored persistence.Session) application.Session {
	return application.Session{
		ID:        stored.ID,
		UserID:    stored.UserID,
		Token:     stored.Token,
		ExpiresAt: stored.ExpiresAt,
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
		RevokedAt: stored.RevokedAt,
	}
}
