package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/space-booking/internal/application"
	"github.com/example/space-booking/internal/booking"
	"github.com/example/space-booking/internal/config"
)

func memoryConfig() config.Config {
	return config.Config{Storage: config.StorageMemory}
}

func sqliteConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Storage:    config.StorageSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "booking.db"),
	}
}

func sequentialIDs(prefix string) func() string {
	counter := 0
	return func() string {
		counter++
		return fmt.Sprintf("%s-%d", prefix, counter)
	}
}

func TestOpenStorageBackends(t *testing.T) {
	for _, tc := range []struct {
		name string
		cfg  func(*testing.T) config.Config
	}{
		{name: "memory", cfg: func(*testing.T) config.Config { return memoryConfig() }},
		{name: "sqlite", cfg: sqliteConfig},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			storage, err := openStorage(tc.cfg(t))
			if err != nil {
				t.Fatalf("openStorage returned error: %v", err)
			}
			t.Cleanup(func() { _ = storage.close() })

			ctx := context.Background()
			now := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
			clock := func() time.Time { return now }
			admin := application.Principal{UserID: "usr-admin", IsAdmin: true}

			spaceRepo := &spaceRepositoryAdapter{repo: storage.spaces}
			bookingRepo := &bookingRepositoryAdapter{repo: storage.bookings}

			spaceService := application.NewSpaceService(spaceRepo, sequentialIDs("sp"), clock)
			bookingService := application.NewBookingService(bookingRepo, spaceRepo, sequentialIDs("bk"), clock)

			space, err := spaceService.CreateSpace(ctx, application.CreateSpaceParams{
				Principal: admin,
				Input: application.SpaceInput{
					Name:     "Room A",
					Type:     "room",
					Capacity: 8,
				},
			})
			if err != nil {
				t.Fatalf("CreateSpace returned error: %v", err)
			}

			created, err := bookingService.CreateBooking(ctx, application.CreateBookingParams{
				Principal: admin,
				Input: application.BookingInput{
					SpaceID:     space.ID,
					RequesterID: "usr-admin",
					Start:       now.Add(time.Hour),
					End:         now.Add(2 * time.Hour),
					Notes:       "standup",
				},
			})
			if err != nil {
				t.Fatalf("CreateBooking returned error: %v", err)
			}
			if created.Status != booking.StatusPending {
				t.Fatalf("expected pending booking, got %v", created.Status)
			}
			if created.Notes != "standup" {
				t.Fatalf("notes should survive the storage round trip, got %q", created.Notes)
			}

			// The overlapping request must be rejected regardless of backend.
			_, err = bookingService.CreateBooking(ctx, application.CreateBookingParams{
				Principal: admin,
				Input: application.BookingInput{
					SpaceID:     space.ID,
					RequesterID: "usr-admin",
					Start:       now.Add(90 * time.Minute),
					End:         now.Add(3 * time.Hour),
				},
			})
			var cErr *application.ConflictError
			if !errors.As(err, &cErr) {
				t.Fatalf("expected conflict error, got %v", err)
			}
			if len(cErr.Colliding) != 1 || cErr.Colliding[0].ID != created.ID {
				t.Fatalf("expected colliding booking %s, got %+v", created.ID, cErr.Colliding)
			}
		})
	}
}

func TestUserAndSessionAdapters(t *testing.T) {
	storage, err := openStorage(memoryConfig())
	if err != nil {
		t.Fatalf("openStorage returned error: %v", err)
	}
	t.Cleanup(func() { _ = storage.close() })

	ctx := context.Background()
	now := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	admin := application.Principal{UserID: "usr-admin", IsAdmin: true}

	userRepo := &userRepositoryAdapter{repo: storage.users}
	credentials := &credentialStoreAdapter{repo: storage.users}
	sessions := &sessionRepositoryAdapter{repo: storage.sessions}

	userService := application.NewUserService(userRepo, sequentialIDs("usr"), clock)
	authService := application.NewAuthService(credentials, sessions, nil, sequentialIDs("tok"), clock, time.Hour)

	created, err := userService.CreateUser(ctx, application.CreateUserParams{
		Principal: admin,
		Input: application.UserInput{
			Name:     "Dana",
			Email:    "dana@example.com",
			Role:     "client",
			Password: "s3cret-password",
		},
	})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	result, err := authService.Authenticate(ctx, application.AuthenticateParams{
		Email:    "dana@example.com",
		Password: "s3cret-password",
	})
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if result.User.ID != created.ID {
		t.Fatalf("expected authenticated user %s, got %s", created.ID, result.User.ID)
	}

	principal, err := authService.ValidateSession(ctx, result.Session.Token)
	if err != nil {
		t.Fatalf("ValidateSession returned error: %v", err)
	}
	if principal.UserID != created.ID || principal.IsAdmin {
		t.Fatalf("unexpected principal: %+v", principal)
	}

	if err := authService.RevokeSession(ctx, result.Session.Token); err != nil {
		t.Fatalf("RevokeSession returned error: %v", err)
	}
	if _, err := authService.ValidateSession(ctx, result.Session.Token); err == nil {
		t.Fatal("expected revoked session to fail validation")
	}

	// Misses through the real adapters must come back as the typed auth
	// errors, never as raw storage errors.
	if _, err := authService.ValidateSession(ctx, "no-such-token"); !errors.Is(err, application.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown token, got %v", err)
	}
	if _, err := authService.Authenticate(ctx, application.AuthenticateParams{
		Email:    "nobody@example.com",
		Password: "whatever",
	}); !errors.Is(err, application.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
	if err := authService.RevokeSession(ctx, "no-such-token"); !errors.Is(err, application.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown token revocation, got %v", err)
	}
}
