package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/space-booking/internal/persistence"
)

func newTestPool(t *testing.T) *ConnectionPool {
	t.Helper()

	pool, err := Open(DefaultConfig(filepath.Join(t.TempDir(), "test.db")))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := pool.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	return pool
}

func TestMigrateIsIdempotent(t *testing.T) {
	pool := newTestPool(t)

	// A second run must be a no-op, not a duplicate-table error.
	if err := pool.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
}

func TestSpaceRepository_CRUD(t *testing.T) {
	pool := newTestPool(t)
	repo := NewSpaceRepository(pool)
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	description := "ground floor"
	space := persistence.Space{
		ID:          "sp-1",
		Name:        "Room A",
		Type:        "room",
		Capacity:    8,
		Location:    "HQ",
		Description: &description,
		Available:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := repo.CreateSpace(ctx, space); err != nil {
		t.Fatalf("CreateSpace failed: %v", err)
	}

	retrieved, err := repo.GetSpace(ctx, "sp-1")
	if err != nil {
		t.Fatalf("GetSpace failed: %v", err)
	}
	if retrieved.Name != "Room A" || retrieved.Type != "room" || !retrieved.Available {
		t.Errorf("unexpected space: %+v", retrieved)
	}
	if retrieved.Description == nil || *retrieved.Description != "ground floor" {
		t.Errorf("expected description round-tripped, got %v", retrieved.Description)
	}
	if !retrieved.CreatedAt.Equal(now) {
		t.Errorf("expected created_at %v, got %v", now, retrieved.CreatedAt)
	}

	space.Name = "Room A renamed"
	space.Available = false
	space.UpdatedAt = now.Add(time.Hour)
	if err := repo.UpdateSpace(ctx, space); err != nil {
		t.Fatalf("UpdateSpace failed: %v", err)
	}
	retrieved, err = repo.GetSpace(ctx, "sp-1")
	if err != nil {
		t.Fatalf("GetSpace failed: %v", err)
	}
	if retrieved.Name != "Room A renamed" || retrieved.Available {
		t.Errorf("expected update applied, got %+v", retrieved)
	}

	if err := repo.DeleteSpace(ctx, "sp-1"); err != nil {
		t.Fatalf("DeleteSpace failed: %v", err)
	}
	if _, err := repo.GetSpace(ctx, "sp-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSpaceRepository_ConstraintViolations(t *testing.T) {
	pool := newTestPool(t)
	repo := NewSpaceRepository(pool)
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	invalidCapacity := persistence.Space{
		ID: "sp-1", Name: "Room A", Type: "room", Capacity: 0, Location: "HQ",
		CreatedAt: now, UpdatedAt: now,
	}
	if err := repo.CreateSpace(ctx, invalidCapacity); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Errorf("expected ErrConstraintViolation for zero capacity, got %v", err)
	}

	invalidType := persistence.Space{
		ID: "sp-2", Name: "Garage", Type: "garage", Capacity: 4, Location: "HQ",
		CreatedAt: now, UpdatedAt: now,
	}
	if err := repo.CreateSpace(ctx, invalidType); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Errorf("expected ErrConstraintViolation for unknown type, got %v", err)
	}

	valid := persistence.Space{
		ID: "sp-3", Name: "Room A", Type: "room", Capacity: 4, Location: "HQ",
		CreatedAt: now, UpdatedAt: now,
	}
	if err := repo.CreateSpace(ctx, valid); err != nil {
		t.Fatalf("CreateSpace failed: %v", err)
	}
	if err := repo.CreateSpace(ctx, valid); !errors.Is(err, persistence.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate for repeated id, got %v", err)
	}
}

func TestSpaceRepository_ListOrderingAndTypeFilter(t *testing.T) {
	pool := newTestPool(t)
	repo := NewSpaceRepository(pool)
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, space := range []persistence.Space{
		{ID: "sp-1", Name: "Zulu Room", Type: "room", Capacity: 4, Location: "HQ", CreatedAt: now, UpdatedAt: now},
		{ID: "sp-2", Name: "Alpha Lab", Type: "lab", Capacity: 20, Location: "HQ", CreatedAt: now, UpdatedAt: now},
		{ID: "sp-3", Name: "Bravo Room", Type: "room", Capacity: 6, Location: "HQ", CreatedAt: now, UpdatedAt: now},
	} {
		if err := repo.CreateSpace(ctx, space); err != nil {
			t.Fatalf("CreateSpace failed: %v", err)
		}
	}

	all, err := repo.ListSpaces(ctx)
	if err != nil {
		t.Fatalf("ListSpaces failed: %v", err)
	}
	if len(all) != 3 || all[0].Name != "Alpha Lab" || all[1].Name != "Bravo Room" || all[2].Name != "Zulu Room" {
		t.Errorf("expected name ordering, got %+v", all)
	}

	rooms, err := repo.ListSpacesByType(ctx, "room")
	if err != nil {
		t.Fatalf("ListSpacesByType failed: %v", err)
	}
	if len(rooms) != 2 {
		t.Errorf("expected 2 rooms, got %d", len(rooms))
	}
}

func TestUserRepository_CRUD(t *testing.T) {
	pool := newTestPool(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	user := persistence.User{
		ID:           "usr-1",
		Name:         "Ana Souza",
		Email:        "ana@example.com",
		Phone:        "+1 555 0100",
		Role:         "admin",
		Company:      "Acme",
		PasswordHash: "hash-1",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	retrieved, err := repo.GetUserByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if retrieved.ID != "usr-1" || retrieved.PasswordHash != "hash-1" {
		t.Errorf("unexpected user: %+v", retrieved)
	}

	duplicate := user
	duplicate.ID = "usr-2"
	if err := repo.CreateUser(ctx, duplicate); !errors.Is(err, persistence.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate for repeated email, got %v", err)
	}

	// Empty hash keeps the stored one.
	user.Name = "Ana S."
	user.PasswordHash = ""
	user.UpdatedAt = now.Add(time.Hour)
	if err := repo.UpdateUser(ctx, user); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	retrieved, err = repo.GetUser(ctx, "usr-1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if retrieved.Name != "Ana S." || retrieved.PasswordHash != "hash-1" {
		t.Errorf("expected name updated and hash kept, got %+v", retrieved)
	}

	// A new hash replaces the stored one.
	user.PasswordHash = "hash-2"
	if err := repo.UpdateUser(ctx, user); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	retrieved, _ = repo.GetUser(ctx, "usr-1")
	if retrieved.PasswordHash != "hash-2" {
		t.Errorf("expected rotated hash, got %q", retrieved.PasswordHash)
	}

	if err := repo.DeleteUser(ctx, "usr-1"); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if _, err := repo.GetUser(ctx, "usr-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestUserRepository_DeleteRemovesSessions(t *testing.T) {
	pool := newTestPool(t)
	users := NewUserRepository(pool)
	sessions := NewSessionRepository(pool)
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	user := persistence.User{
		ID: "usr-1", Name: "Ana", Email: "ana@example.com", Role: "client",
		PasswordHash: "hash-1", CreatedAt: now, UpdatedAt: now,
	}
	if err := users.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := sessions.CreateSession(ctx, persistence.Session{
		ID: "sess-1", UserID: "usr-1", Token: "token-1",
		ExpiresAt: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if err := users.DeleteUser(ctx, "usr-1"); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if _, err := sessions.GetSession(ctx, "token-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected session removed with its user, got %v", err)
	}
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	pool := newTestPool(t)
	repo := NewSessionRepository(pool)
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	session := persistence.Session{
		ID:        "sess-1",
		UserID:    "usr-1",
		Token:     "token-1",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := repo.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	retrieved, err := repo.GetSession(ctx, "token-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if retrieved.UserID != "usr-1" || retrieved.RevokedAt != nil {
		t.Errorf("unexpected session: %+v", retrieved)
	}

	revoked, err := repo.RevokeSession(ctx, "token-1", now.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if revoked.RevokedAt == nil || !revoked.RevokedAt.Equal(now.Add(10*time.Minute)) {
		t.Errorf("expected revocation timestamp, got %+v", revoked.RevokedAt)
	}

	if _, err := repo.RevokeSession(ctx, "missing", now); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown token, got %v", err)
	}
}

func TestSessionRepository_DeleteExpiredSessions(t *testing.T) {
	pool := newTestPool(t)
	repo := NewSessionRepository(pool)
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, session := range []persistence.Session{
		{ID: "sess-live", UserID: "usr-1", Token: "token-live", ExpiresAt: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now},
		{ID: "sess-dead", UserID: "usr-1", Token: "token-dead", ExpiresAt: now.Add(-time.Hour), CreatedAt: now, UpdatedAt: now},
		{ID: "sess-edge", UserID: "usr-1", Token: "token-edge", ExpiresAt: now, CreatedAt: now, UpdatedAt: now},
	} {
		if _, err := repo.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
	}

	if err := repo.DeleteExpiredSessions(ctx, now); err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}

	if _, err := repo.GetSession(ctx, "token-live"); err != nil {
		t.Errorf("expected live session kept, got %v", err)
	}
	if _, err := repo.GetSession(ctx, "token-dead"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected expired session removed, got %v", err)
	}
	if _, err := repo.GetSession(ctx, "token-edge"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected session expiring exactly now removed, got %v", err)
	}
}
