package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/space-booking/internal/persistence"
)

type credentialStoreStub struct {
	byEmail map[string]UserCredentials
	byID    map[string]User
}

func newCredentialStoreStub(creds ...UserCredentials) *credentialStoreStub {
	stub := &credentialStoreStub{
		byEmail: make(map[string]UserCredentials),
		byID:    make(map[string]User),
	}
	for _, c := range creds {
		stub.byEmail[c.User.Email] = c
		stub.byID[c.User.ID] = c.User
	}
	return stub
}

func (s *credentialStoreStub) GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error) {
	creds, ok := s.byEmail[email]
	if !ok {
		return UserCredentials{}, ErrNotFound
	}
	return creds, nil
}

func (s *credentialStoreStub) GetUser(ctx context.Context, id string) (User, error) {
	user, ok := s.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

type sessionStoreFake struct {
	sessions map[string]Session
	deleted  int
}

func newSessionStoreFake(seed ...Session) *sessionStoreFake {
	sessions := make(map[string]Session, len(seed))
	for _, s := range seed {
		sessions[s.Token] = s
	}
	return &sessionStoreFake{sessions: sessions}
}

func (f *sessionStoreFake) CreateSession(ctx context.Context, session Session) (Session, error) {
	f.sessions[session.Token] = session
	return session, nil
}

func (f *sessionStoreFake) GetSession(ctx context.Context, token string) (Session, error) {
	session, ok := f.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	return session, nil
}

func (f *sessionStoreFake) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error) {
	session, ok := f.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	session.RevokedAt = &revokedAt
	f.sessions[token] = session
	return session, nil
}

func (f *sessionStoreFake) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	for token, session := range f.sessions {
		if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(reference) {
			delete(f.sessions, token)
			f.deleted++
		}
	}
	return nil
}

func stubVerifier(hashedPassword, password string) error {
	if hashedPassword != "hashed:"+password {
		return errors.New("password mismatch")
	}
	return nil
}

func adminCredentials() UserCredentials {
	return UserCredentials{
		User:         User{ID: "usr-1", Name: "Ana Souza", Email: "ana@example.com", Role: RoleAdmin},
		PasswordHash: "hashed:s3cret",
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	now := testClock("2024-06-01T12:00:00Z")

	t.Run("issues a session on valid credentials", func(t *testing.T) {
		sessions := newSessionStoreFake()
		svc := NewAuthService(newCredentialStoreStub(adminCredentials()), sessions, stubVerifier, func() string { return "token-1" }, now, time.Hour)

		result, err := svc.Authenticate(context.Background(), AuthenticateParams{
			Email:    " Ana@Example.com ",
			Password: "s3cret",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.User.ID != "usr-1" {
			t.Fatalf("expected authenticated user, got %+v", result.User)
		}
		if result.Session.Token != "token-1" {
			t.Fatalf("expected issued token, got %q", result.Session.Token)
		}
		if !result.Session.ExpiresAt.Equal(mustInstant("2024-06-01T13:00:00Z")) {
			t.Fatalf("expected expiry one hour out, got %v", result.Session.ExpiresAt)
		}
		if _, ok := sessions.sessions["token-1"]; !ok {
			t.Fatal("expected session persisted")
		}
	})

	t.Run("unknown email fails with invalid credentials", func(t *testing.T) {
		svc := NewAuthService(newCredentialStoreStub(), newSessionStoreFake(), stubVerifier, func() string { return "token-1" }, now, time.Hour)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "nobody@example.com", Password: "x"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("wrong password fails with invalid credentials", func(t *testing.T) {
		svc := NewAuthService(newCredentialStoreStub(adminCredentials()), newSessionStoreFake(), stubVerifier, func() string { return "token-1" }, now, time.Hour)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "ana@example.com", Password: "wrong"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("empty credentials fail fast", func(t *testing.T) {
		svc := NewAuthService(newCredentialStoreStub(adminCredentials()), newSessionStoreFake(), stubVerifier, func() string { return "token-1" }, now, time.Hour)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("login sweeps expired sessions", func(t *testing.T) {
		sessions := newSessionStoreFake(Session{
			ID:        "sess-old",
			UserID:    "usr-1",
			Token:     "token-old",
			ExpiresAt: mustInstant("2024-05-01T00:00:00Z"),
		})
		svc := NewAuthService(newCredentialStoreStub(adminCredentials()), sessions, stubVerifier, func() string { return "token-1" }, now, time.Hour)

		if _, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "ana@example.com", Password: "s3cret"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sessions.deleted != 1 {
			t.Fatalf("expected one expired session swept, got %d", sessions.deleted)
		}
	})
}

func TestAuthService_ValidateSession(t *testing.T) {
	now := testClock("2024-06-01T12:00:00Z")
	creds := newCredentialStoreStub(adminCredentials())

	liveSession := Session{
		ID:        "sess-1",
		UserID:    "usr-1",
		Token:     "token-1",
		ExpiresAt: mustInstant("2024-06-01T13:00:00Z"),
	}

	t.Run("resolves the acting principal", func(t *testing.T) {
		svc := NewAuthService(creds, newSessionStoreFake(liveSession), stubVerifier, nil, now, time.Hour)

		principal, err := svc.ValidateSession(context.Background(), "token-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if principal.UserID != "usr-1" || !principal.IsAdmin {
			t.Fatalf("expected admin principal, got %+v", principal)
		}
	})

	t.Run("client role yields non-admin principal", func(t *testing.T) {
		clientCreds := UserCredentials{
			User:         User{ID: "usr-2", Email: "bo@example.com", Role: RoleClient},
			PasswordHash: "hashed:pw",
		}
		session := liveSession
		session.UserID = "usr-2"
		svc := NewAuthService(newCredentialStoreStub(clientCreds), newSessionStoreFake(session), stubVerifier, nil, now, time.Hour)

		principal, err := svc.ValidateSession(context.Background(), "token-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if principal.IsAdmin {
			t.Fatalf("expected non-admin principal, got %+v", principal)
		}
	})

	t.Run("unknown token is unauthorized", func(t *testing.T) {
		svc := NewAuthService(creds, newSessionStoreFake(), stubVerifier, nil, now, time.Hour)

		_, err := svc.ValidateSession(context.Background(), "missing")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("expired session is rejected", func(t *testing.T) {
		expired := liveSession
		expired.ExpiresAt = mustInstant("2024-06-01T11:00:00Z")
		svc := NewAuthService(creds, newSessionStoreFake(expired), stubVerifier, nil, now, time.Hour)

		_, err := svc.ValidateSession(context.Background(), "token-1")
		if !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
	})

	t.Run("revoked session is rejected", func(t *testing.T) {
		revokedAt := mustInstant("2024-06-01T11:30:00Z")
		revoked := liveSession
		revoked.RevokedAt = &revokedAt
		svc := NewAuthService(creds, newSessionStoreFake(revoked), stubVerifier, nil, now, time.Hour)

		_, err := svc.ValidateSession(context.Background(), "token-1")
		if !errors.Is(err, ErrSessionRevoked) {
			t.Fatalf("expected ErrSessionRevoked, got %v", err)
		}
	})

	t.Run("blank token fails fast", func(t *testing.T) {
		svc := NewAuthService(creds, newSessionStoreFake(liveSession), stubVerifier, nil, now, time.Hour)

		_, err := svc.ValidateSession(context.Background(), "   ")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestAuthService_RevokeSession(t *testing.T) {
	now := testClock("2024-06-01T12:00:00Z")
	creds := newCredentialStoreStub(adminCredentials())
	liveSession := Session{
		ID:        "sess-1",
		UserID:    "usr-1",
		Token:     "token-1",
		ExpiresAt: mustInstant("2024-06-01T13:00:00Z"),
	}

	t.Run("revocation invalidates subsequent validation", func(t *testing.T) {
		sessions := newSessionStoreFake(liveSession)
		svc := NewAuthService(creds, sessions, stubVerifier, nil, now, time.Hour)

		if err := svc.RevokeSession(context.Background(), "token-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := svc.ValidateSession(context.Background(), "token-1"); !errors.Is(err, ErrSessionRevoked) {
			t.Fatalf("expected ErrSessionRevoked after revocation, got %v", err)
		}
	})

	t.Run("unknown token fails with invalid credentials", func(t *testing.T) {
		svc := NewAuthService(creds, newSessionStoreFake(), stubVerifier, nil, now, time.Hour)

		err := svc.RevokeSession(context.Background(), "missing")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

// emptyPersistenceStore mimics the real repository adapters, which surface
// the persistence not-found sentinel rather than the application one.
type emptyPersistenceStore struct{}

func (emptyPersistenceStore) GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error) {
	return UserCredentials{}, persistence.ErrNotFound
}

func (emptyPersistenceStore) GetUser(ctx context.Context, id string) (User, error) {
	return User{}, persistence.ErrNotFound
}

func (emptyPersistenceStore) CreateSession(ctx context.Context, session Session) (Session, error) {
	return session, nil
}

func (emptyPersistenceStore) GetSession(ctx context.Context, token string) (Session, error) {
	return Session{}, persistence.ErrNotFound
}

func (emptyPersistenceStore) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error) {
	return Session{}, persistence.ErrNotFound
}

func (emptyPersistenceStore) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return nil
}

func TestAuthService_PersistenceNotFound(t *testing.T) {
	now := testClock("2024-06-01T12:00:00Z")
	store := emptyPersistenceStore{}
	svc := NewAuthService(store, store, stubVerifier, nil, now, time.Hour)

	t.Run("unknown email fails with invalid credentials", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "nobody@example.com", Password: "x"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown token is unauthorized", func(t *testing.T) {
		_, err := svc.ValidateSession(context.Background(), "missing")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("unknown user behind a live session is unauthorized", func(t *testing.T) {
		sessions := newSessionStoreFake(Session{
			ID:        "sess-1",
			UserID:    "usr-gone",
			Token:     "token-1",
			ExpiresAt: mustInstant("2024-06-01T13:00:00Z"),
		})
		orphaned := NewAuthService(store, sessions, stubVerifier, nil, now, time.Hour)

		_, err := orphaned.ValidateSession(context.Background(), "token-1")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("unknown token revocation fails with invalid credentials", func(t *testing.T) {
		err := svc.RevokeSession(context.Background(), "missing")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestPasswordHashRoundTrip(t *testing.T) {
	params := Argon2idParams{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

	hash, err := CreatePasswordHash("correct horse battery staple", params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := VerifyPassword(hash, "correct horse battery staple"); err != nil {
		t.Fatalf("expected hash to verify, got %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch to fail")
	}
}
