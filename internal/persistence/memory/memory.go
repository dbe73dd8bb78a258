// Package memory provides map-backed implementations of the persistence
// repositories with the same filtering and ordering semantics as the SQLite
// layer. Intended for tests and ephemeral deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/space-booking/internal/persistence"
)

// Store holds every collection behind a single mutex.
type Store struct {
	mu       sync.RWMutex
	spaces   map[string]persistence.Space
	bookings map[string]persistence.Booking
	users    map[string]persistence.User
	sessions map[string]persistence.Session
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		spaces:   make(map[string]persistence.Space),
		bookings: make(map[string]persistence.Booking),
		users:    make(map[string]persistence.User),
		sessions: make(map[string]persistence.Session),
	}
}

// BookingRepository exposes the store as a persistence.BookingRepository.
func (s *Store) BookingRepository() *BookingRepository { return &BookingRepository{store: s} }

// SpaceRepository exposes the store as a persistence.SpaceRepository.
func (s *Store) SpaceRepository() *SpaceRepository { return &SpaceRepository{store: s} }

// UserRepository exposes the store as a persistence.UserRepository.
func (s *Store) UserRepository() *UserRepository { return &UserRepository{store: s} }

// SessionRepository exposes the store as a persistence.SessionRepository.
func (s *Store) SessionRepository() *SessionRepository { return &SessionRepository{store: s} }

// BookingRepository is the in-memory booking collection.
type BookingRepository struct {
	store *Store
}

func (r *BookingRepository) CreateBooking(ctx context.Context, record persistence.Booking) error {
	if record.ID == "" || !record.End.After(record.Start) {
		return persistence.ErrConstraintViolation
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.bookings[record.ID]; exists {
		return persistence.ErrDuplicate
	}
	r.store.bookings[record.ID] = record
	return nil
}

func (r *BookingRepository) UpdateBooking(ctx context.Context, record persistence.Booking) error {
	if !record.End.After(record.Start) {
		return persistence.ErrConstraintViolation
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.bookings[record.ID]; !exists {
		return persistence.ErrNotFound
	}
	r.store.bookings[record.ID] = record
	return nil
}

func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	record, ok := r.store.bookings[id]
	if !ok {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	return record, nil
}

func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var records []persistence.Booking
	for _, record := range r.store.bookings {
		if filter.SpaceID != "" && record.SpaceID != filter.SpaceID {
			continue
		}
		if filter.RequesterID != "" && record.RequesterID != filter.RequesterID {
			continue
		}
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		if filter.ExcludeStatus != "" && record.Status == filter.ExcludeStatus {
			continue
		}
		if filter.StartsBefore != nil && !record.Start.Before(*filter.StartsBefore) {
			continue
		}
		if filter.EndsAfter != nil && !record.End.After(*filter.EndsAfter) {
			continue
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].Start.Equal(records[j].Start) {
			return records[i].Start.Before(records[j].Start)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

func (r *BookingRepository) DeleteBooking(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.bookings[id]; !exists {
		return persistence.ErrNotFound
	}
	delete(r.store.bookings, id)
	return nil
}

// SpaceRepository is the in-memory space catalog.
type SpaceRepository struct {
	store *Store
}

func (r *SpaceRepository) CreateSpace(ctx context.Context, space persistence.Space) error {
	if space.ID == "" || space.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.spaces[space.ID]; exists {
		return persistence.ErrDuplicate
	}
	r.store.spaces[space.ID] = space
	return nil
}

func (r *SpaceRepository) UpdateSpace(ctx context.Context, space persistence.Space) error {
	if space.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.spaces[space.ID]; !exists {
		return persistence.ErrNotFound
	}
	r.store.spaces[space.ID] = space
	return nil
}

func (r *SpaceRepository) GetSpace(ctx context.Context, id string) (persistence.Space, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	space, ok := r.store.spaces[id]
	if !ok {
		return persistence.Space{}, persistence.ErrNotFound
	}
	return space, nil
}

func (r *SpaceRepository) ListSpaces(ctx context.Context) ([]persistence.Space, error) {
	return r.list(func(persistence.Space) bool { return true })
}

func (r *SpaceRepository) ListSpacesByType(ctx context.Context, spaceType string) ([]persistence.Space, error) {
	return r.list(func(space persistence.Space) bool { return space.Type == spaceType })
}

func (r *SpaceRepository) list(keep func(persistence.Space) bool) ([]persistence.Space, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var spaces []persistence.Space
	for _, space := range r.store.spaces {
		if keep(space) {
			spaces = append(spaces, space)
		}
	}
	sort.Slice(spaces, func(i, j int) bool {
		if spaces[i].Name != spaces[j].Name {
			return spaces[i].Name < spaces[j].Name
		}
		return spaces[i].ID < spaces[j].ID
	})
	return spaces, nil
}

func (r *SpaceRepository) DeleteSpace(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.spaces[id]; !exists {
		return persistence.ErrNotFound
	}
	delete(r.store.spaces, id)
	return nil
}

// UserRepository is the in-memory account collection.
type UserRepository struct {
	store *Store
}

func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.users[user.ID]; exists {
		return persistence.ErrDuplicate
	}
	for _, existing := range r.store.users {
		if existing.Email == user.Email {
			return persistence.ErrDuplicate
		}
	}
	r.store.users[user.ID] = user
	return nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.users[user.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	for id, other := range r.store.users {
		if id != user.ID && other.Email == user.Email {
			return persistence.ErrDuplicate
		}
	}
	if user.PasswordHash == "" {
		user.PasswordHash = existing.PasswordHash
	}
	r.store.users[user.ID] = user
	return nil
}

func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	user, ok := r.store.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, user := range r.store.users {
		if user.Email == email {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	users := make([]persistence.User, 0, len(r.store.users))
	for _, user := range r.store.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.users[id]; !exists {
		return persistence.ErrNotFound
	}
	delete(r.store.users, id)
	for token, session := range r.store.sessions {
		if session.UserID == id {
			delete(r.store.sessions, token)
		}
	}
	return nil
}

// SessionRepository is the in-memory session collection keyed by token.
type SessionRepository struct {
	store *Store
}

func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || session.Token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.sessions[session.Token]; exists {
		return persistence.Session{}, persistence.ErrDuplicate
	}
	r.store.sessions[session.Token] = session
	return session, nil
}

func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	session, ok := r.store.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	session, ok := r.store.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	session.UpdatedAt = revokedAt
	r.store.sessions[token] = session
	return session, nil
}

func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for token, session := range r.store.sessions {
		if !session.ExpiresAt.After(reference) {
			delete(r.store.sessions, token)
		}
	}
	return nil
}
