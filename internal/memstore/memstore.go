// Package memstore is an in-process user and entry store with the same semantics as the
// Postgres repository. It backs STORE_BACKEND=memory and the handler tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/galhr/portal/backend/internal/calendar"
	"github.com/galhr/portal/backend/internal/domain"
)

type Store struct {
	mu      sync.RWMutex
	users   map[int64]*domain.User
	entries map[int64]*domain.Entry
	nextID  int64
	now     func() time.Time
}

func New() *Store {
	return &Store{
		users:   make(map[int64]*domain.User),
		entries: make(map[int64]*domain.Entry),
		now:     time.Now,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return domain.ErrConflict
		}
	}
	user.ID = s.id()
	user.CreatedAt = s.now()
	user.Version = 1
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyUser(u), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) UpdateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.users[user.ID]
	if !ok || cur.Version != user.Version {
		return domain.ErrEditConflict
	}
	for _, u := range s.users {
		if u.ID != user.ID && u.Email == user.Email {
			return domain.ErrConflict
		}
	}
	user.Version++
	user.CreatedAt = cur.CreatedAt
	s.users[user.ID] = copyUser(user)
	return nil
}

// DeleteUser removes the user and every entry they own.
func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.users, id)
	for eid, e := range s.entries {
		if e.OwnerID == id {
			delete(s.entries, eid)
			continue
		}
		if e.ReviewedBy != nil && *e.ReviewedBy == id {
			e.ReviewedBy = nil
		}
	}
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]*domain.UserWithEntryCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[int64]int)
	for _, e := range s.entries {
		counts[e.OwnerID]++
	}

	users := make([]*domain.UserWithEntryCount, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, &domain.UserWithEntryCount{User: copyUser(u), EntryCount: counts[u.ID]})
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID > users[j].ID
	})
	return users, nil
}

func (s *Store) CountUsersByRole(_ context.Context) (map[domain.Role]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.Role]int, len(domain.Roles))
	for _, role := range domain.Roles {
		counts[role] = 0
	}
	for _, u := range s.users {
		counts[u.Role]++
	}
	return counts, nil
}

func (s *Store) CreateEntry(_ context.Context, e *domain.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[e.OwnerID]; !ok {
		return domain.ErrNotFound
	}
	e.ID = s.id()
	e.Status = domain.StatusPending
	e.CreatedAt = s.now()
	e.ReviewedBy = nil
	e.ReviewedAt = nil
	s.entries[e.ID] = e.Clone()
	return nil
}

func (s *Store) GetEntry(_ context.Context, id int64) (*domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e.Clone(), nil
}

func (s *Store) FindEntries(_ context.Context, f domain.EntryFilter) ([]*domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.find(f), nil
}

func (s *Store) FindEntriesWithOwner(_ context.Context, f domain.EntryFilter) ([]*domain.EntryWithOwner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := s.find(f)
	out := make([]*domain.EntryWithOwner, 0, len(found))
	for _, e := range found {
		item := &domain.EntryWithOwner{Entry: e}
		if u, ok := s.users[e.OwnerID]; ok {
			item.Owner = u.Summary()
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *Store) CountEntries(_ context.Context, f domain.EntryFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f.Limit = 0
	return len(s.find(f)), nil
}

// find must be called with s.mu held.
func (s *Store) find(f domain.EntryFilter) []*domain.Entry {
	found := make([]*domain.Entry, 0)
	for _, e := range s.entries {
		if matches(e, f) {
			found = append(found, e.Clone())
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if !found[i].CreatedAt.Equal(found[j].CreatedAt) {
			return found[i].CreatedAt.After(found[j].CreatedAt)
		}
		return found[i].ID > found[j].ID
	})
	if f.Limit > 0 && len(found) > f.Limit {
		found = found[:f.Limit]
	}
	return found
}

func matches(e *domain.Entry, f domain.EntryFilter) bool {
	if f.OwnerID != nil && e.OwnerID != *f.OwnerID {
		return false
	}
	if f.Type != "" && e.Type() != f.Type {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if !f.From.IsZero() || !f.To.IsZero() {
		w := calendar.Window{Start: f.From, End: f.To}
		if f.From.IsZero() {
			w.Start = domain.NewDate(1, time.January, 1)
		}
		if f.To.IsZero() {
			w.End = domain.NewDate(9999, time.December, 31)
		}
		if !w.Overlaps(e) {
			return false
		}
	}
	if !f.CreatedFrom.IsZero() && e.CreatedAt.Before(f.CreatedFrom) {
		return false
	}
	if !f.CreatedTo.IsZero() && !e.CreatedAt.Before(f.CreatedTo) {
		return false
	}
	return true
}

func (s *Store) UpdateEntryStatus(_ context.Context, id int64, from, to domain.EntryStatus, reviewerID int64, at time.Time) (*domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if e.Status != from {
		return nil, domain.ErrInvalidState
	}
	e.Status = to
	e.ReviewedBy = &reviewerID
	e.ReviewedAt = &at
	return e.Clone(), nil
}

func (s *Store) DeletePendingEntry(_ context.Context, id, ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	if e.Status != domain.StatusPending {
		return domain.ErrInvalidState
	}
	delete(s.entries, id)
	return nil
}
