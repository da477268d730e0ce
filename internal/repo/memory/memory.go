// Package memory is a map-backed store used by tests and STORAGE=memory.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/diagnosis/marketinn/internal/domain"
	"github.com/diagnosis/marketinn/internal/repo"
	"github.com/google/uuid"
)

type Store struct {
	bookings *BookingRepo
	users    *UserRepo
}

func NewStore() *Store {
	s := &Store{bookings: NewBookingRepo(), users: NewUserRepo()}
	s.users.onDelete = s.bookings.clearCreator
	return s
}

func (s *Store) Bookings() repo.BookingRepository { return s.bookings }
func (s *Store) Users() repo.UserRepository       { return s.users }
func (s *Store) Ping(context.Context) error       { return nil }
func (s *Store) Close()                           {}

type BookingRepo struct {
	mu     sync.RWMutex
	items  map[int64]domain.Booking
	nextID int64
	now    func() time.Time
}

func NewBookingRepo() *BookingRepo {
	return &BookingRepo{items: make(map[int64]domain.Booking), now: time.Now}
}

// SetClock replaces the timestamp source.
func (r *BookingRepo) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *BookingRepo) List(_ context.Context, f repo.BookingFilter, p repo.Page) (repo.BookingPage, error) {
	p = p.Normalize()

	r.mu.RLock()
	matched := make([]domain.Booking, 0, len(r.items))
	for _, b := range r.items {
		if f.Matches(&b) {
			matched = append(matched, b)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	start := min(p.Offset(), total)
	end := min(start+p.Size, total)
	return repo.NewBookingPage(matched[start:end], total, p), nil
}

func (r *BookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, bookingNotFound(id)
	}
	return &b, nil
}

func (r *BookingRepo) Create(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	if b == nil {
		return nil, fmt.Errorf("create booking: nil booking")
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	out := *b
	out.ID = r.nextID
	now := r.now().UTC()
	out.CreatedAt, out.UpdatedAt = now, now
	r.items[out.ID] = out
	return &out, nil
}

func (r *BookingRepo) Update(_ context.Context, id int64, patch domain.BookingPatch) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.items[id]
	if !ok {
		return nil, bookingNotFound(id)
	}
	// Validated against the record held under the lock, as the schema CHECKs
	// do in postgres.
	b, err := patch.Apply(current)
	if err != nil {
		return nil, err
	}
	b.UpdatedAt = r.now().UTC()
	r.items[id] = b
	return &b, nil
}

func (r *BookingRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return bookingNotFound(id)
	}
	delete(r.items, id)
	return nil
}

func (r *BookingRepo) clearCreator(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, b := range r.items {
		if b.CreatedByID != nil && *b.CreatedByID == userID {
			b.CreatedByID = nil
			r.items[id] = b
		}
	}
}

func bookingNotFound(id int64) error {
	return &domain.NotFoundError{Resource: "booking", ID: strconv.FormatInt(id, 10)}
}

type UserRepo struct {
	mu       sync.RWMutex
	items    map[uuid.UUID]domain.User
	now      func() time.Time
	onDelete func(uuid.UUID)
}

func NewUserRepo() *UserRepo {
	return &UserRepo{items: make(map[uuid.UUID]domain.User), now: time.Now}
}

func (r *UserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	if u == nil {
		return nil, fmt.Errorf("create user: nil user")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Email == u.Email {
			return nil, fmt.Errorf("create user %s: %w", u.Email, domain.ErrConflict)
		}
	}
	out := *u
	if out.ID == uuid.Nil {
		out.ID = uuid.New()
	}
	now := r.now().UTC()
	out.CreatedAt, out.UpdatedAt = now, now
	r.items[out.ID] = out
	return &out, nil
}

func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.items[id]
	if !ok {
		return nil, userNotFound(id.String())
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.items {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, userNotFound(email)
}

func (r *UserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	out := make([]domain.User, 0, len(r.items))
	for _, u := range r.items {
		out = append(out, u)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Email < out[j].Email
	})
	return out, nil
}

func (r *UserRepo) Update(_ context.Context, id uuid.UUID, c domain.UserChanges) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[id]
	if !ok {
		return nil, userNotFound(id.String())
	}
	if c.Email != nil && *c.Email != u.Email {
		for otherID, other := range r.items {
			if otherID != id && other.Email == *c.Email {
				return nil, fmt.Errorf("update user %s: %w", id, domain.ErrConflict)
			}
		}
	}
	c.Apply(&u)
	u.UpdatedAt = r.now().UTC()
	r.items[id] = u
	return &u, nil
}

// Delete removes the user and clears references to it, mirroring the
// ON DELETE SET NULL foreign keys of the postgres schema.
func (r *UserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	if _, ok := r.items[id]; !ok {
		r.mu.Unlock()
		return userNotFound(id.String())
	}
	delete(r.items, id)
	for k, u := range r.items {
		if u.CreatedByID != nil && *u.CreatedByID == id {
			u.CreatedByID = nil
			r.items[k] = u
		}
	}
	onDelete := r.onDelete
	r.mu.Unlock()

	if onDelete != nil {
		onDelete(id)
	}
	return nil
}

func (r *UserRepo) CountByRole(_ context.Context, role domain.Role) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, u := range r.items {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func userNotFound(id string) error {
	return &domain.NotFoundError{Resource: "user", ID: id}
}

var (
	_ repo.BookingRepository = (*BookingRepo)(nil)
	_ repo.UserRepository    = (*UserRepo)(nil)
	_ repo.Store             = (*Store)(nil)
)
