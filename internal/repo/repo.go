// Package repo declares the storage contracts shared by the postgres and
// memory backends.
package repo

import (
	"context"

	"github.com/diagnosis/marketinn/internal/domain"
	"github.com/diagnosis/marketinn/internal/utils"
	"github.com/google/uuid"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page selects a zero-based page of results.
type Page struct {
	Number int
	Size   int
}

func (p Page) Normalize() Page {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	return p.Number * p.Size
}

// BookingFilter narrows List. Zero fields do not filter. The date range is
// inclusive and matches when either check-in or check-out falls inside it.
type BookingFilter struct {
	GuestName string
	Status    domain.BookingStatus
	StartDate *domain.Date
	EndDate   *domain.Date
}

func (f BookingFilter) HasDateRange() bool {
	return f.StartDate != nil && f.EndDate != nil
}

func (f BookingFilter) Matches(b *domain.Booking) bool {
	if f.GuestName != "" && !utils.ContainsFold(b.GuestName, f.GuestName) {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if f.HasDateRange() {
		in := func(d domain.Date) bool {
			return !d.Before(*f.StartDate) && !d.After(*f.EndDate)
		}
		if !in(b.CheckInDate) && !in(b.CheckOutDate) {
			return false
		}
	}
	return true
}

type BookingPage struct {
	Bookings    []domain.Booking `json:"bookings"`
	TotalItems  int              `json:"totalItems"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
}

func NewBookingPage(items []domain.Booking, total int, p Page) BookingPage {
	if items == nil {
		items = []domain.Booking{}
	}
	pages := 0
	if p.Size > 0 {
		pages = (total + p.Size - 1) / p.Size
	}
	return BookingPage{
		Bookings:    items,
		TotalItems:  total,
		TotalPages:  pages,
		CurrentPage: p.Number,
	}
}

type BookingRepository interface {
	List(ctx context.Context, f BookingFilter, p Page) (BookingPage, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	Update(ctx context.Context, id int64, patch domain.BookingPatch) (*domain.Booking, error)
	Delete(ctx context.Context, id int64) error
}

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, id uuid.UUID, c domain.UserChanges) (*domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByRole(ctx context.Context, role domain.Role) (int, error)
}

// Store bundles a backend's repositories with its lifecycle.
type Store interface {
	Bookings() BookingRepository
	Users() UserRepository
	Ping(ctx context.Context) error
	Close()
}
