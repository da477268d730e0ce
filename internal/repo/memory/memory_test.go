package memory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/diagnosis/marketinn/internal/domain"
	"github.com/diagnosis/marketinn/internal/repo"
	"github.com/diagnosis/marketinn/internal/repo/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickingClock advances one second per call so createdAt ordering is strict.
func tickingClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func seedBooking(t *testing.T, r repo.BookingRepository, name string, in, out domain.Date, status domain.BookingStatus) *domain.Booking {
	t.Helper()
	b, err := r.Create(context.Background(), &domain.Booking{
		GuestName:     name,
		RoomID:        1,
		CheckInDate:   in,
		CheckOutDate:  out,
		Adults:        1,
		BookingSource: domain.SourceDirect,
		Price:         100,
		Status:        status,
	})
	require.NoError(t, err)
	return b
}

func day(d int) domain.Date { return domain.NewDate(2024, time.March, d) }

func ids(bs []domain.Booking) []int64 {
	out := make([]int64, len(bs))
	for i, b := range bs {
		out[i] = b.ID
	}
	return out
}

func TestBookingRepo_CreateGetDelete(t *testing.T) {
	ctx := context.Background()
	r := memory.NewBookingRepo()

	b := seedBooking(t, r, "Иван Петров", day(1), day(4), domain.StatusConfirmed)
	assert.Equal(t, int64(1), b.ID)
	assert.False(t, b.CreatedAt.IsZero())

	got, err := r.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, *b, *got)

	require.NoError(t, r.Delete(ctx, b.ID))
	_, err = r.GetByID(ctx, b.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = r.Delete(ctx, b.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestBookingRepo_UpdateMergesPatch(t *testing.T) {
	ctx := context.Background()
	r := memory.NewBookingRepo()
	b := seedBooking(t, r, "A", day(1), day(4), domain.StatusPending)

	price := 60000.0
	got, err := r.Update(ctx, b.ID, domain.BookingPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, price, got.Price)
	assert.Equal(t, "A", got.GuestName)
	assert.True(t, got.CheckInDate.Equal(day(1)))

	_, err = r.Update(ctx, 999, domain.BookingPatch{Price: &price})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestBookingRepo_UpdateValidatesMergedRecord(t *testing.T) {
	ctx := context.Background()
	r := memory.NewBookingRepo()
	b := seedBooking(t, r, "A", day(8), day(10), domain.StatusPending)

	early := day(5)
	_, err := r.Update(ctx, b.ID, domain.BookingPatch{CheckOutDate: &early})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "checkOutDate")

	huge := domain.MaxPrice + 1
	_, err = r.Update(ctx, b.ID, domain.BookingPatch{Price: &huge})
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "price")

	got, err := r.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, *b, *got)
}

func TestBookingRepo_CreateRejectsInvalidRecord(t *testing.T) {
	r := memory.NewBookingRepo()
	_, err := r.Create(context.Background(), &domain.Booking{
		GuestName: "A", RoomID: 1, CheckInDate: day(2), CheckOutDate: day(2),
		Adults: 1, BookingSource: domain.SourceDirect, Status: domain.StatusConfirmed,
	})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))

	page, err := r.List(context.Background(), repo.BookingFilter{}, repo.Page{})
	require.NoError(t, err)
	assert.Zero(t, page.TotalItems)
}

func TestBookingRepo_ListPagesAreDisjoint(t *testing.T) {
	ctx := context.Background()
	r := memory.NewBookingRepo()
	r.SetClock(tickingClock())
	for i := 0; i < 25; i++ {
		seedBooking(t, r, fmt.Sprintf("guest %d", i), day(1), day(2), domain.StatusConfirmed)
	}

	p0, err := r.List(ctx, repo.BookingFilter{}, repo.Page{Number: 0, Size: 10})
	require.NoError(t, err)
	p1, err := r.List(ctx, repo.BookingFilter{}, repo.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	both, err := r.List(ctx, repo.BookingFilter{}, repo.Page{Number: 0, Size: 20})
	require.NoError(t, err)

	assert.Equal(t, 25, p0.TotalItems)
	assert.Equal(t, 3, p0.TotalPages)
	assert.Equal(t, 1, p1.CurrentPage)
	assert.Equal(t, append(ids(p0.Bookings), ids(p1.Bookings)...), ids(both.Bookings))
	// Newest first.
	assert.Equal(t, int64(25), p0.Bookings[0].ID)
}

func TestBookingRepo_ListFilters(t *testing.T) {
	ctx := context.Background()
	r := memory.NewBookingRepo()
	seedBooking(t, r, "Иван Петров", day(1), day(4), domain.StatusConfirmed)
	seedBooking(t, r, "Мария Иванова", day(10), day(12), domain.StatusPending)
	seedBooking(t, r, "John Smith", day(20), day(25), domain.StatusConfirmed)

	tests := []struct {
		name   string
		filter repo.BookingFilter
		want   int
	}{
		{"no filter", repo.BookingFilter{}, 3},
		{"name substring ignores case", repo.BookingFilter{GuestName: "иван"}, 2},
		{"status", repo.BookingFilter{Status: domain.StatusConfirmed}, 2},
		{"check-in in range", repo.BookingFilter{StartDate: ptr(day(9)), EndDate: ptr(day(10))}, 1},
		{"check-out in range", repo.BookingFilter{StartDate: ptr(day(4)), EndDate: ptr(day(5))}, 1},
		{"stay spans range only", repo.BookingFilter{StartDate: ptr(day(21)), EndDate: ptr(day(22))}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := r.List(ctx, tt.filter, repo.Page{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, page.TotalItems)
			assert.Len(t, page.Bookings, tt.want)
		})
	}
}

func TestUserRepo_EmailConflict(t *testing.T) {
	ctx := context.Background()
	r := memory.NewUserRepo()

	_, err := r.Create(ctx, &domain.User{Email: "a@x.io", Role: domain.RoleStaff})
	require.NoError(t, err)
	_, err = r.Create(ctx, &domain.User{Email: "a@x.io", Role: domain.RoleStaff})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	b, err := r.Create(ctx, &domain.User{Email: "b@x.io", Role: domain.RoleAdmin})
	require.NoError(t, err)
	email := "a@x.io"
	_, err = r.Update(ctx, b.ID, domain.UserChanges{Email: &email})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	n, err := r.CountByRole(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_DeleteUserClearsCreatorReferences(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	admin, err := s.Users().Create(ctx, &domain.User{Email: "admin@x.io", Role: domain.RoleAdmin})
	require.NoError(t, err)
	staff, err := s.Users().Create(ctx, &domain.User{Email: "staff@x.io", Role: domain.RoleStaff, CreatedByID: &admin.ID})
	require.NoError(t, err)

	b, err := s.Bookings().Create(ctx, &domain.Booking{
		GuestName: "A", RoomID: 1, CheckInDate: day(1), CheckOutDate: day(2),
		Adults: 1, BookingSource: domain.SourceDirect, Status: domain.StatusConfirmed,
		CreatedByID: &admin.ID,
	})
	require.NoError(t, err)

	require.NoError(t, s.Users().Delete(ctx, admin.ID))

	gotB, err := s.Bookings().GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, gotB.CreatedByID)

	gotU, err := s.Users().GetByID(ctx, staff.ID)
	require.NoError(t, err)
	assert.Nil(t, gotU.CreatedByID)

	err = s.Users().Delete(ctx, uuid.New())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func ptr[T any](v T) *T { return &v }
