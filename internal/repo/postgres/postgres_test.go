package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/diagnosis/marketinn/internal/domain"
	"github.com/diagnosis/marketinn/internal/repo"
	"github.com/diagnosis/marketinn/internal/repo/postgres"
	"github.com/diagnosis/marketinn/pkg/config"
	"github.com/diagnosis/marketinn/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openStore connects to TEST_DATABASE_URL and applies the schema. Tests are
// skipped when it is unset.
func openStore(t *testing.T) (*postgres.Store, *pgxpool.Pool) {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := database.Connect(ctx, config.DatabaseConfig{URL: url, MaxConns: 4, MinConns: 1, MaxLifetime: time.Minute})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.Migrate(ctx, pool))
	return postgres.NewStore(pool), pool
}

func TestBookingRepo_Lifecycle(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	r := store.Bookings()

	guest := "pg-" + uuid.NewString()
	b, err := r.Create(ctx, &domain.Booking{
		GuestName:     guest,
		RoomID:        3,
		RoomType:      domain.RoomSuite,
		CheckInDate:   domain.NewDate(2024, time.March, 1),
		CheckOutDate:  domain.NewDate(2024, time.March, 4),
		Adults:        2,
		BookingSource: domain.SourceWebsite,
		Price:         50000.5,
		Status:        domain.StatusConfirmed,
		Notes:         "VIP",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Delete(context.Background(), b.ID) })

	got, err := r.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, guest, got.GuestName)
	assert.Equal(t, "2024-03-01", got.CheckInDate.String())
	assert.Equal(t, 50000.5, got.Price)

	empty := ""
	price := 60000.0
	updated, err := r.Update(ctx, b.ID, domain.BookingPatch{Price: &price, Notes: &empty})
	require.NoError(t, err)
	assert.Equal(t, 60000.0, updated.Price)
	assert.Equal(t, "", updated.Notes)
	assert.Equal(t, "2024-03-04", updated.CheckOutDate.String())

	early := domain.NewDate(2024, time.February, 1)
	_, err = r.Update(ctx, b.ID, domain.BookingPatch{CheckOutDate: &early})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "checkOutDate")

	huge := 1e9
	_, err = r.Update(ctx, b.ID, domain.BookingPatch{Price: &huge})
	require.True(t, errors.As(err, &ve))

	noRoomType := domain.RoomType("")
	updated, err = r.Update(ctx, b.ID, domain.BookingPatch{RoomType: &noRoomType})
	require.NoError(t, err)
	assert.Equal(t, domain.RoomType(""), updated.RoomType)

	page, err := r.List(ctx, repo.BookingFilter{GuestName: guest}, repo.Page{Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalItems)

	require.NoError(t, r.Delete(ctx, b.ID))
	_, err = r.GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, b.ID), domain.ErrNotFound)
}

func TestUsersRepo_EmailConflict(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	r := store.Users()

	email := uuid.NewString() + "@pg.test"
	u, err := r.Create(ctx, &domain.User{Name: "A", Email: email, PasswordHash: "x", Role: domain.RoleStaff, IsActive: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Delete(context.Background(), u.ID) })

	_, err = r.Create(ctx, &domain.User{Name: "B", Email: email, PasswordHash: "x", Role: domain.RoleStaff, IsActive: true})
	assert.ErrorIs(t, err, domain.ErrConflict)

	byEmail, err := r.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
}

func TestRateLimitAndIdempotency(t *testing.T) {
	_, pool := openStore(t)
	ctx := context.Background()

	limiter := postgres.NewRateLimitRepo(pool)
	key := "test:" + uuid.NewString()
	for want := int64(1); want <= 3; want++ {
		n, err := limiter.Incr(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	idem := postgres.NewIdempotencyRepo(pool)
	hash := "idempotency:" + uuid.NewString()
	v, err := idem.Get(ctx, hash)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, idem.Set(ctx, hash, "first", time.Minute))
	require.NoError(t, idem.Set(ctx, hash, "second", time.Minute))
	v, err = idem.Get(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}
