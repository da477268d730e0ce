package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diagnosis/marketinn/internal/domain"
	"github.com/diagnosis/marketinn/internal/http/handlers"
	"github.com/diagnosis/marketinn/internal/repo/memory"
	"github.com/diagnosis/marketinn/internal/service"
	"github.com/diagnosis/marketinn/pkg/auth"
	"github.com/diagnosis/marketinn/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	authSvc := service.NewAuthService(store.Users(), auth.NewTokenManager("test-secret", "", time.Hour), auth.NewTestHasher())
	_, err := authSvc.EnsureAdmin(context.Background(), service.AdminSeed{Email: "admin@x.io", Password: "admin123"})
	require.NoError(t, err)

	srv := httptest.NewServer(handlers.NewRouter(handlers.Deps{
		Auth:     authSvc,
		Bookings: service.NewBookingService(store.Bookings(), nil),
		Users:    service.NewUserService(store.Users(), authSvc),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func ptr[T any](v T) *T { return &v }

func input(guest string, in, out domain.Date) domain.BookingInput {
	return domain.BookingInput{
		GuestName:    guest,
		RoomID:       ptr(int64(3)),
		CheckInDate:  &in,
		CheckOutDate: &out,
		Price:        ptr(50000.0),
	}
}

func TestClient_BookingLifecycle(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	c, err := client.New(srv.URL + "/")
	require.NoError(t, err)

	_, err = c.List(ctx, client.ListParams{})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	res, err := c.Login(ctx, "admin@x.io", "admin123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, res.User.Role)

	created, err := c.Create(ctx, input("Иван Петров", domain.NewDate(2024, 3, 1), domain.NewDate(2024, 3, 4)))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, created.Status)

	got, err := c.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.GuestName, got.GuestName)
	assert.True(t, created.CheckInDate.Equal(got.CheckInDate))

	updated, err := c.Update(ctx, created.ID, domain.BookingPatch{Price: ptr(60000.0)})
	require.NoError(t, err)
	assert.Equal(t, 60000.0, updated.Price)
	assert.True(t, created.CheckInDate.Equal(updated.CheckInDate))

	list, err := c.List(ctx, client.ListParams{GuestName: "иван", Status: "Confirmed"})
	require.NoError(t, err)
	assert.Equal(t, 1, list.TotalItems)

	require.NoError(t, c.Delete(ctx, created.ID))
	_, err = c.Get(ctx, created.ID)
	assert.True(t, client.IsNotFound(err))
}

func TestClient_ValidationErrorCarriesFields(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	c, err := client.New(srv.URL)
	require.NoError(t, err)
	_, err = c.Login(ctx, "admin@x.io", "admin123")
	require.NoError(t, err)

	day := domain.NewDate(2024, 3, 1)
	_, err = c.Create(ctx, input("A", day, day))

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "INVALID_INPUT", apiErr.Code)
	assert.Contains(t, apiErr.Fields, "checkOutDate")
	assert.Contains(t, apiErr.Error(), "checkOutDate")
}

func TestClient_BadCredentials(t *testing.T) {
	srv := newServer(t)
	c, err := client.New(srv.URL, client.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = c.Login(context.Background(), "admin@x.io", "nope-nope")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid email or password", apiErr.Message)
}

func TestClient_ReusesToken(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	c, err := client.New(srv.URL)
	require.NoError(t, err)
	res, err := c.Login(ctx, "admin@x.io", "admin123")
	require.NoError(t, err)

	other, err := client.New(srv.URL, client.WithToken(res.Token))
	require.NoError(t, err)
	list, err := other.List(ctx, client.ListParams{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalItems)
	assert.NotNil(t, list.Bookings)

	other.SetToken("garbage")
	_, err = other.List(ctx, client.ListParams{})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
