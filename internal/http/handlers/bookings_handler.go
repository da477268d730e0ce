package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/diagnosis/marketinn/internal/domain"
	"github.com/diagnosis/marketinn/internal/http/middleware"
	"github.com/diagnosis/marketinn/internal/http/response"
	"github.com/diagnosis/marketinn/internal/repo"
	"github.com/go-chi/chi/v5"
)

type BookingService interface {
	List(ctx context.Context, f repo.BookingFilter, p repo.Page) (repo.BookingPage, error)
	Get(ctx context.Context, id int64) (*domain.Booking, error)
	Create(ctx context.Context, in domain.BookingInput, creator *domain.User) (*domain.Booking, error)
	Update(ctx context.Context, id int64, patch domain.BookingPatch, actor *domain.User) (*domain.Booking, error)
	Delete(ctx context.Context, id int64, actor *domain.User) error
}

type BookingsHandler struct {
	Bookings BookingService
	// CreateMiddleware wraps POST / only, e.g. idempotency replay.
	CreateMiddleware []func(http.Handler) http.Handler
}

func NewBookingsHandler(svc BookingService, createMW ...func(http.Handler) http.Handler) *BookingsHandler {
	return &BookingsHandler{Bookings: svc, CreateMiddleware: createMW}
}

// Routes expects authentication to be enforced by the parent router.
func (h *BookingsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.With(h.CreateMiddleware...).Post("/", h.create)
	r.Get("/{id}", h.getByID)
	r.Put("/{id}", h.update)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	return r
}

func (h *BookingsHandler) list(w http.ResponseWriter, r *http.Request) {
	f, p, err := parseListQuery(r.URL.Query())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	page, err := h.Bookings.List(r.Context(), f, p)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, page)
}

func (h *BookingsHandler) getByID(w http.ResponseWriter, r *http.Request) {
	id, err := bookingIDParam(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	b, err := h.Bookings.Get(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, b)
}

func (h *BookingsHandler) create(w http.ResponseWriter, r *http.Request) {
	var in domain.BookingInput
	if err := decodeJSON(w, r, &in); err != nil {
		response.FromError(w, r, err)
		return
	}
	b, err := h.Bookings.Create(r.Context(), in, middleware.CurrentUser(r.Context()))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/bookings/"+strconv.FormatInt(b.ID, 10))
	response.JSON(w, http.StatusCreated, b)
}

func (h *BookingsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := bookingIDParam(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	var patch domain.BookingPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		response.FromError(w, r, err)
		return
	}
	b, err := h.Bookings.Update(r.Context(), id, patch, middleware.CurrentUser(r.Context()))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, b)
}

func (h *BookingsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := bookingIDParam(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	if err := h.Bookings.Delete(r.Context(), id, middleware.CurrentUser(r.Context())); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, messageResponse{Message: "Booking deleted successfully"})
}

// parseListQuery reads page, limit, guestName, status, startDate and endDate.
// startDate and endDate form one inclusive range and must be given together.
func parseListQuery(q url.Values) (repo.BookingFilter, repo.Page, error) {
	var (
		f    repo.BookingFilter
		p    = repo.Page{Number: 0, Size: repo.DefaultPageSize}
		errs = map[string]string{}
	)
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs["page"] = "must be a non-negative integer"
		} else {
			p.Number = n
		}
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errs["limit"] = "must be a positive integer"
		} else {
			p.Size = min(n, repo.MaxPageSize)
		}
	}
	f.GuestName = q.Get("guestName")
	if v := q.Get("status"); v != "" {
		st, ok := domain.ParseBookingStatus(v)
		if !ok {
			errs["status"] = "must be one of: Confirmed Pending Canceled Completed"
		} else {
			f.Status = st
		}
	}
	for _, name := range []string{"startDate", "endDate"} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		d, err := domain.ParseDate(v)
		if err != nil {
			errs[name] = "must be a date (YYYY-MM-DD)"
			continue
		}
		if name == "startDate" {
			f.StartDate = &d
		} else {
			f.EndDate = &d
		}
	}
	if (f.StartDate == nil) != (f.EndDate == nil) {
		if _, bad := errs["startDate"]; !bad {
			if _, bad := errs["endDate"]; !bad {
				errs["startDate"] = "startDate and endDate must be given together"
			}
		}
	}
	if f.HasDateRange() && f.StartDate.After(*f.EndDate) {
		errs["endDate"] = "must not be before startDate"
	}
	if len(errs) > 0 {
		return f, p, &domain.ValidationError{Fields: errs}
	}
	return f, p, nil
}
