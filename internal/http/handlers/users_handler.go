package handlers

import (
	"context"
	"net/http"

	"github.com/diagnosis/marketinn/internal/domain"
	"github.com/diagnosis/marketinn/internal/http/middleware"
	"github.com/diagnosis/marketinn/internal/http/response"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type UserService interface {
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Create(ctx context.Context, req domain.RegisterRequest, caller *domain.User) (*domain.User, error)
	Update(ctx context.Context, id uuid.UUID, upd domain.UserUpdate, caller *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id uuid.UUID, caller *domain.User) error
}

// UsersHandler is admin-only; the parent router applies RequireAuth and
// RequireRole(admin).
type UsersHandler struct {
	Users UserService
}

func NewUsersHandler(svc UserService) *UsersHandler {
	return &UsersHandler{Users: svc}
}

func (h *UsersHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.getByID)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	return r
}

type usersResponse struct {
	Users []domain.User `json:"users"`
}

func (h *UsersHandler) list(w http.ResponseWriter, r *http.Request) {
	us, err := h.Users.List(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, usersResponse{Users: us})
}

func (h *UsersHandler) getByID(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	u, err := h.Users.Get(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, userResponse{User: u})
}

func (h *UsersHandler) create(w http.ResponseWriter, r *http.Request) {
	var in domain.RegisterRequest
	if err := decodeJSON(w, r, &in); err != nil {
		response.FromError(w, r, err)
		return
	}
	u, err := h.Users.Create(r.Context(), in, middleware.CurrentUser(r.Context()))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, userResponse{Message: "User created successfully", User: u})
}

func (h *UsersHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	var in domain.UserUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		response.FromError(w, r, err)
		return
	}
	u, err := h.Users.Update(r.Context(), id, in, middleware.CurrentUser(r.Context()))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, userResponse{Message: "User updated successfully", User: u})
}

func (h *UsersHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	if err := h.Users.Delete(r.Context(), id, middleware.CurrentUser(r.Context())); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, messageResponse{Message: "User deleted successfully"})
}
