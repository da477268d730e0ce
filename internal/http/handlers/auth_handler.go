package handlers

import (
	"context"
	"net/http"

	"github.com/diagnosis/marketinn/internal/domain"
	"github.com/diagnosis/marketinn/internal/http/middleware"
	"github.com/diagnosis/marketinn/internal/http/response"
	"github.com/diagnosis/marketinn/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type AuthService interface {
	middleware.Authenticator
	Login(ctx context.Context, req domain.LoginRequest) (*service.LoginResult, error)
	Register(ctx context.Context, req domain.RegisterRequest, caller *domain.User) (*domain.User, error)
	Profile(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd domain.ProfileUpdate) (*domain.User, error)
}

type AuthHandler struct {
	Auth AuthService
	// LoginLimiter, when set, throttles POST /login.
	LoginLimiter func(http.Handler) http.Handler
}

func NewAuthHandler(svc AuthService, loginLimiter func(http.Handler) http.Handler) *AuthHandler {
	return &AuthHandler{Auth: svc, LoginLimiter: loginLimiter}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	var loginMW []func(http.Handler) http.Handler
	if h.LoginLimiter != nil {
		loginMW = append(loginMW, h.LoginLimiter)
	}
	r.With(loginMW...).Post("/login", h.login)
	r.With(middleware.OptionalAuth(h.Auth)).Post("/register", h.register)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.Auth))
		r.Get("/profile", h.profile)
		r.Put("/profile", h.updateProfile)
	})
	return r
}

type userResponse struct {
	Message string       `json:"message,omitempty"`
	User    *domain.User `json:"user"`
}

type loginResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    *domain.User `json:"user"`
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var in domain.LoginRequest
	if err := decodeJSON(w, r, &in); err != nil {
		response.FromError(w, r, err)
		return
	}
	res, err := h.Auth.Login(r.Context(), in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, loginResponse{Message: "Login successful", Token: res.Token, User: res.User})
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var in domain.RegisterRequest
	if err := decodeJSON(w, r, &in); err != nil {
		response.FromError(w, r, err)
		return
	}
	u, err := h.Auth.Register(r.Context(), in, middleware.CurrentUser(r.Context()))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, userResponse{Message: "User registered successfully", User: u})
}

func (h *AuthHandler) profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.Auth.Profile(r.Context(), middleware.CurrentUser(r.Context()).ID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, userResponse{User: u})
}

func (h *AuthHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in domain.ProfileUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		response.FromError(w, r, err)
		return
	}
	u, err := h.Auth.UpdateProfile(r.Context(), middleware.CurrentUser(r.Context()).ID, in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, userResponse{Message: "Profile updated successfully", User: u})
}
