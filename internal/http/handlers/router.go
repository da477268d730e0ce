package handlers

import (
	"net/http"

	"github.com/diagnosis/marketinn/internal/domain"
	"github.com/diagnosis/marketinn/internal/http/middleware"
	mw "github.com/diagnosis/marketinn/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	Auth     AuthService
	Bookings BookingService
	Users    UserService

	// Optional. Nil disables the feature.
	Health      mw.Pinger
	LoginLimit  middleware.Counter
	Idempotency mw.IdempotencyStore

	LoginRateConfig middleware.RateLimitConfig
	CORSOrigins     []string
	ServiceName     string
}

func NewRouter(d Deps) http.Handler {
	if d.ServiceName == "" {
		d.ServiceName = "marketinn-api"
	}

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName(d.ServiceName))
	r.Use(mw.Logging)
	r.Use(chimw.Recoverer)
	r.Use(mw.CORS(d.CORSOrigins))
	r.Use(mw.Metrics)

	r.Get("/healthz", mw.Health(d.Health))
	r.Handle("/metrics", promhttp.Handler())

	var loginLimiter func(http.Handler) http.Handler
	if d.LoginLimit != nil {
		loginLimiter = middleware.NewRateLimiter(d.LoginLimit, d.LoginRateConfig).Middleware()
	}
	var createMW []func(http.Handler) http.Handler
	if d.Idempotency != nil {
		createMW = append(createMW, mw.IdempotencyMiddleware(d.Idempotency))
	}

	r.Route("/api", func(r chi.Router) {
		r.Mount("/auth", NewAuthHandler(d.Auth, loginLimiter).Routes())

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(d.Auth))
			r.Mount("/bookings", NewBookingsHandler(d.Bookings, createMW...).Routes())
			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))
				r.Mount("/", NewUsersHandler(d.Users).Routes())
			})
		})
	})

	return r
}
