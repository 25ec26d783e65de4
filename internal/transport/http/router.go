// Package httptransport assembles the HTTP surface: route layout, shared
// middleware and the health endpoints. Domain handlers register themselves;
// this package only decides where they mount and what guards them.
package httptransport

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"resident-manager/internal/admin"
	"resident-manager/internal/auth"
	"resident-manager/internal/jwttoken"
	paymenthandler "resident-manager/internal/payment/handler"
	"resident-manager/internal/ratelimit"
	registrationhandler "resident-manager/internal/registration/handler"
)

// Deps carries everything the router mounts. RegisterLimiter may be nil, in
// which case the intake route runs unthrottled.
type Deps struct {
	Registration *registrationhandler.Handler
	Payment      *paymenthandler.Handler
	Login        *auth.Handler
	AdminAuth    *admin.Service
	Tokens       *jwttoken.Service

	RegisterLimiter ratelimit.Limiter

	DB     *sql.DB
	Logger *slog.Logger
}

// NewRouter wires all endpoints behind their middleware.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", healthz(d.DB))
	r.Handle("/metrics", promhttp.Handler())

	// The gateway calls the notification endpoint outside the API prefix.
	d.Payment.RegisterIPN(r)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(ratelimit.Middleware(d.RegisterLimiter, d.Logger))
			d.Registration.Register(r)
		})

		d.Login.Register(r)
		d.Payment.RegisterFees(r)

		r.Route("/residents", func(r chi.Router) {
			r.Use(auth.RequireResident(d.Tokens))
			d.Payment.RegisterResidentFees(r)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(admin.Require(d.AdminAuth, d.Logger))
			d.Registration.RegisterAdmin(r)
		})
	})

	return r
}

func healthz(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
