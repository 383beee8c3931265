package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Maulana-anjari/account-service/internal/health"
	"github.com/Maulana-anjari/account-service/internal/http/handler"
	"github.com/Maulana-anjari/account-service/internal/http/middleware"
	"github.com/Maulana-anjari/account-service/internal/http/response"
)

type Dependencies struct {
	UserHandler       *handler.UserHandler
	CORSOrigins       []string
	AuthRateLimitRPM  int
	ResetRateLimitRPM int
	APIRateLimitRPM   int
	GlobalRateLimiter GlobalRateLimiterFunc
	AuthRateLimiter   AuthRateLimiterFunc
	ResetRateLimiter  ResetRateLimiterFunc
	Readiness         *health.ProbeRunner
	EnableOTelHTTP    bool
}

type GlobalRateLimiterFunc func(http.Handler) http.Handler
type AuthRateLimiterFunc func(http.Handler) http.Handler
type ResetRateLimiterFunc func(http.Handler) http.Handler

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))
	if dep.GlobalRateLimiter != nil {
		r.Use(dep.GlobalRateLimiter)
	} else {
		r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute).Middleware())
	}

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute).Middleware()
	}
	resetLimiter := dep.ResetRateLimiter
	if resetLimiter == nil {
		resetLimiter = middleware.NewRateLimiter(dep.ResetRateLimitRPM, time.Minute).Middleware()
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.JSON(w, r, http.StatusServiceUnavailable, map[string]any{"status": "unready", "checks": results})
	})

	r.Route("/user", func(r chi.Router) {
		r.With(authLimiter).Post("/signup", dep.UserHandler.Signup)
		r.With(authLimiter).Post("/signin", dep.UserHandler.Signin)
		r.Get("/verify/{userId}/{token}", dep.UserHandler.Verify)
		r.Get("/verified", dep.UserHandler.VerifiedPage)
		r.With(resetLimiter).Post("/requestPasswordReset", dep.UserHandler.RequestPasswordReset)
		r.With(authLimiter).Post("/resetPassword", dep.UserHandler.ResetPassword)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
