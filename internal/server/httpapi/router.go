package httpapi

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/foodable/internal/apperr"
	"github.com/dmitrijs2005/foodable/internal/server/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes builds the router with the full middleware chain.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(s.recoverer)
	r.Use(s.securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"Authorization", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	r.Use(middleware.Compress(5))
	r.Use(middleware.RequestSize(maxBodyBytes))
	r.Use(s.requestLogger)
	if s.cfg.MetricsEnabled {
		r.Use(instrument)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.WriteError(w, r, apperr.NotFound(fmt.Sprintf("Route %s not found", r.URL.Path)))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.WriteError(w, r, apperr.New(http.StatusMethodNotAllowed,
			fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path)))
	})

	r.Get("/", s.handleRoot)
	if s.cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/"+s.cfg.APIVersion, func(r chi.Router) {
		r.Use(s.apiLimiter())
		r.Use(s.requireJSON)
		r.Use(s.sanitizeBody)

		r.Get("/health", s.handleHealth)
		r.Get("/health/detailed", s.handleHealthDetailed)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(s.authFailureLimiter().Handler)
				r.Post("/register", s.handleRegister)
				r.Post("/login", s.handleLogin)
			})
			r.Post("/refresh", s.handleRefresh)

			r.Group(func(r chi.Router) {
				r.Use(s.authenticate)
				r.Post("/logout", s.handleLogout)
				r.Get("/profile", s.handleProfile)
				r.Post("/change-password", s.handleChangePassword)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/", s.handleListUsers)
			r.Get("/email", s.handleUserByEmail)
			r.Put("/profile", s.handleUpdateProfile)
			r.Delete("/account", s.handleDeleteAccount)
			r.Get("/{id}", s.handleUserByID)
		})

		r.Route("/donations", func(r chi.Router) {
			r.Get("/", s.handleListDonations)
			r.Get("/{id}", s.handleGetDonation)

			r.Group(func(r chi.Router) {
				r.Use(s.authenticate)
				r.Post("/", s.handleCreateDonation)
				r.Get("/my-donations", s.handleMyDonations)
				r.Post("/image-upload-url", s.handleImageUploadURL)
				r.Put("/{id}", s.handleUpdateDonation)
				r.Delete("/{id}", s.handleDeleteDonation)
			})
		})
	})

	return r
}

func (s *Server) apiLimiter() func(http.Handler) http.Handler {
	counter := s.apiCounter
	if counter == nil {
		counter = ratelimit.NewMemoryCounter(s.cfg.RateLimit.Window)
	}
	return httprate.Limit(
		s.cfg.RateLimit.MaxRequests,
		s.cfg.RateLimit.Window,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitCounter(counter),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			s.WriteError(w, r, apperr.New(http.StatusTooManyRequests, MsgTooManyRequests))
		}),
	)
}

func (s *Server) authFailureLimiter() *ratelimit.FailureLimiter {
	counter := s.authCounter
	if counter == nil {
		counter = ratelimit.NewMemoryCounter(s.cfg.RateLimit.AuthWindow)
	}
	return ratelimit.NewFailureLimiter(
		s.cfg.RateLimit.AuthMax,
		s.cfg.RateLimit.AuthWindow,
		counter,
		func(w http.ResponseWriter, r *http.Request) {
			s.WriteError(w, r, apperr.New(http.StatusTooManyRequests, MsgTooManyAuth))
		},
		s.logger,
	)
}
