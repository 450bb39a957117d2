package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/yuta/recipe-box/internal/api/handlers"
	"github.com/yuta/recipe-box/internal/api/middleware"
	"github.com/yuta/recipe-box/internal/auth"
	"github.com/yuta/recipe-box/internal/database/models"
	"github.com/yuta/recipe-box/internal/storage"
	"github.com/yuta/recipe-box/pkg/config"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	TokenStore     *auth.TokenStore
	AuthService    *auth.Service
	Images         storage.ImageStore
	Frontend       config.FrontendConfig
	AllowedOrigins []string
	RateLimitReqs  int
	RateLimitSecs  int
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Rate limiting - applied globally to prevent abuse
	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Content-Type",
			middleware.HeaderAccessToken, middleware.HeaderClient, middleware.HeaderUID,
		},
		ExposedHeaders: []string{
			middleware.HeaderAccessToken, middleware.HeaderClient, middleware.HeaderUID,
			middleware.HeaderExpiry, middleware.HeaderTokenType,
		},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService, cfg.TokenStore)
	confirmationsHandler := handlers.NewConfirmationsHandler(cfg.AuthService, cfg.Frontend.ConfirmationURL)
	passwordsHandler := handlers.NewPasswordsHandler(cfg.AuthService, cfg.Frontend.PasswordResetURL)
	guestHandler := handlers.NewGuestHandler(cfg.AuthService, cfg.TokenStore)
	usersHandler := handlers.NewUsersHandler(cfg.DB, cfg.Images)
	recipesHandler := handlers.NewRecipesHandler(cfg.DB)
	videosHandler := handlers.NewVideosHandler(cfg.DB)

	// Health endpoints (no auth required)
	r.Get("/healthcheck", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		// Account endpoints that manage their own authentication. Sign-out
		// and withdrawal answer 404 rather than 401 on a bad session, so
		// they sit outside the Auth middleware.
		r.Route("/auth", func(r chi.Router) {
			r.Post("/", authHandler.SignUp)
			r.Delete("/", authHandler.Withdraw)
			r.Post("/sign_in", authHandler.SignIn)
			r.Delete("/sign_out", authHandler.SignOut)

			r.Get("/confirmation", confirmationsHandler.Confirm)
			r.Post("/confirmation", confirmationsHandler.Resend)

			r.Post("/password", passwordsHandler.Create)
			r.Get("/password/edit", passwordsHandler.Edit)
			r.Put("/password", passwordsHandler.Update)

			r.Post("/guest_user", guestHandler.Create)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.TokenStore))
				r.Use(middleware.RequireRole(models.RoleGuest))
				r.Delete("/guest_user", guestHandler.Destroy)
			})
		})

		// Protected resource routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.TokenStore))
			if cfg.RateLimitReqs > 0 {
				r.Use(middleware.RateLimitByUser(cfg.RateLimitReqs, cfg.RateLimitSecs))
			}

			r.Route("/users/{user_id}", func(r chi.Router) {
				r.Get("/", usersHandler.Show)
				r.Put("/", usersHandler.Update)
				r.Delete("/profile_image", usersHandler.DeleteProfileImage)

				r.Route("/recipes", func(r chi.Router) {
					r.Get("/", recipesHandler.List)
					r.Post("/", recipesHandler.Create)
					r.Get("/{id}", recipesHandler.Show)
					r.Put("/{id}", recipesHandler.Update)
					r.Delete("/{id}", recipesHandler.Destroy)
				})
			})

			r.Put("/videos/{id}", videosHandler.Update)
		})
	})

	return &Router{r}
}
