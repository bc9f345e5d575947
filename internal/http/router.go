package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/contacthub/internal/auth"
	"github.com/geocoder89/contacthub/internal/cache"
	"github.com/geocoder89/contacthub/internal/config"
	"github.com/geocoder89/contacthub/internal/http/handlers"
	"github.com/geocoder89/contacthub/internal/http/middlewares"
	"github.com/geocoder89/contacthub/internal/notifications"
	"github.com/geocoder89/contacthub/internal/observability"
	"github.com/geocoder89/contacthub/internal/redisclient"
	"github.com/geocoder89/contacthub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps carries everything the router wires into handlers. Avatars is the
// only nil-able field outside tests; uploading without it answers 500.
type Deps struct {
	Pool     *pgxpool.Pool
	Redis    *redisclient.Client
	Notifier notifications.Notifier
	Avatars  handlers.AvatarUploader
	Prom     *observability.Prom
	PromReg  *prometheus.Registry
}

func NewRouter(cfg config.Config, log *slog.Logger, deps Deps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(2 << 20))

	if cfg.OTLPEndpoint != "" {
		r.Use(otelgin.Middleware("contacthub"))
	}

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	// health + metrics

	pingDB := func() error {
		if deps.Pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return deps.Pool.Ping(ctx)
	}

	pingRedis := func() error {
		if deps.Redis == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return deps.Redis.Ping(ctx)
	}

	h := handlers.NewHealthHandler(pingDB, pingRedis)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.PromReg != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.PromReg, promhttp.HandlerOpts{})))
	}

	// wire up repositories and services

	usersRepo := postgres.NewUsersRepo(deps.Pool, deps.Prom)
	contactsRepo := postgres.NewContactsRepo(deps.Pool, deps.Prom)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.AccessTTL, cfg.RefreshTTL, cfg.EmailTTL)

	userCache := cache.New(30 * time.Second)

	authMW := middlewares.NewAuthMiddleware(jwtManager, usersRepo, userCache)

	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager, deps.Notifier, userCache, cfg.BaseURL, log)
	contactsHandler := handlers.NewContactsHandler(contactsRepo)
	usersHandler := handlers.NewUsersHandler(usersRepo, deps.Avatars, userCache)

	api := r.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/signup", middlewares.RequireJSON(), authHandler.SignUp)
		authRoutes.POST("/login", authHandler.Login) // form-encoded
		authRoutes.GET("/refresh_token", authHandler.Refresh)
		authRoutes.GET("/confirmed_email/:token", authHandler.ConfirmedEmail)
		authRoutes.POST("/request_email", middlewares.RequireJSON(), authHandler.RequestEmail)
	}

	contacts := api.Group("/contacts", authMW.RequireAuth())
	{
		contacts.POST("/", middlewares.RequireJSON(), contactsHandler.CreateContact)

		listHandlers := []gin.HandlerFunc{contactsHandler.ListContacts}

		if deps.Redis != nil {
			limiter := middlewares.NewRateLimiter(deps.Redis, cfg.RateLimit, cfg.RateWindow, log)
			listHandlers = append([]gin.HandlerFunc{limiter.Middleware(middlewares.KeyByUserOrIP)}, listHandlers...)
		}

		contacts.GET("/", listHandlers...)
		contacts.GET("/birthdays/", contactsHandler.FutureBirthdays)
		contacts.GET("/:id", contactsHandler.GetContactById)
		contacts.PUT("/:id", middlewares.RequireJSON(), contactsHandler.UpdateContact)
		contacts.DELETE("/:id", contactsHandler.DeleteContact)
	}

	users := api.Group("/users", authMW.RequireAuth())
	{
		users.GET("/me", usersHandler.Me)
		users.PATCH("/avatar", usersHandler.UpdateAvatar) // multipart
	}

	return r
}
