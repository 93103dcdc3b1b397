package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	firebaseadmin "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/psgtech-fest/fest-api/api/swagger"
	"github.com/psgtech-fest/fest-api/internal/handler"
	"github.com/psgtech-fest/fest-api/internal/identity"
	internalmiddleware "github.com/psgtech-fest/fest-api/internal/middleware"
	"github.com/psgtech-fest/fest-api/internal/models"
	"github.com/psgtech-fest/fest-api/internal/repository"
	"github.com/psgtech-fest/fest-api/internal/service"
	"github.com/psgtech-fest/fest-api/pkg/cache"
	"github.com/psgtech-fest/fest-api/pkg/config"
	"github.com/psgtech-fest/fest-api/pkg/database"
	"github.com/psgtech-fest/fest-api/pkg/export"
	"github.com/psgtech-fest/fest-api/pkg/firebase"
	"github.com/psgtech-fest/fest-api/pkg/logger"
	corsmiddleware "github.com/psgtech-fest/fest-api/pkg/middleware/cors"
	"github.com/psgtech-fest/fest-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/psgtech-fest/fest-api/pkg/middleware/requestid"
)

// @title Fest Registration API
// @version 1.0.0
// @description Registration, attendance and administration backend for the college tech festival.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type stores struct {
	registrations service.RegistrationStore
	users         service.ProfileStore
	mail          service.MailStore
	checks        map[string]handler.ReadinessCheck
	closers       []func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	location, err := time.LoadLocation(cfg.Institution.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Institution.Timezone, err)
	}

	events, err := repository.LoadEventCatalogFile(cfg.Events.File)
	if err != nil {
		return err
	}

	app, err := firebase.NewApp(ctx, cfg.Firebase)
	if err != nil {
		return err
	}
	authClient, err := firebase.NewAuth(ctx, app)
	if err != nil {
		return err
	}

	st, err := openStores(ctx, cfg, app)
	if err != nil {
		return err
	}
	defer func() {
		for _, closeFn := range st.closers {
			if err := closeFn(); err != nil {
				logr.Warn("close store", zap.Error(err))
			}
		}
	}()

	metricsSvc := service.NewMetricsService()
	cacheSvc := openCache(ctx, cfg, metricsSvc, logr, st)

	validate := service.NewValidator()
	parser := identity.NewParser(cfg.Institution.EmailDomain, nil)
	roles := identity.NewRoleConfig(cfg.Roles)

	notifications := service.NewNotificationService(st.mail, service.NotificationConfig{
		Workers:    cfg.Notifications.Workers,
		Retries:    cfg.Notifications.Retries,
		RetryDelay: cfg.Notifications.RetryDelay,
		From:       cfg.Notifications.From,
	}, metricsSvc, logr)
	notifications.Start(context.Background())
	defer notifications.Stop()

	authSvc := service.NewAuthService(firebase.NewTokenVerifier(authClient), st.users, parser, roles, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	profileSvc := service.NewProfileService(st.users, validate, logr)
	registrationSvc := service.NewRegistrationService(st.registrations, st.users, events, notifications, cacheSvc, metricsSvc, logr)
	adminSvc := service.NewAdminService(st.registrations, st.users, events, notifications, cacheSvc, metricsSvc, validate, logr, service.AdminConfig{
		Location: location,
		StatsTTL: cfg.Stats.CacheTTL,
	})
	exportSvc := service.NewExportService(adminSvc, location, logr, export.NewCSVExporter(), export.NewPDFExporter())

	authHandler := handler.NewAuthHandler(authSvc)
	profileHandler := handler.NewProfileHandler(profileSvc, registrationSvc)
	eventHandler := handler.NewEventHandler(registrationSvc)
	adminHandler := handler.NewAdminHandler(adminSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, st.checks)

	limiter := ratelimit.New(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/sign-in", limiter.Middleware(), authHandler.SignIn)
	api.GET("/events", eventHandler.List)
	api.GET("/events/:id", eventHandler.Get)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))
	secured.GET("/me", profileHandler.Me)
	secured.PUT("/me/profile", profileHandler.UpdateProfile)
	secured.GET("/me/registrations", profileHandler.MyRegistrations)
	secured.POST("/events/:id/register", limiter.Middleware(), eventHandler.Register)

	admin := secured.Group("/admin")
	admin.Use(internalmiddleware.RequireCoordinator())
	admin.GET("/stats", adminHandler.Stats)
	admin.GET("/participants", adminHandler.Participants)
	admin.GET("/participants/export", adminHandler.ExportParticipants)
	admin.GET("/events/:id/registrations", adminHandler.EventRegistrations)
	admin.GET("/events/:id/registrations/export", adminHandler.ExportEventRegistrations)
	admin.PATCH("/events/:id/registrations/:userId/attendance", adminHandler.ToggleAttendance)
	admin.POST("/events/:id/attendance", adminHandler.BulkAttendance)
	admin.DELETE("/events/:id/registrations/:userId", adminHandler.RemoveRegistration)

	adminOnly := admin.Group("")
	adminOnly.Use(internalmiddleware.RequireRoles(models.RoleAdmin))
	adminOnly.POST("/events/:id/registrations", adminHandler.AddRegistration)
	adminOnly.PATCH("/users/:roll", adminHandler.UpdateUser)
	adminOnly.DELETE("/users/:roll", adminHandler.DeleteUser)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg *config.Config, app *firebaseadmin.App) (*stores, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &stores{
			registrations: repository.NewRegistrationRepository(db),
			users:         repository.NewUserRepository(db),
			mail:          repository.NewMailRepository(db),
			checks:        map[string]handler.ReadinessCheck{"postgres": db.PingContext},
			closers:       []func() error{db.Close},
		}, nil
	case config.StoreDriverFirestore:
		client, err := firebase.NewFirestore(ctx, app)
		if err != nil {
			return nil, err
		}
		registrations := repository.NewFirestoreRegistrationRepository(client)
		return &stores{
			registrations: registrations,
			users:         repository.NewFirestoreUserRepository(client),
			mail:          repository.NewFirestoreMailRepository(client),
			checks:        map[string]handler.ReadinessCheck{"firestore": registrations.Ping},
			closers:       []func() error{client.Close},
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// openCache connects Redis for the stats cache. A failed connection disables
// caching rather than the server.
func openCache(ctx context.Context, cfg *config.Config, metricsSvc *service.MetricsService, logr *zap.Logger, st *stores) *service.CacheService {
	if !cfg.Stats.CacheEnabled {
		return service.NewCacheService(nil, metricsSvc, cfg.Stats.CacheTTL, logr, false)
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, stats cache disabled", zap.Error(err))
		return service.NewCacheService(nil, metricsSvc, cfg.Stats.CacheTTL, logr, false)
	}
	st.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	repo := repository.NewCacheRepository(client, "fest:", logr)
	st.closers = append(st.closers, repo.Close)
	return service.NewCacheService(repo, metricsSvc, cfg.Stats.CacheTTL, logr, true)
}
