package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/minilms-backend/internal/cache"
	"github.com/stemsi/minilms-backend/internal/config"
	"github.com/stemsi/minilms-backend/internal/database"
	"github.com/stemsi/minilms-backend/internal/handler"
	"github.com/stemsi/minilms-backend/internal/logger"
	"github.com/stemsi/minilms-backend/internal/repository"
	"github.com/stemsi/minilms-backend/internal/repository/memory"
	"github.com/stemsi/minilms-backend/internal/router"
	"github.com/stemsi/minilms-backend/internal/service"
	"github.com/stemsi/minilms-backend/internal/validator"
	"github.com/stemsi/minilms-backend/internal/worker"
)

// stores is the set of repositories behind the services, whichever driver
// provides them.
type stores struct {
	pinger        handler.Pinger
	parents       service.ParentRepository
	students      service.StudentRepository
	classes       service.ClassRepository
	registrations service.RegistrationRepository
	subscriptions service.SubscriptionRepository
	dashboard     service.DashboardRepository
	close         func()
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	if cfg.StorageDriver == config.StorageMemory {
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		db := memory.Open()
		return &stores{
			pinger:        db,
			parents:       memory.NewParentRepository(db),
			students:      memory.NewStudentRepository(db),
			classes:       memory.NewClassRepository(db),
			registrations: memory.NewRegistrationRepository(db),
			subscriptions: memory.NewSubscriptionRepository(db),
			dashboard:     memory.NewDashboardRepository(db),
			close:         func() {},
		}, nil
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &stores{
		pinger:        pool,
		parents:       repository.NewParentRepository(pool),
		students:      repository.NewStudentRepository(pool),
		classes:       repository.NewClassRepository(pool),
		registrations: repository.NewRegistrationRepository(pool),
		subscriptions: repository.NewSubscriptionRepository(pool),
		dashboard:     repository.NewDashboardRepository(pool),
		close:         pool.Close,
	}, nil
}

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("storage", cfg.StorageDriver).
		Str("timezone", cfg.Timezone.String()).
		Msg("Starting Mini LMS Backend")
	if cfg.TimezoneFallback != "" {
		log.Warn().Str("app_timezone", cfg.TimezoneFallback).Msg("Unknown APP_TIMEZONE, dashboard uses UTC")
	}

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Open Storage ──────────────────────────────────────────────────
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer st.close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	var classCache service.ClassListCache = cache.Noop{}
	if rdb != nil {
		defer rdb.Close()
		classCache = cache.NewClassList(rdb, cfg.CacheTTL, log)
	} else {
		log.Info().Msg("REDIS_URL not set, class list cache disabled")
	}

	// ─── Initialize Services ──────────────────────────────────────────
	parentService := service.NewParentService(st.parents, st.students, classCache, log)
	studentService := service.NewStudentService(st.students, st.registrations, classCache, log)
	classService := service.NewClassService(st.classes, classCache, log)
	registrationService := service.NewRegistrationService(st.registrations, classCache, log)
	subscriptionService := service.NewSubscriptionService(st.subscriptions, st.students, log)
	dashboardService := service.NewDashboardService(st.dashboard, cfg.Timezone)

	// ─── Prewarm Redis Cache ──────────────────────────────────────────
	// Load the class list before accepting traffic, then keep it warm at
	// half the TTL so it is refreshed before it expires.
	if rdb != nil {
		warmer := worker.NewCacheWarmer(classService, cfg.CacheTTL/2, log)
		if err := warmer.Warm(ctx); err != nil {
			log.Warn().Err(err).Msg("Cache prewarm failed")
		}
		go warmer.Start(ctx)
	}

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Parent:       handler.NewParentHandler(parentService, log),
		Student:      handler.NewStudentHandler(studentService, log),
		Class:        handler.NewClassHandler(classService, registrationService, log),
		Subscription: handler.NewSubscriptionHandler(subscriptionService, log),
		Dashboard:    handler.NewDashboardHandler(dashboardService, log),
		Health:       handler.NewHealthHandler(st.pinger, rdb, log),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// Stop accepting new HTTP requests and let in-flight ones finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Stop the cache warmer and the rate limiter sweeper.
	cancel()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
