package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/minilms-backend/internal/config"
	"github.com/stemsi/minilms-backend/internal/handler"
	"github.com/stemsi/minilms-backend/internal/middleware"
	"github.com/stemsi/minilms-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Parent       *handler.ParentHandler
	Student      *handler.StudentHandler
	Class        *handler.ClassHandler
	Subscription *handler.SubscriptionHandler
	Dashboard    *handler.DashboardHandler
	Health       *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background work owned by the middlewares.
func SetupRouter(ctx context.Context, handlers *Handlers, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(
		response.RequestIDMiddleware(),
		middleware.RequestLogger(log),
		middleware.Brotli(),
	)

	if cfg.RateLimitPerMinute > 0 {
		router.Use(middleware.NewRateLimiter(ctx, cfg.RateLimitPerMinute).Middleware())
	}

	router.GET("/health", handlers.Health.Health)

	api := router.Group("/api")
	api.Use(middleware.NoStore(), middleware.Timeout(cfg.RequestTimeout))

	// ─── Parents ───────────────────────────────────────────────────────
	parents := api.Group("/parents")
	{
		collection(parents, "GET", handlers.Parent.ListParents)
		collection(parents, "POST", handlers.Parent.CreateParent)
		parents.GET("/:id", handlers.Parent.GetParent)
		parents.PUT("/:id", handlers.Parent.UpdateParent)
		parents.DELETE("/:id", handlers.Parent.DeleteParent)
	}

	// ─── Students ──────────────────────────────────────────────────────
	students := api.Group("/students")
	{
		collection(students, "GET", handlers.Student.ListStudents)
		collection(students, "POST", handlers.Student.CreateStudent)
		students.GET("/:id", handlers.Student.GetStudent)
		students.PUT("/:id", handlers.Student.UpdateStudent)
		students.DELETE("/:id", handlers.Student.DeleteStudent)
		students.GET("/:id/classes", handlers.Student.ListStudentClasses)
	}

	// ─── Classes & registrations ───────────────────────────────────────
	classes := api.Group("/classes")
	{
		collection(classes, "GET", handlers.Class.ListClasses)
		collection(classes, "POST", handlers.Class.CreateClass)
		classes.GET("/schedule", handlers.Class.GetSchedule)
		classes.GET("/:id", handlers.Class.GetClass)
		classes.PUT("/:id", handlers.Class.UpdateClass)
		classes.DELETE("/:id", handlers.Class.DeleteClass)
		classes.POST("/:id/register", handlers.Class.RegisterStudent)
		classes.DELETE("/:id/unregister/:student_id", handlers.Class.UnregisterStudent)
		classes.GET("/:id/students", handlers.Class.ListClassStudents)
	}

	// ─── Subscriptions ─────────────────────────────────────────────────
	subscriptions := api.Group("/subscriptions")
	{
		collection(subscriptions, "GET", handlers.Subscription.ListSubscriptions)
		collection(subscriptions, "POST", handlers.Subscription.CreateSubscription)
		subscriptions.GET("/student/:id", handlers.Subscription.ListStudentSubscriptions)
		subscriptions.GET("/:id", handlers.Subscription.GetSubscription)
		subscriptions.PUT("/:id", handlers.Subscription.UpdateSubscription)
		subscriptions.DELETE("/:id", handlers.Subscription.DeleteSubscription)
		subscriptions.PATCH("/:id/use-session", handlers.Subscription.UseSession)
	}

	// ─── Dashboard ─────────────────────────────────────────────────────
	api.GET("/dashboard/stats", handlers.Dashboard.GetStats)

	return router
}

// collection registers h on both the bare and the trailing-slash form of the
// group path.
func collection(g *gin.RouterGroup, method string, h gin.HandlerFunc) {
	g.Handle(method, "", h)
	g.Handle(method, "/", h)
}
