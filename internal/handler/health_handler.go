package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/minilms-backend/internal/response"
)

const healthTimeout = 2 * time.Second

// Pinger is satisfied by *pgxpool.Pool and *memory.DB.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the storage backends are reachable.
type HealthHandler struct {
	store     Pinger
	rdb       *redis.Client
	startTime time.Time
	log       zerolog.Logger
}

// NewHealthHandler creates a new HealthHandler. rdb may be nil.
func NewHealthHandler(store Pinger, rdb *redis.Client, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		store:     store,
		rdb:       rdb,
		startTime: time.Now(),
		log:       log.With().Str("component", "health_handler").Logger(),
	}
}

type healthStatus struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Uptime    string            `json:"uptime"`
	GoVersion string            `json:"go_version"`
}

// Health godoc
// GET /health
// Returns 200 when every backend answers a ping, 503 otherwise.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := healthStatus{
		Status:    "ok",
		Checks:    map[string]string{"storage": "ok"},
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		GoVersion: runtime.Version(),
	}

	if err := h.store.Ping(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Storage ping failed")
		status.Status = "degraded"
		status.Checks["storage"] = err.Error()
	}
	if h.rdb != nil {
		status.Checks["redis"] = "ok"
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			h.log.Warn().Err(err).Msg("Redis ping failed")
			status.Status = "degraded"
			status.Checks["redis"] = err.Error()
		}
	}

	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	response.Success(c, code, status)
}
