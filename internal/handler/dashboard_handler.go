package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/minilms-backend/internal/response"
	"github.com/stemsi/minilms-backend/internal/service"
)

// DashboardHandler handles admin dashboard endpoints.
type DashboardHandler struct {
	dashboardService *service.DashboardService
	log              zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		log:              log.With().Str("component", "dashboard_handler").Logger(),
	}
}

// GetStats godoc
// GET /api/dashboard/stats
// Returns the summary stat cards, counted at request time.
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.dashboardService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}
