package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prodtrack-platform/tracking-service/internal/application"
	"github.com/prodtrack-platform/tracking-service/pkg/logging"
	"github.com/prodtrack-platform/tracking-service/pkg/middleware"
)

// DashboardHandlers contains handlers for the read-only dashboard queries
type DashboardHandlers struct {
	service DashboardQueries
	logger  *logging.Logger
	now     func() time.Time
}

// NewDashboardHandlers creates a new DashboardHandlers
func NewDashboardHandlers(service DashboardQueries, logger *logging.Logger) *DashboardHandlers {
	return &DashboardHandlers{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

// RegisterRoutes registers dashboard routes on the router
func (h *DashboardHandlers) RegisterRoutes(router *gin.RouterGroup) {
	dashboard := router.Group("/dashboard")
	{
		dashboard.GET("/stage-counts/:workflowId", h.StageCounts)
		dashboard.GET("/stuck", h.StuckItems)
		dashboard.GET("/completions", h.CompletionStats)
		dashboard.GET("/locations", h.LocationUtilization)
	}
}

// StageCounts handles per-stage active item counts for a workflow
func (h *DashboardHandlers) StageCounts(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	workflowID := c.Param("workflowId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"workflow.id": workflowID,
	})

	counts, err := h.service.CountsByStage(c.Request.Context(), application.StageCountsQuery{WorkflowID: workflowID})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"workflowId": workflowID, "stages": counts})
}

// StuckItems handles listing items idle in their stage past the threshold
func (h *DashboardHandlers) StuckItems(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	asOf, err := h.parseAsOf(c)
	if err != nil {
		responder.RespondBadRequest("asOf must be an RFC3339 timestamp")
		return
	}

	items, err := h.service.StuckItems(c.Request.Context(), application.StuckItemsQuery{AsOf: asOf})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"asOf": asOf, "items": items, "count": len(items)})
}

// CompletionStats handles completion counts and on-time splits
func (h *DashboardHandlers) CompletionStats(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	asOf, err := h.parseAsOf(c)
	if err != nil {
		responder.RespondBadRequest("asOf must be an RFC3339 timestamp")
		return
	}

	stats, err := h.service.CompletionStats(c.Request.Context(), application.CompletionStatsQuery{AsOf: asOf})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// LocationUtilization handles per-location occupancy reporting
func (h *DashboardHandlers) LocationUtilization(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	utilization, err := h.service.LocationUtilization(c.Request.Context())
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"locations": utilization, "count": len(utilization)})
}

// parseAsOf reads the optional asOf query parameter, defaulting to now
func (h *DashboardHandlers) parseAsOf(c *gin.Context) (time.Time, error) {
	raw := c.Query("asOf")
	if raw == "" {
		return h.now(), nil
	}
	asOf, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return asOf, nil
}
