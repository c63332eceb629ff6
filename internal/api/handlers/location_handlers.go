package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prodtrack-platform/tracking-service/internal/application"
	"github.com/prodtrack-platform/tracking-service/pkg/logging"
	"github.com/prodtrack-platform/tracking-service/pkg/middleware"
)

// LocationHandlers contains handlers for location operations
type LocationHandlers struct {
	service LocationService
	logger  *logging.Logger
}

// NewLocationHandlers creates a new LocationHandlers
func NewLocationHandlers(service LocationService, logger *logging.Logger) *LocationHandlers {
	return &LocationHandlers{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers location routes on the router
func (h *LocationHandlers) RegisterRoutes(router *gin.RouterGroup) {
	locations := router.Group("/locations")
	{
		locations.POST("", h.CreateLocation)
		locations.GET("", h.ListLocations)
		locations.GET("/:locationId", h.GetLocation)
		locations.GET("/qr/:qrCode", h.GetLocationByQRCode)
		locations.PUT("/:locationId/stage", h.AssignStage)
		locations.DELETE("/:locationId/stage", h.UnassignStage)
	}
}

// CreateLocation handles creating a physical location
func (h *LocationHandlers) CreateLocation(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		LocationID string `json:"locationId" binding:"required,location_id"`
		Name       string `json:"name" binding:"required"`
		Type       string `json:"type" binding:"required,location_type"`
		QRCode     string `json:"qrCode" binding:"required,qr_code"`
		Capacity   *int   `json:"capacity" binding:"omitempty,gt=0"`
	}
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"location.id": req.LocationID,
	})

	cmd := application.CreateLocationCommand{
		LocationID: req.LocationID,
		Name:       req.Name,
		Type:       req.Type,
		QRCode:     req.QRCode,
		Capacity:   req.Capacity,
	}

	location, err := h.service.CreateLocation(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusCreated, location)
}

// GetLocation handles getting a location by ID
func (h *LocationHandlers) GetLocation(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	locationID := c.Param("locationId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"location.id": locationID,
	})

	location, err := h.service.GetLocation(c.Request.Context(), application.GetLocationQuery{LocationID: locationID})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, location)
}

// GetLocationByQRCode handles resolving a location from its QR code
func (h *LocationHandlers) GetLocationByQRCode(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	qrCode := c.Param("qrCode")

	location, err := h.service.GetLocationByQRCode(c.Request.Context(), application.GetLocationByQRCodeQuery{QRCode: qrCode})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, location)
}

// ListLocations handles listing all locations
func (h *LocationHandlers) ListLocations(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	locations, err := h.service.ListLocations(c.Request.Context())
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"locations": locations, "count": len(locations)})
}

// AssignStage handles binding a location to a workflow stage
func (h *LocationHandlers) AssignStage(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	locationID := c.Param("locationId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"location.id": locationID,
	})

	var req struct {
		WorkflowID string `json:"workflowId" binding:"required"`
		StageID    string `json:"stageId" binding:"required"`
	}
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	cmd := application.AssignLocationStageCommand{
		LocationID: locationID,
		WorkflowID: req.WorkflowID,
		StageID:    req.StageID,
	}

	location, err := h.service.AssignStage(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, location)
}

// UnassignStage handles removing a location's stage binding
func (h *LocationHandlers) UnassignStage(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	locationID := c.Param("locationId")

	location, err := h.service.UnassignStage(c.Request.Context(), application.UnassignLocationStageCommand{LocationID: locationID})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, location)
}
