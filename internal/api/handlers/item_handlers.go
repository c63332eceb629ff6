package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prodtrack-platform/tracking-service/internal/application"
	"github.com/prodtrack-platform/tracking-service/internal/domain"
	"github.com/prodtrack-platform/tracking-service/pkg/logging"
	"github.com/prodtrack-platform/tracking-service/pkg/middleware"
)

// ItemHandlers contains handlers for item tracking operations
type ItemHandlers struct {
	service ItemService
	logger  *logging.Logger
}

// NewItemHandlers creates a new ItemHandlers
func NewItemHandlers(service ItemService, logger *logging.Logger) *ItemHandlers {
	return &ItemHandlers{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers item routes on the router
func (h *ItemHandlers) RegisterRoutes(router *gin.RouterGroup) {
	items := router.Group("/items")
	{
		items.POST("", h.CreateItem)
		items.GET("", h.ListItems)
		items.GET("/:itemId", h.GetItem)
		items.POST("/:itemId/advance", h.AdvanceItem)
		items.POST("/:itemId/move", h.MoveItem)
		items.POST("/:itemId/pause", h.PauseItem)
		items.POST("/:itemId/resume", h.ResumeItem)
		items.GET("/:itemId/movements", h.GetItemMovements)
	}

	router.GET("/movements/recent", h.ListRecentMovements)
	router.POST("/scan/resolve", h.ResolveScan)
}

// CreateItem handles registering a new item into a workflow
func (h *ItemHandlers) CreateItem(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		ItemID     string            `json:"itemId" binding:"required,item_id"`
		WorkflowID string            `json:"workflowId" binding:"required"`
		ActorID    string            `json:"actorId" binding:"required"`
		Metadata   map[string]string `json:"metadata"`
	}
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"item.id":     req.ItemID,
		"workflow.id": req.WorkflowID,
	})

	cmd := application.CreateItemCommand{
		ItemID:     req.ItemID,
		WorkflowID: req.WorkflowID,
		ActorID:    req.ActorID,
		Metadata:   req.Metadata,
	}

	item, err := h.service.CreateItem(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// GetItem handles getting an item by ID
func (h *ItemHandlers) GetItem(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	itemID := c.Param("itemId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"item.id": itemID,
	})

	item, err := h.service.GetItem(c.Request.Context(), application.GetItemQuery{ItemID: itemID})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// ListItems handles listing items with optional status and workflow filters
func (h *ItemHandlers) ListItems(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	query := application.ListItemsQuery{
		Status:     c.Query("status"),
		WorkflowID: c.Query("workflowId"),
		Limit:      parseLimit(c, 0),
	}

	items, err := h.service.ListItems(c.Request.Context(), query)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// AdvanceItem handles moving an item to its next workflow stage
func (h *ItemHandlers) AdvanceItem(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	itemID := c.Param("itemId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"item.id": itemID,
	})

	var req struct {
		ActorID          string                   `json:"actorId" binding:"required"`
		TargetStageID    string                   `json:"targetStageId"`
		CompletedActions []domain.CompletedAction `json:"completedActions"`
		Notes            string                   `json:"notes"`
	}
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	cmd := application.AdvanceItemCommand{
		ItemID:           itemID,
		ActorID:          req.ActorID,
		TargetStageID:    req.TargetStageID,
		CompletedActions: req.CompletedActions,
		Notes:            req.Notes,
	}

	result, err := h.service.AdvanceItem(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// MoveItem handles relocating an item to a physical location
func (h *ItemHandlers) MoveItem(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	itemID := c.Param("itemId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"item.id": itemID,
	})

	var req struct {
		LocationID string `json:"locationId" binding:"required,location_id"`
		MovedBy    string `json:"movedBy" binding:"required"`
		Notes      string `json:"notes"`
	}
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	cmd := application.MoveItemCommand{
		ItemID:     itemID,
		LocationID: req.LocationID,
		MovedBy:    req.MovedBy,
		Notes:      req.Notes,
	}

	movement, err := h.service.MoveItemToLocation(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, movement)
}

// PauseItem handles suspending tracking for an item
func (h *ItemHandlers) PauseItem(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	itemID := c.Param("itemId")

	var req struct {
		ActorID string `json:"actorId" binding:"required"`
		Reason  string `json:"reason"`
	}
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	item, err := h.service.PauseItem(c.Request.Context(), application.PauseItemCommand{
		ItemID:  itemID,
		ActorID: req.ActorID,
		Reason:  req.Reason,
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// ResumeItem handles resuming a paused item
func (h *ItemHandlers) ResumeItem(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	itemID := c.Param("itemId")

	var req struct {
		ActorID string `json:"actorId" binding:"required"`
	}
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	item, err := h.service.ResumeItem(c.Request.Context(), application.ResumeItemCommand{
		ItemID:  itemID,
		ActorID: req.ActorID,
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// GetItemMovements handles getting an item's movement history
func (h *ItemHandlers) GetItemMovements(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	query := application.GetItemMovementsQuery{
		ItemID: c.Param("itemId"),
		Limit:  parseLimit(c, 0),
	}

	movements, err := h.service.GetItemMovements(c.Request.Context(), query)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"movements": movements, "count": len(movements)})
}

// ListRecentMovements handles listing the latest movements across all items
func (h *ItemHandlers) ListRecentMovements(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	query := application.ListRecentMovementsQuery{Limit: parseLimit(c, 0)}

	movements, err := h.service.ListRecentMovements(c.Request.Context(), query)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"movements": movements, "count": len(movements)})
}

// ResolveScan handles resolving a scanned QR payload to an item or location
func (h *ItemHandlers) ResolveScan(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		Payload string `json:"payload" binding:"required"`
	}
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	resolution, err := h.service.ResolveScan(c.Request.Context(), application.ResolveScanCommand{Payload: req.Payload})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, resolution)
}

// parseLimit reads the limit query parameter, returning fallback when it is
// absent or not a positive integer.
func parseLimit(c *gin.Context, fallback int64) int64 {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
