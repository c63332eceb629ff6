package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prodtrack-platform/tracking-service/internal/application"
	"github.com/prodtrack-platform/tracking-service/pkg/logging"
	"github.com/prodtrack-platform/tracking-service/pkg/middleware"
)

// WorkflowHandlers contains handlers for workflow definition operations
type WorkflowHandlers struct {
	service WorkflowService
	logger  *logging.Logger
}

// NewWorkflowHandlers creates a new WorkflowHandlers
func NewWorkflowHandlers(service WorkflowService, logger *logging.Logger) *WorkflowHandlers {
	return &WorkflowHandlers{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers workflow routes on the router
func (h *WorkflowHandlers) RegisterRoutes(router *gin.RouterGroup) {
	workflows := router.Group("/workflows")
	{
		workflows.POST("", h.CreateWorkflow)
		workflows.GET("", h.ListWorkflows)
		workflows.GET("/:workflowId", h.GetWorkflow)
		workflows.PUT("/:workflowId", h.UpdateWorkflow)
		workflows.DELETE("/:workflowId", h.DeleteWorkflow)
		workflows.POST("/:workflowId/archive", h.ArchiveWorkflow)
	}
}

type workflowRequest struct {
	Name        string                   `json:"name" binding:"required"`
	Description string                   `json:"description"`
	Stages      []application.StageInput `json:"stages" binding:"required,min=1"`
}

// CreateWorkflow handles creating a workflow definition
func (h *WorkflowHandlers) CreateWorkflow(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		WorkflowID string `json:"workflowId" binding:"required"`
		workflowRequest
	}
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"workflow.id": req.WorkflowID,
	})

	cmd := application.CreateWorkflowCommand{
		WorkflowID:  req.WorkflowID,
		Name:        req.Name,
		Description: req.Description,
		Stages:      req.Stages,
	}

	workflow, err := h.service.CreateWorkflow(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusCreated, workflow)
}

// GetWorkflow handles getting a workflow by ID
func (h *WorkflowHandlers) GetWorkflow(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	workflowID := c.Param("workflowId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"workflow.id": workflowID,
	})

	workflow, err := h.service.GetWorkflow(c.Request.Context(), application.GetWorkflowQuery{WorkflowID: workflowID})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, workflow)
}

// ListWorkflows handles listing workflow definitions
func (h *WorkflowHandlers) ListWorkflows(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	query := application.ListWorkflowsQuery{
		IncludeArchived: c.Query("includeArchived") == "true",
	}

	workflows, err := h.service.ListWorkflows(c.Request.Context(), query)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"workflows": workflows, "count": len(workflows)})
}

// UpdateWorkflow handles replacing a workflow definition
func (h *WorkflowHandlers) UpdateWorkflow(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	workflowID := c.Param("workflowId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"workflow.id": workflowID,
	})

	var req workflowRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	cmd := application.UpdateWorkflowCommand{
		WorkflowID:  workflowID,
		Name:        req.Name,
		Description: req.Description,
		Stages:      req.Stages,
	}

	workflow, err := h.service.UpdateWorkflow(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, workflow)
}

// DeleteWorkflow handles tombstoning a workflow definition
func (h *WorkflowHandlers) DeleteWorkflow(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	workflowID := c.Param("workflowId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"workflow.id": workflowID,
	})

	if err := h.service.DeleteWorkflow(c.Request.Context(), application.DeleteWorkflowCommand{WorkflowID: workflowID}); err != nil {
		responder.RespondWithError(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ArchiveWorkflow handles archiving a workflow definition
func (h *WorkflowHandlers) ArchiveWorkflow(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	workflowID := c.Param("workflowId")

	workflow, err := h.service.ArchiveWorkflow(c.Request.Context(), application.ArchiveWorkflowCommand{WorkflowID: workflowID})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, workflow)
}
