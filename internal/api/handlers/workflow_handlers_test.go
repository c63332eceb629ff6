package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/prodtrack-platform/tracking-service/internal/application"
	"github.com/prodtrack-platform/tracking-service/pkg/errors"
	"github.com/prodtrack-platform/tracking-service/pkg/logging"
	"github.com/prodtrack-platform/tracking-service/pkg/middleware"
)

type mockWorkflowService struct {
	createWorkflowFn  func(ctx context.Context, cmd application.CreateWorkflowCommand) (*application.WorkflowDTO, error)
	getWorkflowFn     func(ctx context.Context, query application.GetWorkflowQuery) (*application.WorkflowDTO, error)
	listWorkflowsFn   func(ctx context.Context, query application.ListWorkflowsQuery) ([]application.WorkflowDTO, error)
	updateWorkflowFn  func(ctx context.Context, cmd application.UpdateWorkflowCommand) (*application.WorkflowDTO, error)
	deleteWorkflowFn  func(ctx context.Context, cmd application.DeleteWorkflowCommand) error
	archiveWorkflowFn func(ctx context.Context, cmd application.ArchiveWorkflowCommand) (*application.WorkflowDTO, error)
}

func (m *mockWorkflowService) CreateWorkflow(ctx context.Context, cmd application.CreateWorkflowCommand) (*application.WorkflowDTO, error) {
	if m.createWorkflowFn == nil {
		panic("CreateWorkflow not implemented")
	}
	return m.createWorkflowFn(ctx, cmd)
}

func (m *mockWorkflowService) GetWorkflow(ctx context.Context, query application.GetWorkflowQuery) (*application.WorkflowDTO, error) {
	if m.getWorkflowFn == nil {
		panic("GetWorkflow not implemented")
	}
	return m.getWorkflowFn(ctx, query)
}

func (m *mockWorkflowService) ListWorkflows(ctx context.Context, query application.ListWorkflowsQuery) ([]application.WorkflowDTO, error) {
	if m.listWorkflowsFn == nil {
		panic("ListWorkflows not implemented")
	}
	return m.listWorkflowsFn(ctx, query)
}

func (m *mockWorkflowService) UpdateWorkflow(ctx context.Context, cmd application.UpdateWorkflowCommand) (*application.WorkflowDTO, error) {
	if m.updateWorkflowFn == nil {
		panic("UpdateWorkflow not implemented")
	}
	return m.updateWorkflowFn(ctx, cmd)
}

func (m *mockWorkflowService) DeleteWorkflow(ctx context.Context, cmd application.DeleteWorkflowCommand) error {
	if m.deleteWorkflowFn == nil {
		panic("DeleteWorkflow not implemented")
	}
	return m.deleteWorkflowFn(ctx, cmd)
}

func (m *mockWorkflowService) ArchiveWorkflow(ctx context.Context, cmd application.ArchiveWorkflowCommand) (*application.WorkflowDTO, error) {
	if m.archiveWorkflowFn == nil {
		panic("ArchiveWorkflow not implemented")
	}
	return m.archiveWorkflowFn(ctx, cmd)
}

func newWorkflowTestRouter(service WorkflowService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	middleware.InitValidator()
	router := gin.New()
	logger := logging.New(&logging.Config{Level: logging.LevelError, ServiceName: "test"})
	handlers := NewWorkflowHandlers(service, logger)
	handlers.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func TestWorkflowHandlers_CreateWorkflow(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service := &mockWorkflowService{
			createWorkflowFn: func(ctx context.Context, cmd application.CreateWorkflowCommand) (*application.WorkflowDTO, error) {
				if cmd.WorkflowID != "wf-1" || len(cmd.Stages) != 2 {
					t.Fatalf("unexpected command: %+v", cmd)
				}
				return &application.WorkflowDTO{WorkflowID: cmd.WorkflowID, Name: cmd.Name, Lifecycle: "active"}, nil
			},
		}
		router := newWorkflowTestRouter(service)

		body := `{"workflowId":"wf-1","name":"Assembly","stages":[
			{"stageId":"cut","name":"Cutting","order":0,"allowedNextStageIds":["qa"]},
			{"stageId":"qa","name":"Quality Check","order":1,"allowedNextStageIds":[]}]}`
		rec := performRequest(router, http.MethodPost, "/api/v1/workflows", body)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing stages rejected", func(t *testing.T) {
		router := newWorkflowTestRouter(&mockWorkflowService{})

		rec := performRequest(router, http.MethodPost, "/api/v1/workflows", `{"workflowId":"wf-1","name":"Assembly"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestWorkflowHandlers_DeleteWorkflow(t *testing.T) {
	t.Run("blocked delete maps to 409 with blocking ids", func(t *testing.T) {
		service := &mockWorkflowService{
			deleteWorkflowFn: func(ctx context.Context, cmd application.DeleteWorkflowCommand) error {
				return errors.ErrReferentialIntegrity(
					"workflow wf-1 has 2 items still in progress",
					[]string{"ITEM-A", "ITEM-B"},
				)
			},
		}
		router := newWorkflowTestRouter(service)

		rec := performRequest(router, http.MethodDelete, "/api/v1/workflows/wf-1", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d", rec.Code)
		}
		resp := decodeError(t, rec)
		if resp.Code != errors.CodeReferentialIntegrity {
			t.Fatalf("code = %s", resp.Code)
		}
		if resp.Details["blockingIds"] != "ITEM-A,ITEM-B" {
			t.Fatalf("details = %v", resp.Details)
		}
	})

	t.Run("successful delete returns no content", func(t *testing.T) {
		service := &mockWorkflowService{
			deleteWorkflowFn: func(ctx context.Context, cmd application.DeleteWorkflowCommand) error {
				if cmd.WorkflowID != "wf-1" {
					t.Fatalf("WorkflowID = %s", cmd.WorkflowID)
				}
				return nil
			},
		}
		router := newWorkflowTestRouter(service)

		rec := performRequest(router, http.MethodDelete, "/api/v1/workflows/wf-1", "")

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestWorkflowHandlers_ListWorkflows(t *testing.T) {
	service := &mockWorkflowService{
		listWorkflowsFn: func(ctx context.Context, query application.ListWorkflowsQuery) ([]application.WorkflowDTO, error) {
			if !query.IncludeArchived {
				t.Fatal("expected IncludeArchived")
			}
			return []application.WorkflowDTO{{WorkflowID: "wf-1"}}, nil
		},
	}
	router := newWorkflowTestRouter(service)

	rec := performRequest(router, http.MethodGet, "/api/v1/workflows?includeArchived=true", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
