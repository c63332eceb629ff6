package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prodtrack-platform/tracking-service/internal/domain"
	"github.com/prodtrack-platform/tracking-service/pkg/errors"
)

type workflowServiceFixture struct {
	workflows *MockWorkflowRepo
	items     *MockItemRepo
	outbox    *MockOutboxStore
	service   *WorkflowApplicationService
}

func newWorkflowServiceFixture() *workflowServiceFixture {
	f := &workflowServiceFixture{
		workflows: new(MockWorkflowRepo),
		items:     new(MockItemRepo),
		outbox:    new(MockOutboxStore),
	}
	f.service = NewWorkflowApplicationService(
		f.workflows, f.items, f.outbox, passthroughTx{}, testEventFactory(), testLogger(),
	)
	return f
}

func validStageInputs() []StageInput {
	return []StageInput{
		{StageID: "cut", Name: "Cutting", Order: 0, AllowedNextStageIDs: []string{"qa"}},
		{StageID: "qa", Name: "Quality Check", Order: 1, AllowedNextStageIDs: []string{}},
	}
}

func TestCreateWorkflow(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a valid workflow", func(t *testing.T) {
		f := newWorkflowServiceFixture()

		f.workflows.On("FindByWorkflowID", ctx, "wf-1").Return(nil, nil)
		f.workflows.On("Save", ctx, mock.AnythingOfType("*domain.Workflow")).Return(nil)
		f.outbox.On("SaveAll", ctx, mock.Anything).Return(nil)

		dto, err := f.service.CreateWorkflow(ctx, CreateWorkflowCommand{
			WorkflowID: "wf-1", Name: "Assembly", Stages: validStageInputs(),
		})

		require.NoError(t, err)
		assert.Equal(t, "active", dto.Lifecycle)
		require.Len(t, dto.Stages, 2)
		assert.False(t, dto.Stages[0].Terminal)
		assert.True(t, dto.Stages[1].Terminal)
		f.workflows.AssertExpectations(t)
	})

	t.Run("broken stage graph is rejected", func(t *testing.T) {
		f := newWorkflowServiceFixture()
		f.workflows.On("FindByWorkflowID", ctx, "wf-1").Return(nil, nil)

		stages := []StageInput{
			{StageID: "cut", Name: "Cutting", AllowedNextStageIDs: []string{"missing"}},
		}
		_, err := f.service.CreateWorkflow(ctx, CreateWorkflowCommand{WorkflowID: "wf-1", Name: "Assembly", Stages: stages})

		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeValidationError, appErr.Code)
		f.workflows.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("duplicate workflow id conflicts", func(t *testing.T) {
		f := newWorkflowServiceFixture()
		existing, err := domain.NewWorkflow("wf-1", "Assembly", "", ToStages(validStageInputs()))
		require.NoError(t, err)

		f.workflows.On("FindByWorkflowID", ctx, "wf-1").Return(existing, nil)

		_, err = f.service.CreateWorkflow(ctx, CreateWorkflowCommand{WorkflowID: "wf-1", Name: "Assembly", Stages: validStageInputs()})

		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeConflict, appErr.Code)
	})
}

func TestDeleteWorkflow(t *testing.T) {
	ctx := context.Background()

	t.Run("blocked while items are in progress", func(t *testing.T) {
		f := newWorkflowServiceFixture()
		w, err := domain.NewWorkflow("wf-1", "Assembly", "", ToStages(validStageInputs()))
		require.NoError(t, err)
		w.ClearDomainEvents()

		itemA, err := domain.NewItem("ITEM-A", w, "op", nil)
		require.NoError(t, err)
		itemB, err := domain.NewItem("ITEM-B", w, "op", nil)
		require.NoError(t, err)

		f.workflows.On("FindByWorkflowID", ctx, "wf-1").Return(w, nil)
		f.items.On("FindActiveByWorkflowID", ctx, "wf-1").Return([]*domain.Item{itemA, itemB}, nil)

		err = f.service.DeleteWorkflow(ctx, DeleteWorkflowCommand{WorkflowID: "wf-1"})

		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeReferentialIntegrity, appErr.Code)
		assert.Equal(t, "ITEM-A,ITEM-B", appErr.Details["blockingIds"])
		assert.Equal(t, domain.LifecycleActive, w.Lifecycle)
		f.workflows.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("succeeds with no referencing items", func(t *testing.T) {
		f := newWorkflowServiceFixture()
		w, err := domain.NewWorkflow("wf-1", "Assembly", "", ToStages(validStageInputs()))
		require.NoError(t, err)
		w.ClearDomainEvents()

		f.workflows.On("FindByWorkflowID", ctx, "wf-1").Return(w, nil)
		f.items.On("FindActiveByWorkflowID", ctx, "wf-1").Return([]*domain.Item{}, nil)
		f.workflows.On("Save", ctx, w).Return(nil)
		f.outbox.On("SaveAll", ctx, mock.Anything).Return(nil)

		err = f.service.DeleteWorkflow(ctx, DeleteWorkflowCommand{WorkflowID: "wf-1"})

		require.NoError(t, err)
		assert.Equal(t, domain.LifecycleDeleted, w.Lifecycle)
		f.workflows.AssertExpectations(t)
	})
}

func TestArchiveWorkflow(t *testing.T) {
	ctx := context.Background()
	f := newWorkflowServiceFixture()
	w, err := domain.NewWorkflow("wf-1", "Assembly", "", ToStages(validStageInputs()))
	require.NoError(t, err)
	w.ClearDomainEvents()

	f.workflows.On("FindByWorkflowID", ctx, "wf-1").Return(w, nil)
	f.workflows.On("Save", ctx, w).Return(nil)
	f.outbox.On("SaveAll", ctx, mock.Anything).Return(nil)

	dto, err := f.service.ArchiveWorkflow(ctx, ArchiveWorkflowCommand{WorkflowID: "wf-1"})

	require.NoError(t, err)
	assert.Equal(t, "archived", dto.Lifecycle)
}

func TestUpdateWorkflow(t *testing.T) {
	ctx := context.Background()
	f := newWorkflowServiceFixture()
	w, err := domain.NewWorkflow("wf-1", "Assembly", "", ToStages(validStageInputs()))
	require.NoError(t, err)
	w.ClearDomainEvents()

	f.workflows.On("FindByWorkflowID", ctx, "wf-1").Return(w, nil)
	f.workflows.On("Save", ctx, w).Return(nil)
	f.outbox.On("SaveAll", ctx, mock.Anything).Return(nil)

	updated := []StageInput{
		{StageID: "cut", Name: "Cutting", Order: 0, AllowedNextStageIDs: []string{"polish"}},
		{StageID: "polish", Name: "Polishing", Order: 1, AllowedNextStageIDs: []string{"qa"}},
		{StageID: "qa", Name: "Quality Check", Order: 2, AllowedNextStageIDs: []string{}},
	}
	dto, err := f.service.UpdateWorkflow(ctx, UpdateWorkflowCommand{
		WorkflowID: "wf-1", Name: "Assembly v2", Stages: updated,
	})

	require.NoError(t, err)
	assert.Equal(t, "Assembly v2", dto.Name)
	assert.Len(t, dto.Stages, 3)
}
