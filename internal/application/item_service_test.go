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

type itemServiceFixture struct {
	items     *MockItemRepo
	workflows *MockWorkflowRepo
	locations *MockLocationRepo
	movements *MockMovementRepo
	outbox    *MockOutboxStore
	service   *ItemApplicationService
}

func newItemServiceFixture() *itemServiceFixture {
	f := &itemServiceFixture{
		items:     new(MockItemRepo),
		workflows: new(MockWorkflowRepo),
		locations: new(MockLocationRepo),
		movements: new(MockMovementRepo),
		outbox:    new(MockOutboxStore),
	}
	f.service = NewItemApplicationService(
		f.items, f.workflows, f.locations, f.movements,
		f.outbox, passthroughTx{}, testEventFactory(), testLogger(), testMetrics(),
	)
	return f
}

// assemblyWorkflow has a non-terminal cut stage and a terminal qa stage with
// one required photo action.
func assemblyWorkflow(t *testing.T) *domain.Workflow {
	t.Helper()
	w, err := domain.NewWorkflow("wf-1", "Assembly", "", []domain.Stage{
		{StageID: "cut", Name: "Cutting", Order: 0, AllowedNextStageIDs: []string{"qa"}},
		{StageID: "qa", Name: "Quality Check", Order: 1, AllowedNextStageIDs: []string{},
			Actions: []domain.Action{
				{ActionID: "photos", Type: domain.ActionTypePhoto, Label: "Defect photos", Required: true,
					Config: domain.ActionConfig{MinCount: 1}},
			}},
	})
	require.NoError(t, err)
	w.ClearDomainEvents()
	return w
}

func activeItem(t *testing.T, w *domain.Workflow) *domain.Item {
	t.Helper()
	item, err := domain.NewItem("ITEM-001", w, "operator-1", nil)
	require.NoError(t, err)
	item.ClearDomainEvents()
	return item
}

func TestCreateItem(t *testing.T) {
	ctx := context.Background()

	t.Run("creates item at entry stage", func(t *testing.T) {
		f := newItemServiceFixture()
		w := assemblyWorkflow(t)

		f.workflows.On("FindByWorkflowID", ctx, "wf-1").Return(w, nil)
		f.items.On("FindByItemID", ctx, "ITEM-001").Return(nil, nil)
		f.items.On("Create", ctx, mock.AnythingOfType("*domain.Item")).Return(nil)
		f.outbox.On("SaveAll", ctx, mock.Anything).Return(nil)

		dto, err := f.service.CreateItem(ctx, CreateItemCommand{
			ItemID: "ITEM-001", WorkflowID: "wf-1", ActorID: "operator-1",
		})

		require.NoError(t, err)
		assert.Equal(t, "cut", dto.CurrentStageID)
		assert.Equal(t, "active", dto.Status)
		require.Len(t, dto.History, 1)
		f.items.AssertExpectations(t)
		f.outbox.AssertExpectations(t)
	})

	t.Run("duplicate item id conflicts", func(t *testing.T) {
		f := newItemServiceFixture()
		w := assemblyWorkflow(t)
		existing := activeItem(t, w)

		f.workflows.On("FindByWorkflowID", ctx, "wf-1").Return(w, nil)
		f.items.On("FindByItemID", ctx, "ITEM-001").Return(existing, nil)

		_, err := f.service.CreateItem(ctx, CreateItemCommand{ItemID: "ITEM-001", WorkflowID: "wf-1", ActorID: "op"})

		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeConflict, appErr.Code)
		f.items.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown workflow not found", func(t *testing.T) {
		f := newItemServiceFixture()
		f.workflows.On("FindByWorkflowID", ctx, "missing").Return(nil, nil)

		_, err := f.service.CreateItem(ctx, CreateItemCommand{ItemID: "ITEM-001", WorkflowID: "missing", ActorID: "op"})

		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeNotFound, appErr.Code)
	})

	t.Run("archived workflow rejects new items", func(t *testing.T) {
		f := newItemServiceFixture()
		w := assemblyWorkflow(t)
		require.NoError(t, w.Archive())

		f.workflows.On("FindByWorkflowID", ctx, "wf-1").Return(w, nil)
		f.items.On("FindByItemID", ctx, "ITEM-001").Return(nil, nil)

		_, err := f.service.CreateItem(ctx, CreateItemCommand{ItemID: "ITEM-001", WorkflowID: "wf-1", ActorID: "op"})

		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeValidationError, appErr.Code)
	})
}

func TestAdvanceItem(t *testing.T) {
	ctx := context.Background()

	t.Run("advances to next stage with valid actions", func(t *testing.T) {
		f := newItemServiceFixture()
		w := assemblyWorkflow(t)
		item := activeItem(t, w)

		f.items.On("FindByItemID", ctx, "ITEM-001").Return(item, nil)
		f.workflows.On("FindByWorkflowID", ctx, "wf-1").Return(w, nil)
		f.items.On("Save", ctx, item).Return(nil)
		f.outbox.On("SaveAll", ctx, mock.Anything).Return(nil)

		result, err := f.service.AdvanceItem(ctx, AdvanceItemCommand{
			ItemID:  "ITEM-001",
			ActorID: "operator-2",
			CompletedActions: []domain.CompletedAction{
				{ActionID: "photos", Completed: true, Count: 2},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "advanced", result.Status)
		assert.Equal(t, "qa", result.Item.CurrentStageID)
		require.NotNil(t, result.NextStage)
		assert.Equal(t, "qa", result.NextStage.StageID)
		assert.Len(t, result.Item.History, 2)
	})

	t.Run("missing required actions mutate nothing", func(t *testing.T) {
		f := newItemServiceFixture()
		w := assemblyWorkflow(t)
		item := activeItem(t, w)

		f.items.On("FindByItemID", ctx, "ITEM-001").Return(item, nil)
		f.workflows.On("FindByWorkflowID", ctx, "wf-1").Return(w, nil)

		_, err := f.service.AdvanceItem(ctx, AdvanceItemCommand{ItemID: "ITEM-001", ActorID: "op"})

		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeValidationError, appErr.Code)
		assert.Contains(t, appErr.Details["missingActions"], "Defect photos")

		assert.Equal(t, "cut", item.CurrentStageID)
		assert.Len(t, item.History, 1)
		f.items.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		f.outbox.AssertNotCalled(t, "SaveAll", mock.Anything, mock.Anything)
	})

	t.Run("explicit target must be reachable", func(t *testing.T) {
		f := newItemServiceFixture()
		w := assemblyWorkflow(t)
		item := activeItem(t, w)

		f.items.On("FindByItemID", ctx, "ITEM-001").Return(item, nil)
		f.workflows.On("FindByWorkflowID", ctx, "wf-1").Return(w, nil)

		_, err := f.service.AdvanceItem(ctx, AdvanceItemCommand{
			ItemID: "ITEM-001", ActorID: "op", TargetStageID: "cut",
		})

		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeValidationError, appErr.Code)
	})

	t.Run("terminal stage completes the item", func(t *testing.T) {
		f := newItemServiceFixture()
		w := assemblyWorkflow(t)
		item := activeItem(t, w)
		qa, err := w.StageByID("qa")
		require.NoError(t, err)
		require.NoError(t, item.AdvanceTo(qa, "op", []domain.CompletedAction{{ActionID: "photos", Completed: true, Count: 1}}, ""))
		item.ClearDomainEvents()

		f.items.On("FindByItemID", ctx, "ITEM-001").Return(item, nil)
		f.workflows.On("FindByWorkflowID", ctx, "wf-1").Return(w, nil)
		f.items.On("MoveToCompleted", ctx, item).Return(nil)
		f.outbox.On("SaveAll", ctx, mock.Anything).Return(nil)

		result, err := f.service.AdvanceItem(ctx, AdvanceItemCommand{
			ItemID:  "ITEM-001",
			ActorID: "operator-3",
			CompletedActions: []domain.CompletedAction{
				{ActionID: "photos", Completed: true, Count: 1},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "completed", result.Status)
		assert.Equal(t, "completed", result.Item.Status)
		assert.NotNil(t, result.Item.CompletedAt)
		assert.Equal(t, "Quality Check", result.Item.FinalStageName)
		// Full round trip keeps a two-entry history.
		assert.Len(t, result.Item.History, 2)
		f.items.AssertExpectations(t)
		f.items.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("paused item cannot advance", func(t *testing.T) {
		f := newItemServiceFixture()
		w := assemblyWorkflow(t)
		item := activeItem(t, w)
		require.NoError(t, item.Pause("op", ""))

		f.items.On("FindByItemID", ctx, "ITEM-001").Return(item, nil)

		_, err := f.service.AdvanceItem(ctx, AdvanceItemCommand{ItemID: "ITEM-001", ActorID: "op"})

		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeValidationError, appErr.Code)
	})

	t.Run("concurrent modification conflicts", func(t *testing.T) {
		f := newItemServiceFixture()
		w := assemblyWorkflow(t)
		item := activeItem(t, w)

		f.items.On("FindByItemID", ctx, "ITEM-001").Return(item, nil)
		f.workflows.On("FindByWorkflowID", ctx, "wf-1").Return(w, nil)
		f.items.On("Save", ctx, item).Return(domain.ErrVersionConflict)

		_, err := f.service.AdvanceItem(ctx, AdvanceItemCommand{
			ItemID:  "ITEM-001",
			ActorID: "op",
			CompletedActions: []domain.CompletedAction{
				{ActionID: "photos", Completed: true, Count: 1},
			},
		})

		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeConflict, appErr.Code)
	})

	t.Run("concurrent modification during completion conflicts", func(t *testing.T) {
		f := newItemServiceFixture()
		w := assemblyWorkflow(t)
		item := activeItem(t, w)
		qa, err := w.StageByID("qa")
		require.NoError(t, err)
		require.NoError(t, item.AdvanceTo(qa, "op", []domain.CompletedAction{{ActionID: "photos", Completed: true, Count: 1}}, ""))
		item.ClearDomainEvents()

		f.items.On("FindByItemID", ctx, "ITEM-001").Return(item, nil)
		f.workflows.On("FindByWorkflowID", ctx, "wf-1").Return(w, nil)
		// Another writer touched the item between load and completion.
		f.items.On("MoveToCompleted", ctx, item).Return(domain.ErrVersionConflict)

		_, err = f.service.AdvanceItem(ctx, AdvanceItemCommand{
			ItemID:  "ITEM-001",
			ActorID: "op",
			CompletedActions: []domain.CompletedAction{
				{ActionID: "photos", Completed: true, Count: 1},
			},
		})

		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeConflict, appErr.Code)
		f.outbox.AssertNotCalled(t, "SaveAll", mock.Anything, mock.Anything)
	})
}

func TestMoveItemToLocation(t *testing.T) {
	ctx := context.Background()

	newLocation := func(t *testing.T, id string, capacity *int) *domain.Location {
		loc, err := domain.NewLocation(id, "Location "+id, domain.LocationTypeBin, "QR-"+id, capacity)
		require.NoError(t, err)
		loc.ClearDomainEvents()
		return loc
	}

	t.Run("move between locations releases the previous one", func(t *testing.T) {
		f := newItemServiceFixture()
		w := assemblyWorkflow(t)
		item := activeItem(t, w)
		item.CurrentLocationID = "bin-a"
		target := newLocation(t, "bin-b", nil)

		f.items.On("FindByItemID", ctx, "ITEM-001").Return(item, nil)
		f.locations.On("FindByLocationID", ctx, "bin-b").Return(target, nil)
		f.locations.On("Occupy", ctx, "bin-b").Return(nil)
		f.items.On("Save", ctx, item).Return(nil)
		f.movements.On("Record", ctx, mock.AnythingOfType("*domain.MovementRecord")).Return(nil)
		f.outbox.On("SaveAll", ctx, mock.Anything).Return(nil)
		f.locations.On("Release", ctx, "bin-a").Return(nil)

		movement, err := f.service.MoveItemToLocation(ctx, MoveItemCommand{
			ItemID: "ITEM-001", LocationID: "bin-b", MovedBy: "operator-1",
		})

		require.NoError(t, err)
		assert.Equal(t, "bin-a", movement.FromLocationID)
		assert.Equal(t, "bin-b", movement.ToLocationID)
		assert.Equal(t, "bin-b", item.CurrentLocationID)
		f.locations.AssertExpectations(t)
		f.movements.AssertNumberOfCalls(t, "Record", 1)
	})

	t.Run("full location rejects the move untouched", func(t *testing.T) {
		f := newItemServiceFixture()
		w := assemblyWorkflow(t)
		item := activeItem(t, w)
		target := newLocation(t, "bin-b", intPtr(1))
		target.CurrentOccupancy = 1

		f.items.On("FindByItemID", ctx, "ITEM-001").Return(item, nil)
		f.locations.On("FindByLocationID", ctx, "bin-b").Return(target, nil)
		f.locations.On("Occupy", ctx, "bin-b").Return(domain.ErrLocationAtCapacity)

		_, err := f.service.MoveItemToLocation(ctx, MoveItemCommand{
			ItemID: "ITEM-001", LocationID: "bin-b", MovedBy: "op",
		})

		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeCapacityExceeded, appErr.Code)
		assert.Empty(t, item.CurrentLocationID)
		f.items.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		f.movements.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})

	t.Run("capacity one slot frees up after the occupant leaves", func(t *testing.T) {
		f := newItemServiceFixture()
		w := assemblyWorkflow(t)
		itemX := activeItem(t, w)
		itemY, err := domain.NewItem("ITEM-002", w, "op", nil)
		require.NoError(t, err)
		itemY.ClearDomainEvents()

		small := newLocation(t, "bin-s", intPtr(1))
		overflow := newLocation(t, "bin-o", nil)

		f.items.On("FindByItemID", ctx, "ITEM-001").Return(itemX, nil)
		f.items.On("FindByItemID", ctx, "ITEM-002").Return(itemY, nil)
		f.locations.On("FindByLocationID", ctx, "bin-s").Return(small, nil)
		f.locations.On("FindByLocationID", ctx, "bin-o").Return(overflow, nil)
		f.items.On("Save", ctx, mock.AnythingOfType("*domain.Item")).Return(nil)
		f.movements.On("Record", ctx, mock.AnythingOfType("*domain.MovementRecord")).Return(nil)
		f.outbox.On("SaveAll", ctx, mock.Anything).Return(nil)

		// X takes the only slot.
		f.locations.On("Occupy", ctx, "bin-s").Return(nil).Once()
		_, err = f.service.MoveItemToLocation(ctx, MoveItemCommand{ItemID: "ITEM-001", LocationID: "bin-s", MovedBy: "op"})
		require.NoError(t, err)

		// Y is rejected while the slot is held.
		f.locations.On("Occupy", ctx, "bin-s").Return(domain.ErrLocationAtCapacity).Once()
		_, err = f.service.MoveItemToLocation(ctx, MoveItemCommand{ItemID: "ITEM-002", LocationID: "bin-s", MovedBy: "op"})
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeCapacityExceeded, appErr.Code)

		// X moves away, releasing the slot.
		f.locations.On("Occupy", ctx, "bin-o").Return(nil).Once()
		f.locations.On("Release", ctx, "bin-s").Return(nil).Once()
		_, err = f.service.MoveItemToLocation(ctx, MoveItemCommand{ItemID: "ITEM-001", LocationID: "bin-o", MovedBy: "op"})
		require.NoError(t, err)

		// Now Y fits.
		f.locations.On("Occupy", ctx, "bin-s").Return(nil).Once()
		_, err = f.service.MoveItemToLocation(ctx, MoveItemCommand{ItemID: "ITEM-002", LocationID: "bin-s", MovedBy: "op"})
		require.NoError(t, err)
		assert.Equal(t, "bin-s", itemY.CurrentLocationID)

		f.locations.AssertExpectations(t)
	})

	t.Run("archived location rejects items", func(t *testing.T) {
		f := newItemServiceFixture()
		w := assemblyWorkflow(t)
		item := activeItem(t, w)
		target := newLocation(t, "bin-b", nil)
		target.Archive()

		f.items.On("FindByItemID", ctx, "ITEM-001").Return(item, nil)
		f.locations.On("FindByLocationID", ctx, "bin-b").Return(target, nil)

		_, err := f.service.MoveItemToLocation(ctx, MoveItemCommand{ItemID: "ITEM-001", LocationID: "bin-b", MovedBy: "op"})

		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeValidationError, appErr.Code)
		f.locations.AssertNotCalled(t, "Occupy", mock.Anything, mock.Anything)
	})
}

func TestPauseResumeItem(t *testing.T) {
	ctx := context.Background()

	f := newItemServiceFixture()
	w := assemblyWorkflow(t)
	item := activeItem(t, w)

	f.items.On("FindByItemID", ctx, "ITEM-001").Return(item, nil)
	f.items.On("Save", ctx, item).Return(nil)
	f.outbox.On("SaveAll", ctx, mock.Anything).Return(nil)

	paused, err := f.service.PauseItem(ctx, PauseItemCommand{ItemID: "ITEM-001", ActorID: "op", Reason: "shift end"})
	require.NoError(t, err)
	assert.Equal(t, "paused", paused.Status)

	resumed, err := f.service.ResumeItem(ctx, ResumeItemCommand{ItemID: "ITEM-001", ActorID: "op"})
	require.NoError(t, err)
	assert.Equal(t, "active", resumed.Status)
}

func TestResolveScan(t *testing.T) {
	ctx := context.Background()

	t.Run("item prefix resolves to item", func(t *testing.T) {
		f := newItemServiceFixture()
		w := assemblyWorkflow(t)
		item := activeItem(t, w)

		f.items.On("FindByItemID", ctx, "ITEM-001").Return(item, nil)

		result, err := f.service.ResolveScan(ctx, ResolveScanCommand{Payload: "item:ITEM-001"})
		require.NoError(t, err)
		assert.Equal(t, "item", result.Kind)
		require.NotNil(t, result.Item)
		assert.Equal(t, "ITEM-001", result.Item.ItemID)
	})

	t.Run("location prefix resolves by qr code", func(t *testing.T) {
		f := newItemServiceFixture()
		loc, err := domain.NewLocation("bin-a1", "Bin A1", domain.LocationTypeBin, "QR-A1", nil)
		require.NoError(t, err)

		f.locations.On("FindByQRCode", ctx, "QR-A1").Return(loc, nil)

		result, err := f.service.ResolveScan(ctx, ResolveScanCommand{Payload: "location:QR-A1"})
		require.NoError(t, err)
		assert.Equal(t, "location", result.Kind)
		require.NotNil(t, result.Location)
		assert.Equal(t, "bin-a1", result.Location.LocationID)
	})

	t.Run("unknown prefix is rejected", func(t *testing.T) {
		f := newItemServiceFixture()

		_, err := f.service.ResolveScan(ctx, ResolveScanCommand{Payload: "widget:123"})

		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeValidationError, appErr.Code)
	})
}

func intPtr(v int) *int { return &v }
