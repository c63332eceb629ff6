package handlers

import (
	"context"

	"github.com/prodtrack-platform/tracking-service/internal/application"
)

// ItemService is the application surface the item handlers depend on
type ItemService interface {
	CreateItem(ctx context.Context, cmd application.CreateItemCommand) (*application.ItemDTO, error)
	GetItem(ctx context.Context, query application.GetItemQuery) (*application.ItemDTO, error)
	ListItems(ctx context.Context, query application.ListItemsQuery) ([]application.ItemDTO, error)
	AdvanceItem(ctx context.Context, cmd application.AdvanceItemCommand) (*application.AdvanceResultDTO, error)
	MoveItemToLocation(ctx context.Context, cmd application.MoveItemCommand) (*application.MovementDTO, error)
	PauseItem(ctx context.Context, cmd application.PauseItemCommand) (*application.ItemDTO, error)
	ResumeItem(ctx context.Context, cmd application.ResumeItemCommand) (*application.ItemDTO, error)
	GetItemMovements(ctx context.Context, query application.GetItemMovementsQuery) ([]application.MovementDTO, error)
	ListRecentMovements(ctx context.Context, query application.ListRecentMovementsQuery) ([]application.MovementDTO, error)
	ResolveScan(ctx context.Context, cmd application.ResolveScanCommand) (*application.ScanResolutionDTO, error)
}

// WorkflowService is the application surface the workflow handlers depend on
type WorkflowService interface {
	CreateWorkflow(ctx context.Context, cmd application.CreateWorkflowCommand) (*application.WorkflowDTO, error)
	GetWorkflow(ctx context.Context, query application.GetWorkflowQuery) (*application.WorkflowDTO, error)
	ListWorkflows(ctx context.Context, query application.ListWorkflowsQuery) ([]application.WorkflowDTO, error)
	UpdateWorkflow(ctx context.Context, cmd application.UpdateWorkflowCommand) (*application.WorkflowDTO, error)
	DeleteWorkflow(ctx context.Context, cmd application.DeleteWorkflowCommand) error
	ArchiveWorkflow(ctx context.Context, cmd application.ArchiveWorkflowCommand) (*application.WorkflowDTO, error)
}

// LocationService is the application surface the location handlers depend on
type LocationService interface {
	CreateLocation(ctx context.Context, cmd application.CreateLocationCommand) (*application.LocationDTO, error)
	GetLocation(ctx context.Context, query application.GetLocationQuery) (*application.LocationDTO, error)
	GetLocationByQRCode(ctx context.Context, query application.GetLocationByQRCodeQuery) (*application.LocationDTO, error)
	ListLocations(ctx context.Context) ([]application.LocationDTO, error)
	AssignStage(ctx context.Context, cmd application.AssignLocationStageCommand) (*application.LocationDTO, error)
	UnassignStage(ctx context.Context, cmd application.UnassignLocationStageCommand) (*application.LocationDTO, error)
}

// DashboardQueries is the application surface the dashboard handlers depend on
type DashboardQueries interface {
	CountsByStage(ctx context.Context, query application.StageCountsQuery) ([]application.StageCountDTO, error)
	StuckItems(ctx context.Context, query application.StuckItemsQuery) ([]application.StuckItemDTO, error)
	CompletionStats(ctx context.Context, query application.CompletionStatsQuery) (*application.CompletionStatsDTO, error)
	LocationUtilization(ctx context.Context) ([]application.LocationUtilizationDTO, error)
}
