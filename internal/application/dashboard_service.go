package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/prodtrack-platform/tracking-service/internal/domain"
	"github.com/prodtrack-platform/tracking-service/pkg/errors"
	"github.com/prodtrack-platform/tracking-service/pkg/logging"
)

// DashboardConfig holds SLA thresholds for the read-side queries
type DashboardConfig struct {
	// StuckThreshold is how long an item may sit in one stage before it is
	// reported as stuck.
	StuckThreshold time.Duration

	// ExpectedStageDuration is the per-stage fallback used for the on-time
	// split when a workflow carries no stage estimates.
	ExpectedStageDuration time.Duration
}

// DefaultDashboardConfig returns the default SLA thresholds
func DefaultDashboardConfig() DashboardConfig {
	return DashboardConfig{
		StuckThreshold:        4 * time.Hour,
		ExpectedStageDuration: 8 * time.Hour,
	}
}

// DashboardService answers read-only aggregation queries. All figures are
// recomputed per query; nothing is cached or stored.
type DashboardService struct {
	items     domain.ItemRepository
	workflows domain.WorkflowRepository
	locations domain.LocationRepository
	config    DashboardConfig
	logger    *logging.Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	items domain.ItemRepository,
	workflows domain.WorkflowRepository,
	locations domain.LocationRepository,
	config DashboardConfig,
	logger *logging.Logger,
) *DashboardService {
	return &DashboardService{
		items:     items,
		workflows: workflows,
		locations: locations,
		config:    config,
		logger:    logger,
	}
}

// CountsByStage returns active item counts per stage of a workflow, in stage
// order, with zero counts included.
func (s *DashboardService) CountsByStage(ctx context.Context, query StageCountsQuery) ([]StageCountDTO, error) {
	workflow, err := s.workflows.FindByWorkflowID(ctx, query.WorkflowID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get workflow", "workflowId", query.WorkflowID)
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}
	if workflow == nil {
		return nil, errors.ErrNotFoundWithID("workflow", query.WorkflowID)
	}

	counts, err := s.items.CountActiveByStage(ctx, query.WorkflowID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to count items by stage", "workflowId", query.WorkflowID)
		return nil, fmt.Errorf("failed to count items by stage: %w", err)
	}

	result := make([]StageCountDTO, len(workflow.Stages))
	for i := range workflow.Stages {
		stage := &workflow.Stages[i]
		result[i] = StageCountDTO{
			StageID:   stage.StageID,
			StageName: stage.Name,
			Order:     stage.Order,
			ItemCount: counts[stage.StageID],
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Order < result[j].Order })

	return result, nil
}

// StuckItems returns active items that have sat in their current stage for
// longer than the stuck threshold as of the given time. Paused items are
// excluded; a deliberate hold is not a stall.
func (s *DashboardService) StuckItems(ctx context.Context, query StuckItemsQuery) ([]StuckItemDTO, error) {
	items, err := s.items.FindActive(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load active items")
		return nil, fmt.Errorf("failed to load active items: %w", err)
	}

	stuck := make([]StuckItemDTO, 0)
	for _, item := range items {
		if item.Status != domain.ItemStatusActive {
			continue
		}
		enteredAt := item.EnteredCurrentStageAt()
		idle := query.AsOf.Sub(enteredAt)
		if idle < s.config.StuckThreshold {
			continue
		}

		stageName := ""
		if len(item.History) > 0 {
			stageName = item.History[len(item.History)-1].StageName
		}

		stuck = append(stuck, StuckItemDTO{
			ItemID:       item.ItemID,
			WorkflowID:   item.WorkflowID,
			StageID:      item.CurrentStageID,
			StageName:    stageName,
			EnteredAt:    enteredAt,
			StuckMinutes: int64(idle.Minutes()),
		})
	}

	sort.Slice(stuck, func(i, j int) bool { return stuck[i].StuckMinutes > stuck[j].StuckMinutes })
	return stuck, nil
}

// CompletionStats returns completed counts for today, the last 7 days and the
// last 30 days as of the given time, each split into on-time and late.
func (s *DashboardService) CompletionStats(ctx context.Context, query CompletionStatsQuery) (*CompletionStatsDTO, error) {
	since := query.AsOf.Add(-30 * 24 * time.Hour)
	completed, err := s.items.FindCompletedSince(ctx, since)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load completed items")
		return nil, fmt.Errorf("failed to load completed items: %w", err)
	}

	expectations, err := s.expectedDurations(ctx, completed)
	if err != nil {
		return nil, err
	}

	startOfDay := time.Date(query.AsOf.Year(), query.AsOf.Month(), query.AsOf.Day(), 0, 0, 0, 0, query.AsOf.Location())
	sevenDaysAgo := query.AsOf.Add(-7 * 24 * time.Hour)

	stats := &CompletionStatsDTO{}
	for _, item := range completed {
		if item.CompletedAt == nil || item.CompletedAt.After(query.AsOf) {
			continue
		}

		onTime := item.CompletedAt.Sub(item.StartedAt) <= expectations[item.ItemID]

		addToBucket(&stats.Last30Days, onTime)
		if item.CompletedAt.After(sevenDaysAgo) {
			addToBucket(&stats.Last7Days, onTime)
		}
		if !item.CompletedAt.Before(startOfDay) {
			addToBucket(&stats.Today, onTime)
		}
	}

	return stats, nil
}

// expectedDurations computes the per-item SLA: the sum of the workflow's stage
// estimates, falling back to ExpectedStageDuration per stage when a workflow
// has no estimates or no longer exists.
func (s *DashboardService) expectedDurations(ctx context.Context, items []*domain.Item) (map[string]time.Duration, error) {
	workflowCache := make(map[string]*domain.Workflow)
	expectations := make(map[string]time.Duration, len(items))

	for _, item := range items {
		workflow, seen := workflowCache[item.WorkflowID]
		if !seen {
			var err error
			workflow, err = s.workflows.FindByWorkflowID(ctx, item.WorkflowID)
			if err != nil {
				s.logger.WithError(err).Error("Failed to load workflow for stats", "workflowId", item.WorkflowID)
				return nil, fmt.Errorf("failed to load workflow: %w", err)
			}
			workflowCache[item.WorkflowID] = workflow
		}

		if workflow == nil {
			expectations[item.ItemID] = s.config.ExpectedStageDuration * time.Duration(len(item.History))
			continue
		}

		var estimated time.Duration
		for i := range workflow.Stages {
			estimated += time.Duration(workflow.Stages[i].EstimatedDurationMinutes) * time.Minute
		}
		if estimated == 0 {
			estimated = s.config.ExpectedStageDuration * time.Duration(len(workflow.Stages))
		}
		expectations[item.ItemID] = estimated
	}

	return expectations, nil
}

func addToBucket(bucket *CompletionBucketDTO, onTime bool) {
	bucket.Completed++
	if onTime {
		bucket.OnTime++
	} else {
		bucket.Late++
	}
}

// LocationUtilization reports per-location occupancy against capacity
func (s *DashboardService) LocationUtilization(ctx context.Context) ([]LocationUtilizationDTO, error) {
	locations, err := s.locations.FindAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load locations")
		return nil, fmt.Errorf("failed to load locations: %w", err)
	}

	result := make([]LocationUtilizationDTO, len(locations))
	for i, location := range locations {
		dto := LocationUtilizationDTO{
			LocationID:       location.LocationID,
			Name:             location.Name,
			Type:             string(location.Type),
			CurrentOccupancy: location.CurrentOccupancy,
			Capacity:         location.Capacity,
		}
		if location.Capacity != nil && *location.Capacity > 0 {
			pct := float64(location.CurrentOccupancy) / float64(*location.Capacity) * 100
			dto.UtilizationPct = &pct
		}
		result[i] = dto
	}

	return result, nil
}
