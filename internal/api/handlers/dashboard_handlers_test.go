package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prodtrack-platform/tracking-service/internal/application"
	"github.com/prodtrack-platform/tracking-service/pkg/logging"
)

type mockDashboardService struct {
	countsByStageFn       func(ctx context.Context, query application.StageCountsQuery) ([]application.StageCountDTO, error)
	stuckItemsFn          func(ctx context.Context, query application.StuckItemsQuery) ([]application.StuckItemDTO, error)
	completionStatsFn     func(ctx context.Context, query application.CompletionStatsQuery) (*application.CompletionStatsDTO, error)
	locationUtilizationFn func(ctx context.Context) ([]application.LocationUtilizationDTO, error)
}

func (m *mockDashboardService) CountsByStage(ctx context.Context, query application.StageCountsQuery) ([]application.StageCountDTO, error) {
	if m.countsByStageFn == nil {
		panic("CountsByStage not implemented")
	}
	return m.countsByStageFn(ctx, query)
}

func (m *mockDashboardService) StuckItems(ctx context.Context, query application.StuckItemsQuery) ([]application.StuckItemDTO, error) {
	if m.stuckItemsFn == nil {
		panic("StuckItems not implemented")
	}
	return m.stuckItemsFn(ctx, query)
}

func (m *mockDashboardService) CompletionStats(ctx context.Context, query application.CompletionStatsQuery) (*application.CompletionStatsDTO, error) {
	if m.completionStatsFn == nil {
		panic("CompletionStats not implemented")
	}
	return m.completionStatsFn(ctx, query)
}

func (m *mockDashboardService) LocationUtilization(ctx context.Context) ([]application.LocationUtilizationDTO, error) {
	if m.locationUtilizationFn == nil {
		panic("LocationUtilization not implemented")
	}
	return m.locationUtilizationFn(ctx)
}

func newDashboardTestRouter(service DashboardQueries, now func() time.Time) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	logger := logging.New(&logging.Config{Level: logging.LevelError, ServiceName: "test"})
	handlers := NewDashboardHandlers(service, logger)
	if now != nil {
		handlers.now = now
	}
	handlers.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func TestDashboardHandlers_StuckItems(t *testing.T) {
	t.Run("explicit asOf is passed through", func(t *testing.T) {
		want := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
		service := &mockDashboardService{
			stuckItemsFn: func(ctx context.Context, query application.StuckItemsQuery) ([]application.StuckItemDTO, error) {
				if !query.AsOf.Equal(want) {
					t.Fatalf("AsOf = %v", query.AsOf)
				}
				return []application.StuckItemDTO{}, nil
			},
		}
		router := newDashboardTestRouter(service, nil)

		rec := performRequest(router, http.MethodGet, "/api/v1/dashboard/stuck?asOf=2025-06-10T12:00:00Z", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing asOf defaults to now", func(t *testing.T) {
		now := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
		service := &mockDashboardService{
			stuckItemsFn: func(ctx context.Context, query application.StuckItemsQuery) ([]application.StuckItemDTO, error) {
				if !query.AsOf.Equal(now) {
					t.Fatalf("AsOf = %v", query.AsOf)
				}
				return []application.StuckItemDTO{}, nil
			},
		}
		router := newDashboardTestRouter(service, func() time.Time { return now })

		rec := performRequest(router, http.MethodGet, "/api/v1/dashboard/stuck", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("malformed asOf is rejected", func(t *testing.T) {
		router := newDashboardTestRouter(&mockDashboardService{}, nil)

		rec := performRequest(router, http.MethodGet, "/api/v1/dashboard/stuck?asOf=yesterday", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestDashboardHandlers_StageCounts(t *testing.T) {
	service := &mockDashboardService{
		countsByStageFn: func(ctx context.Context, query application.StageCountsQuery) ([]application.StageCountDTO, error) {
			if query.WorkflowID != "wf-1" {
				t.Fatalf("WorkflowID = %s", query.WorkflowID)
			}
			return []application.StageCountDTO{
				{StageID: "cut", StageName: "Cutting", ItemCount: 3},
				{StageID: "qa", StageName: "Quality Check", ItemCount: 0},
			}, nil
		},
	}
	router := newDashboardTestRouter(service, nil)

	rec := performRequest(router, http.MethodGet, "/api/v1/dashboard/stage-counts/wf-1", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}
