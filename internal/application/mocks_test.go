package application

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/prodtrack-platform/tracking-service/internal/domain"
	"github.com/prodtrack-platform/tracking-service/pkg/cloudevents"
	"github.com/prodtrack-platform/tracking-service/pkg/logging"
	"github.com/prodtrack-platform/tracking-service/pkg/metrics"
	"github.com/prodtrack-platform/tracking-service/pkg/outbox"
)

type MockItemRepo struct {
	mock.Mock
}

func (m *MockItemRepo) Create(ctx context.Context, item *domain.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepo) Save(ctx context.Context, item *domain.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepo) FindByItemID(ctx context.Context, itemID string) (*domain.Item, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *MockItemRepo) FindAll(ctx context.Context, status domain.ItemStatus, workflowID string, limit int64) ([]*domain.Item, error) {
	args := m.Called(ctx, status, workflowID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Item), args.Error(1)
}

func (m *MockItemRepo) FindActive(ctx context.Context) ([]*domain.Item, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Item), args.Error(1)
}

func (m *MockItemRepo) FindActiveByWorkflowID(ctx context.Context, workflowID string) ([]*domain.Item, error) {
	args := m.Called(ctx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Item), args.Error(1)
}

func (m *MockItemRepo) CountActiveByStage(ctx context.Context, workflowID string) (map[string]int64, error) {
	args := m.Called(ctx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockItemRepo) MoveToCompleted(ctx context.Context, item *domain.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepo) FindCompletedSince(ctx context.Context, since time.Time) ([]*domain.Item, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Item), args.Error(1)
}

func (m *MockItemRepo) FindCompletedByItemID(ctx context.Context, itemID string) (*domain.Item, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

type MockWorkflowRepo struct {
	mock.Mock
}

func (m *MockWorkflowRepo) Save(ctx context.Context, workflow *domain.Workflow) error {
	args := m.Called(ctx, workflow)
	return args.Error(0)
}

func (m *MockWorkflowRepo) FindByWorkflowID(ctx context.Context, workflowID string) (*domain.Workflow, error) {
	args := m.Called(ctx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Workflow), args.Error(1)
}

func (m *MockWorkflowRepo) FindAll(ctx context.Context, includeArchived bool) ([]*domain.Workflow, error) {
	args := m.Called(ctx, includeArchived)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Workflow), args.Error(1)
}

type MockLocationRepo struct {
	mock.Mock
}

func (m *MockLocationRepo) Save(ctx context.Context, location *domain.Location) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

func (m *MockLocationRepo) FindByLocationID(ctx context.Context, locationID string) (*domain.Location, error) {
	args := m.Called(ctx, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Location), args.Error(1)
}

func (m *MockLocationRepo) FindByQRCode(ctx context.Context, qrCode string) (*domain.Location, error) {
	args := m.Called(ctx, qrCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Location), args.Error(1)
}

func (m *MockLocationRepo) FindAll(ctx context.Context) ([]*domain.Location, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Location), args.Error(1)
}

func (m *MockLocationRepo) Occupy(ctx context.Context, locationID string) error {
	args := m.Called(ctx, locationID)
	return args.Error(0)
}

func (m *MockLocationRepo) Release(ctx context.Context, locationID string) error {
	args := m.Called(ctx, locationID)
	return args.Error(0)
}

type MockMovementRepo struct {
	mock.Mock
}

func (m *MockMovementRepo) Record(ctx context.Context, record *domain.MovementRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockMovementRepo) FindByItemID(ctx context.Context, itemID string, limit int64) ([]*domain.MovementRecord, error) {
	args := m.Called(ctx, itemID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MovementRecord), args.Error(1)
}

func (m *MockMovementRepo) FindRecent(ctx context.Context, limit int64) ([]*domain.MovementRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MovementRecord), args.Error(1)
}

type MockOutboxStore struct {
	mock.Mock
}

func (m *MockOutboxStore) Save(ctx context.Context, event *outbox.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockOutboxStore) SaveAll(ctx context.Context, events []*outbox.OutboxEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// passthroughTx runs the function directly, no transaction semantics
type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func testLogger() *logging.Logger {
	return logging.New(&logging.Config{
		Level:       logging.LevelError,
		ServiceName: "tracking-service-test",
		Output:      io.Discard,
	})
}

func testMetrics() *metrics.Metrics {
	return metrics.New(metrics.DefaultConfig("tracking-service-test"))
}

func testEventFactory() *cloudevents.EventFactory {
	return cloudevents.NewEventFactory(cloudevents.SourceTracking)
}
