package domain

import (
	"errors"
	"testing"
)

func newTestItem(t *testing.T) (*Item, *Workflow) {
	t.Helper()
	w := twoStageWorkflow(t)
	item, err := NewItem("ITEM-001", w, "operator-1", nil)
	if err != nil {
		t.Fatalf("NewItem() error = %v, want nil", err)
	}
	return item, w
}

// =============================================================================
// Item Status Tests
// =============================================================================

func TestItemStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status ItemStatus
		want   bool
	}{
		{"active is valid", ItemStatusActive, true},
		{"paused is valid", ItemStatusPaused, true},
		{"completed is valid", ItemStatusCompleted, true},
		{"error is valid", ItemStatusError, true},
		{"unknown status is invalid", ItemStatus("unknown"), false},
		{"empty status is invalid", ItemStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.want {
				t.Errorf("ItemStatus.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

// =============================================================================
// NewItem Tests
// =============================================================================

func TestNewItem(t *testing.T) {
	t.Run("starts at entry stage with one history entry", func(t *testing.T) {
		item, _ := newTestItem(t)

		if item.CurrentStageID != "cut" {
			t.Errorf("CurrentStageID = %v, want cut", item.CurrentStageID)
		}
		if item.Status != ItemStatusActive {
			t.Errorf("Status = %v, want %v", item.Status, ItemStatusActive)
		}
		if item.Version != 1 {
			t.Errorf("Version = %v, want 1", item.Version)
		}
		if len(item.History) != 1 {
			t.Fatalf("History length = %v, want 1", len(item.History))
		}
		if item.History[0].StageID != "cut" {
			t.Errorf("History[0].StageID = %v, want cut", item.History[0].StageID)
		}
		if len(item.DomainEvents) != 1 || item.DomainEvents[0].EventType() != "item.created" {
			t.Errorf("DomainEvents = %v, want single item.created", item.DomainEvents)
		}
	})

	t.Run("rejects archived workflow", func(t *testing.T) {
		w := twoStageWorkflow(t)
		if err := w.Archive(); err != nil {
			t.Fatalf("Archive() error = %v", err)
		}
		_, err := NewItem("ITEM-002", w, "operator-1", nil)
		if !errors.Is(err, ErrWorkflowNotActive) {
			t.Errorf("NewItem() error = %v, want %v", err, ErrWorkflowNotActive)
		}
	})
}

// =============================================================================
// Advance / Complete Tests
// =============================================================================

func TestItem_AdvanceTo(t *testing.T) {
	t.Run("moves stage and appends history", func(t *testing.T) {
		item, w := newTestItem(t)
		item.ClearDomainEvents()
		qa, _ := w.StageByID("qa")

		completed := []CompletedAction{{ActionID: "scan", Completed: true, Value: "ITEM-001"}}
		if err := item.AdvanceTo(qa, "operator-2", completed, "looks good"); err != nil {
			t.Fatalf("AdvanceTo() error = %v, want nil", err)
		}

		if item.CurrentStageID != "qa" {
			t.Errorf("CurrentStageID = %v, want qa", item.CurrentStageID)
		}
		if len(item.History) != 2 {
			t.Fatalf("History length = %v, want 2", len(item.History))
		}
		last := item.History[1]
		if last.StageID != "qa" || last.ActorID != "operator-2" || last.Notes != "looks good" {
			t.Errorf("History[1] = %+v, want qa entry by operator-2", last)
		}
		if len(item.DomainEvents) != 1 || item.DomainEvents[0].EventType() != "item.advanced" {
			t.Errorf("DomainEvents = %v, want single item.advanced", item.DomainEvents)
		}
	})

	t.Run("rejects paused item", func(t *testing.T) {
		item, w := newTestItem(t)
		if err := item.Pause("operator-1", "shift end"); err != nil {
			t.Fatalf("Pause() error = %v", err)
		}
		qa, _ := w.StageByID("qa")
		if err := item.AdvanceTo(qa, "operator-1", nil, ""); !errors.Is(err, ErrItemNotActive) {
			t.Errorf("AdvanceTo() error = %v, want %v", err, ErrItemNotActive)
		}
	})
}

func TestItem_Complete(t *testing.T) {
	item, w := newTestItem(t)
	qa, _ := w.StageByID("qa")
	if err := item.AdvanceTo(qa, "operator-1", nil, ""); err != nil {
		t.Fatalf("AdvanceTo() error = %v", err)
	}
	item.ClearDomainEvents()

	if err := item.Complete(qa, "operator-1", []CompletedAction{{ActionID: "final", Completed: true}}, "done"); err != nil {
		t.Fatalf("Complete() error = %v, want nil", err)
	}

	if item.Status != ItemStatusCompleted {
		t.Errorf("Status = %v, want %v", item.Status, ItemStatusCompleted)
	}
	if item.CompletedAt == nil {
		t.Error("CompletedAt = nil, want timestamp")
	}
	if item.FinalStageName != "Quality Check" {
		t.Errorf("FinalStageName = %v, want Quality Check", item.FinalStageName)
	}
	// Completion annotates the last entry rather than appending a new one.
	if len(item.History) != 2 {
		t.Errorf("History length = %v, want 2", len(item.History))
	}
	if len(item.DomainEvents) != 1 || item.DomainEvents[0].EventType() != "item.completed" {
		t.Errorf("DomainEvents = %v, want single item.completed", item.DomainEvents)
	}

	t.Run("completing twice fails", func(t *testing.T) {
		if err := item.Complete(qa, "operator-1", nil, ""); !errors.Is(err, ErrItemAlreadyCompleted) {
			t.Errorf("Complete() error = %v, want %v", err, ErrItemAlreadyCompleted)
		}
	})
}

// =============================================================================
// Pause / Resume Tests
// =============================================================================

func TestItem_PauseResume(t *testing.T) {
	item, _ := newTestItem(t)
	item.ClearDomainEvents()

	if err := item.Pause("operator-1", "material shortage"); err != nil {
		t.Fatalf("Pause() error = %v, want nil", err)
	}
	if item.Status != ItemStatusPaused {
		t.Errorf("Status = %v, want %v", item.Status, ItemStatusPaused)
	}

	t.Run("pausing twice fails", func(t *testing.T) {
		if err := item.Pause("operator-1", ""); !errors.Is(err, ErrItemNotActive) {
			t.Errorf("Pause() error = %v, want %v", err, ErrItemNotActive)
		}
	})

	if err := item.Resume("operator-2"); err != nil {
		t.Fatalf("Resume() error = %v, want nil", err)
	}
	if item.Status != ItemStatusActive {
		t.Errorf("Status = %v, want %v", item.Status, ItemStatusActive)
	}

	t.Run("resuming an active item fails", func(t *testing.T) {
		if err := item.Resume("operator-2"); !errors.Is(err, ErrItemNotPaused) {
			t.Errorf("Resume() error = %v, want %v", err, ErrItemNotPaused)
		}
	})
}

// =============================================================================
// Location Tests
// =============================================================================

func TestItem_MoveTo(t *testing.T) {
	item, _ := newTestItem(t)
	item.ClearDomainEvents()

	item.MoveTo("loc-1", "operator-1")
	if item.CurrentLocationID != "loc-1" {
		t.Errorf("CurrentLocationID = %v, want loc-1", item.CurrentLocationID)
	}

	item.MoveTo("loc-2", "operator-1")
	if item.CurrentLocationID != "loc-2" {
		t.Errorf("CurrentLocationID = %v, want loc-2", item.CurrentLocationID)
	}

	if len(item.DomainEvents) != 2 {
		t.Fatalf("DomainEvents length = %v, want 2", len(item.DomainEvents))
	}
	moved, ok := item.DomainEvents[1].(*ItemMovedEvent)
	if !ok {
		t.Fatalf("DomainEvents[1] = %T, want *ItemMovedEvent", item.DomainEvents[1])
	}
	if moved.FromLocationID != "loc-1" || moved.ToLocationID != "loc-2" {
		t.Errorf("ItemMovedEvent = %+v, want loc-1 -> loc-2", moved)
	}
}

func TestItem_EnteredCurrentStageAt(t *testing.T) {
	item, w := newTestItem(t)
	first := item.EnteredCurrentStageAt()
	if !first.Equal(item.History[0].EnteredAt) {
		t.Errorf("EnteredCurrentStageAt() = %v, want %v", first, item.History[0].EnteredAt)
	}

	qa, _ := w.StageByID("qa")
	if err := item.AdvanceTo(qa, "operator-1", nil, ""); err != nil {
		t.Fatalf("AdvanceTo() error = %v", err)
	}
	if !item.EnteredCurrentStageAt().Equal(item.History[1].EnteredAt) {
		t.Error("EnteredCurrentStageAt() should track the latest history entry")
	}
}
