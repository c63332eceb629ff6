package domain

import (
	"errors"
	"testing"
)

func twoStageWorkflow(t *testing.T) *Workflow {
	t.Helper()
	w, err := NewWorkflow("wf-1", "Assembly", "", []Stage{
		{StageID: "cut", Name: "Cutting", Order: 0, AllowedNextStageIDs: []string{"qa"}},
		{StageID: "qa", Name: "Quality Check", Order: 1, AllowedNextStageIDs: []string{}},
	})
	if err != nil {
		t.Fatalf("NewWorkflow() error = %v, want nil", err)
	}
	return w
}

// =============================================================================
// Stage Graph Validation Tests
// =============================================================================

func TestValidateStages(t *testing.T) {
	tests := []struct {
		name    string
		stages  []Stage
		wantErr error
	}{
		{
			name:    "empty workflow is rejected",
			stages:  []Stage{},
			wantErr: ErrWorkflowNoStages,
		},
		{
			name: "duplicate stage ids are rejected",
			stages: []Stage{
				{StageID: "cut", Name: "Cutting"},
				{StageID: "cut", Name: "Cutting Again"},
			},
			wantErr: ErrDuplicateStageID,
		},
		{
			name: "unknown next stage reference is rejected",
			stages: []Stage{
				{StageID: "cut", Name: "Cutting", AllowedNextStageIDs: []string{"missing"}},
			},
			wantErr: ErrUnknownNextStage,
		},
		{
			name: "invalid action type is rejected",
			stages: []Stage{
				{StageID: "cut", Name: "Cutting", Actions: []Action{
					{ActionID: "a1", Type: ActionType("teleport"), Label: "Teleport"},
				}},
			},
			wantErr: ErrInvalidActionType,
		},
		{
			name: "duplicate action ids within a stage are rejected",
			stages: []Stage{
				{StageID: "cut", Name: "Cutting", Actions: []Action{
					{ActionID: "a1", Type: ActionTypeScan, Label: "Scan"},
					{ActionID: "a1", Type: ActionTypeNote, Label: "Note"},
				}},
			},
			wantErr: ErrDuplicateActionID,
		},
		{
			name: "valid single terminal stage",
			stages: []Stage{
				{StageID: "done", Name: "Done"},
			},
			wantErr: nil,
		},
		{
			name: "valid linear graph",
			stages: []Stage{
				{StageID: "cut", Name: "Cutting", AllowedNextStageIDs: []string{"qa"}},
				{StageID: "qa", Name: "Quality Check"},
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStages(tt.stages)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateStages() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateStages() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateStages_MeasurementRange(t *testing.T) {
	min, max := 10.0, 5.0
	stages := []Stage{
		{StageID: "measure", Name: "Measure", Actions: []Action{
			{ActionID: "m1", Type: ActionTypeMeasurement, Label: "Width", Config: ActionConfig{Unit: "mm", Min: &min, Max: &max}},
		}},
	}
	if err := ValidateStages(stages); err == nil {
		t.Error("ValidateStages() error = nil, want error for min > max")
	}
}

// =============================================================================
// Workflow Aggregate Tests
// =============================================================================

func TestNewWorkflow(t *testing.T) {
	t.Run("creates active workflow with created event", func(t *testing.T) {
		w := twoStageWorkflow(t)

		if w.Lifecycle != LifecycleActive {
			t.Errorf("Lifecycle = %v, want %v", w.Lifecycle, LifecycleActive)
		}
		if len(w.DomainEvents) != 1 {
			t.Fatalf("DomainEvents length = %v, want 1", len(w.DomainEvents))
		}
		if w.DomainEvents[0].EventType() != "workflow.created" {
			t.Errorf("EventType = %v, want workflow.created", w.DomainEvents[0].EventType())
		}
	})

	t.Run("rejects missing name", func(t *testing.T) {
		_, err := NewWorkflow("wf-1", "", "", []Stage{{StageID: "s1", Name: "S1"}})
		if !errors.Is(err, ErrWorkflowNameMissing) {
			t.Errorf("NewWorkflow() error = %v, want %v", err, ErrWorkflowNameMissing)
		}
	})
}

func TestWorkflow_StageNavigation(t *testing.T) {
	w := twoStageWorkflow(t)

	t.Run("StageByID finds stages", func(t *testing.T) {
		stage, err := w.StageByID("qa")
		if err != nil {
			t.Fatalf("StageByID() error = %v, want nil", err)
		}
		if stage.Name != "Quality Check" {
			t.Errorf("Name = %v, want Quality Check", stage.Name)
		}
	})

	t.Run("StageByID rejects unknown stage", func(t *testing.T) {
		_, err := w.StageByID("missing")
		if !errors.Is(err, ErrStageNotFound) {
			t.Errorf("StageByID() error = %v, want %v", err, ErrStageNotFound)
		}
	})

	t.Run("FirstStage returns lowest order", func(t *testing.T) {
		if got := w.FirstStage().StageID; got != "cut" {
			t.Errorf("FirstStage() = %v, want cut", got)
		}
	})

	t.Run("AllowedNextStages resolves references", func(t *testing.T) {
		next, err := w.AllowedNextStages("cut")
		if err != nil {
			t.Fatalf("AllowedNextStages() error = %v, want nil", err)
		}
		if len(next) != 1 || next[0].StageID != "qa" {
			t.Errorf("AllowedNextStages() = %v, want [qa]", next)
		}
	})

	t.Run("terminal stage has no next stages", func(t *testing.T) {
		stage, _ := w.StageByID("qa")
		if !stage.IsTerminal() {
			t.Error("IsTerminal() = false, want true")
		}
	})
}

func TestWorkflow_Lifecycle(t *testing.T) {
	t.Run("archive hides from instantiation", func(t *testing.T) {
		w := twoStageWorkflow(t)
		if err := w.Archive(); err != nil {
			t.Fatalf("Archive() error = %v, want nil", err)
		}
		if w.Lifecycle != LifecycleArchived {
			t.Errorf("Lifecycle = %v, want %v", w.Lifecycle, LifecycleArchived)
		}
		if w.IsActive() {
			t.Error("IsActive() = true, want false")
		}
	})

	t.Run("mark deleted tombstones", func(t *testing.T) {
		w := twoStageWorkflow(t)
		w.MarkDeleted()
		if w.Lifecycle != LifecycleDeleted {
			t.Errorf("Lifecycle = %v, want %v", w.Lifecycle, LifecycleDeleted)
		}
	})

	t.Run("update rejected after delete", func(t *testing.T) {
		w := twoStageWorkflow(t)
		w.MarkDeleted()
		err := w.ApplyUpdate("New Name", "", w.Stages)
		if !errors.Is(err, ErrWorkflowDeleted) {
			t.Errorf("ApplyUpdate() error = %v, want %v", err, ErrWorkflowDeleted)
		}
	})
}

func TestWorkflow_ApplyUpdate(t *testing.T) {
	w := twoStageWorkflow(t)
	w.ClearDomainEvents()

	newStages := []Stage{
		{StageID: "cut", Name: "Cutting", Order: 0, AllowedNextStageIDs: []string{"polish"}},
		{StageID: "polish", Name: "Polishing", Order: 1, AllowedNextStageIDs: []string{"qa"}},
		{StageID: "qa", Name: "Quality Check", Order: 2},
	}
	if err := w.ApplyUpdate("Assembly v2", "revised", newStages); err != nil {
		t.Fatalf("ApplyUpdate() error = %v, want nil", err)
	}

	if len(w.Stages) != 3 {
		t.Errorf("Stages length = %v, want 3", len(w.Stages))
	}
	if w.Name != "Assembly v2" {
		t.Errorf("Name = %v, want Assembly v2", w.Name)
	}
	if len(w.DomainEvents) != 1 || w.DomainEvents[0].EventType() != "workflow.updated" {
		t.Errorf("DomainEvents = %v, want single workflow.updated", w.DomainEvents)
	}

	t.Run("invalid update leaves workflow unchanged", func(t *testing.T) {
		err := w.ApplyUpdate("Broken", "", []Stage{})
		if !errors.Is(err, ErrWorkflowNoStages) {
			t.Fatalf("ApplyUpdate() error = %v, want %v", err, ErrWorkflowNoStages)
		}
		if w.Name != "Assembly v2" {
			t.Errorf("Name = %v, want Assembly v2 after failed update", w.Name)
		}
	})
}
