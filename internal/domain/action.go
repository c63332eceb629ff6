package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Action errors
var (
	ErrInvalidActionType = errors.New("invalid action type")
	ErrDuplicateActionID = errors.New("duplicate action id within stage")
)

// ActionType represents the kind of work an operator performs at a stage
type ActionType string

const (
	ActionTypeScan        ActionType = "scan"
	ActionTypePhoto       ActionType = "photo"
	ActionTypeNote        ActionType = "note"
	ActionTypeMeasurement ActionType = "measurement"
	ActionTypeInspection  ActionType = "inspection"
	ActionTypeApproval    ActionType = "approval"
)

// IsValid checks if the action type is valid
func (t ActionType) IsValid() bool {
	switch t {
	case ActionTypeScan, ActionTypePhoto, ActionTypeNote,
		ActionTypeMeasurement, ActionTypeInspection, ActionTypeApproval:
		return true
	default:
		return false
	}
}

// ActionConfig holds the type-specific configuration for an action.
// Only the fields matching the action type are populated.
type ActionConfig struct {
	ExpectedPrefix string   `bson:"expectedPrefix,omitempty" json:"expectedPrefix,omitempty"` // scan
	MinCount       int      `bson:"minCount,omitempty" json:"minCount,omitempty"`             // photo
	Unit           string   `bson:"unit,omitempty" json:"unit,omitempty"`                     // measurement
	Min            *float64 `bson:"min,omitempty" json:"min,omitempty"`                       // measurement
	Max            *float64 `bson:"max,omitempty" json:"max,omitempty"`                       // measurement
	ChecklistItems []string `bson:"checklistItems,omitempty" json:"checklistItems,omitempty"` // inspection
	RequiredRole   string   `bson:"requiredRole,omitempty" json:"requiredRole,omitempty"`     // approval
}

// Action represents a unit of work defined on a workflow stage
type Action struct {
	ActionID    string       `bson:"actionId" json:"actionId"`
	Type        ActionType   `bson:"type" json:"type"`
	Label       string       `bson:"label" json:"label"`
	Description string       `bson:"description,omitempty" json:"description,omitempty"`
	Required    bool         `bson:"required" json:"required"`
	Config      ActionConfig `bson:"config,omitempty" json:"config,omitempty"`
}

// Validate checks the action definition itself
func (a Action) Validate() error {
	if !a.Type.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidActionType, a.Type)
	}
	if a.Type == ActionTypeMeasurement && a.Config.Min != nil && a.Config.Max != nil {
		if *a.Config.Min > *a.Config.Max {
			return fmt.Errorf("action %s: measurement min %v exceeds max %v", a.ActionID, *a.Config.Min, *a.Config.Max)
		}
	}
	if a.Type == ActionTypePhoto && a.Config.MinCount < 0 {
		return fmt.Errorf("action %s: photo minCount must not be negative", a.ActionID)
	}
	return nil
}

// CompletedAction records an operator's completion of a stage action.
// The payload fields used depend on the action type.
type CompletedAction struct {
	ActionID     string   `bson:"actionId" json:"actionId"`
	Completed    bool     `bson:"completed" json:"completed"`
	Value        string   `bson:"value,omitempty" json:"value,omitempty"`               // scan data, approval role
	NumericValue *float64 `bson:"numericValue,omitempty" json:"numericValue,omitempty"` // measurement reading
	Count        int      `bson:"count,omitempty" json:"count,omitempty"`               // photos taken
	CheckedItems []string `bson:"checkedItems,omitempty" json:"checkedItems,omitempty"` // inspection checklist
	Notes        string   `bson:"notes,omitempty" json:"notes,omitempty"`
}

// MissingActionsError reports required actions that were not completed
type MissingActionsError struct {
	Labels []string
}

func (e *MissingActionsError) Error() string {
	return "required actions not completed: " + strings.Join(e.Labels, ", ")
}

// CompletionError reports a completion payload that fails the action's config
type CompletionError struct {
	ActionLabel string
	Reason      string
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("action %q: %s", e.ActionLabel, e.Reason)
}

// ValidateCompletion checks a completion payload against the action configuration
func (a Action) ValidateCompletion(ca CompletedAction) error {
	switch a.Type {
	case ActionTypeScan:
		if a.Config.ExpectedPrefix != "" && !strings.HasPrefix(ca.Value, a.Config.ExpectedPrefix) {
			return &CompletionError{ActionLabel: a.Label, Reason: fmt.Sprintf("scanned value must start with %q", a.Config.ExpectedPrefix)}
		}
	case ActionTypePhoto:
		if a.Config.MinCount > 0 && ca.Count < a.Config.MinCount {
			return &CompletionError{ActionLabel: a.Label, Reason: fmt.Sprintf("requires at least %d photos, got %d", a.Config.MinCount, ca.Count)}
		}
	case ActionTypeMeasurement:
		if ca.NumericValue == nil {
			return &CompletionError{ActionLabel: a.Label, Reason: "measurement value is required"}
		}
		if a.Config.Min != nil && *ca.NumericValue < *a.Config.Min {
			return &CompletionError{ActionLabel: a.Label, Reason: fmt.Sprintf("value %v below minimum %v %s", *ca.NumericValue, *a.Config.Min, a.Config.Unit)}
		}
		if a.Config.Max != nil && *ca.NumericValue > *a.Config.Max {
			return &CompletionError{ActionLabel: a.Label, Reason: fmt.Sprintf("value %v above maximum %v %s", *ca.NumericValue, *a.Config.Max, a.Config.Unit)}
		}
	case ActionTypeInspection:
		if len(a.Config.ChecklistItems) > 0 {
			checked := make(map[string]bool, len(ca.CheckedItems))
			for _, item := range ca.CheckedItems {
				checked[item] = true
			}
			for _, item := range a.Config.ChecklistItems {
				if !checked[item] {
					return &CompletionError{ActionLabel: a.Label, Reason: fmt.Sprintf("checklist item %q not checked", item)}
				}
			}
		}
	case ActionTypeApproval:
		if a.Config.RequiredRole != "" && ca.Value != a.Config.RequiredRole {
			return &CompletionError{ActionLabel: a.Label, Reason: fmt.Sprintf("approval requires role %q", a.Config.RequiredRole)}
		}
	}
	return nil
}

// ValidateCompletedActions checks that every required action of a stage is
// completed and that each completion payload satisfies its action config.
func ValidateCompletedActions(stage *Stage, completed []CompletedAction) error {
	byID := make(map[string]CompletedAction, len(completed))
	for _, ca := range completed {
		byID[ca.ActionID] = ca
	}

	var missing []string
	for _, action := range stage.Actions {
		ca, ok := byID[action.ActionID]
		if action.Required && (!ok || !ca.Completed) {
			missing = append(missing, action.Label)
			continue
		}
		if ok && ca.Completed {
			if err := action.ValidateCompletion(ca); err != nil {
				return err
			}
		}
	}

	if len(missing) > 0 {
		return &MissingActionsError{Labels: missing}
	}
	return nil
}
