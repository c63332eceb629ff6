package application

import (
	"github.com/prodtrack-platform/tracking-service/internal/domain"
)

// ToItemDTO converts a domain item to a DTO
func ToItemDTO(item *domain.Item) *ItemDTO {
	history := make([]HistoryEntryDTO, len(item.History))
	for i, entry := range item.History {
		history[i] = HistoryEntryDTO{
			StageID:          entry.StageID,
			StageName:        entry.StageName,
			EnteredAt:        entry.EnteredAt,
			ActorID:          entry.ActorID,
			CompletedActions: entry.CompletedActions,
			Notes:            entry.Notes,
		}
	}

	return &ItemDTO{
		ItemID:            item.ItemID,
		WorkflowID:        item.WorkflowID,
		CurrentStageID:    item.CurrentStageID,
		Status:            string(item.Status),
		CurrentLocationID: item.CurrentLocationID,
		Metadata:          item.Metadata,
		StartedAt:         item.StartedAt,
		CompletedAt:       item.CompletedAt,
		FinalStageName:    item.FinalStageName,
		History:           history,
		CreatedAt:         item.CreatedAt,
		UpdatedAt:         item.UpdatedAt,
	}
}

// ToItemDTOs converts a slice of domain items to DTOs
func ToItemDTOs(items []*domain.Item) []ItemDTO {
	dtos := make([]ItemDTO, len(items))
	for i, item := range items {
		dtos[i] = *ToItemDTO(item)
	}
	return dtos
}

// ToStageDTO converts a domain stage to a DTO
func ToStageDTO(stage *domain.Stage) *StageDTO {
	actions := make([]ActionDTO, len(stage.Actions))
	for i, action := range stage.Actions {
		actions[i] = ActionDTO{
			ActionID:    action.ActionID,
			Type:        string(action.Type),
			Label:       action.Label,
			Description: action.Description,
			Required:    action.Required,
			Config:      action.Config,
		}
	}

	return &StageDTO{
		StageID:                  stage.StageID,
		Name:                     stage.Name,
		Description:              stage.Description,
		Order:                    stage.Order,
		Actions:                  actions,
		EstimatedDurationMinutes: stage.EstimatedDurationMinutes,
		AllowedNextStageIDs:      stage.AllowedNextStageIDs,
		AssignedLocationIDs:      stage.AssignedLocationIDs,
		Terminal:                 stage.IsTerminal(),
	}
}

// ToWorkflowDTO converts a domain workflow to a DTO
func ToWorkflowDTO(workflow *domain.Workflow) *WorkflowDTO {
	stages := make([]StageDTO, len(workflow.Stages))
	for i := range workflow.Stages {
		stages[i] = *ToStageDTO(&workflow.Stages[i])
	}

	return &WorkflowDTO{
		WorkflowID:  workflow.WorkflowID,
		Name:        workflow.Name,
		Description: workflow.Description,
		Stages:      stages,
		Lifecycle:   string(workflow.Lifecycle),
		CreatedAt:   workflow.CreatedAt,
		UpdatedAt:   workflow.UpdatedAt,
	}
}

// ToWorkflowDTOs converts a slice of domain workflows to DTOs
func ToWorkflowDTOs(workflows []*domain.Workflow) []WorkflowDTO {
	dtos := make([]WorkflowDTO, len(workflows))
	for i, workflow := range workflows {
		dtos[i] = *ToWorkflowDTO(workflow)
	}
	return dtos
}

// ToLocationDTO converts a domain location to a DTO
func ToLocationDTO(location *domain.Location) *LocationDTO {
	return &LocationDTO{
		LocationID:       location.LocationID,
		Name:             location.Name,
		Type:             string(location.Type),
		QRCode:           location.QRCode,
		Capacity:         location.Capacity,
		CurrentOccupancy: location.CurrentOccupancy,
		AssignedStageID:  location.AssignedStageID,
		Lifecycle:        string(location.Lifecycle),
		CreatedAt:        location.CreatedAt,
		UpdatedAt:        location.UpdatedAt,
	}
}

// ToLocationDTOs converts a slice of domain locations to DTOs
func ToLocationDTOs(locations []*domain.Location) []LocationDTO {
	dtos := make([]LocationDTO, len(locations))
	for i, location := range locations {
		dtos[i] = *ToLocationDTO(location)
	}
	return dtos
}

// ToMovementDTO converts a movement record to a DTO
func ToMovementDTO(record *domain.MovementRecord) *MovementDTO {
	return &MovementDTO{
		ItemID:         record.ItemID,
		FromLocationID: record.FromLocationID,
		ToLocationID:   record.ToLocationID,
		MovedBy:        record.MovedBy,
		MovedAt:        record.MovedAt,
		Notes:          record.Notes,
	}
}

// ToMovementDTOs converts a slice of movement records to DTOs
func ToMovementDTOs(records []*domain.MovementRecord) []MovementDTO {
	dtos := make([]MovementDTO, len(records))
	for i, record := range records {
		dtos[i] = *ToMovementDTO(record)
	}
	return dtos
}

// ToStages converts stage inputs to domain stages
func ToStages(inputs []StageInput) []domain.Stage {
	stages := make([]domain.Stage, len(inputs))
	for i, input := range inputs {
		actions := make([]domain.Action, len(input.Actions))
		for j, actionInput := range input.Actions {
			actions[j] = domain.Action{
				ActionID:    actionInput.ActionID,
				Type:        domain.ActionType(actionInput.Type),
				Label:       actionInput.Label,
				Description: actionInput.Description,
				Required:    actionInput.Required,
				Config:      actionInput.Config,
			}
		}

		nextIDs := input.AllowedNextStageIDs
		if nextIDs == nil {
			nextIDs = []string{}
		}

		stages[i] = domain.Stage{
			StageID:                  input.StageID,
			Name:                     input.Name,
			Description:              input.Description,
			Order:                    input.Order,
			Actions:                  actions,
			EstimatedDurationMinutes: input.EstimatedDurationMinutes,
			AllowedNextStageIDs:      nextIDs,
		}
	}
	return stages
}
