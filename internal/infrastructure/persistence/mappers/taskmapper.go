package mappers

import (
	"huddle/internal/domain/task"
	"huddle/internal/infrastructure/persistence/models"
)

// TaskMapper handles the conversion between Task domain entities and persistence models.
type TaskMapper interface {
	ToModel(entity *task.Task) *models.TaskModel
	ToDomain(model *models.TaskModel) *task.Task
}

// TaskMapperImpl is the concrete implementation of TaskMapper.
type TaskMapperImpl struct{}

// NewTaskMapper creates a new TaskMapper.
func NewTaskMapper() TaskMapper {
	return &TaskMapperImpl{}
}

// ToModel converts a domain entity to a persistence model.
func (m *TaskMapperImpl) ToModel(entity *task.Task) *models.TaskModel {
	if entity == nil {
		return nil
	}
	return &models.TaskModel{
		ID:          entity.ID,
		SID:         entity.SID,
		RoomSID:     entity.RoomSID,
		Title:       entity.Title,
		Description: entity.Description,
		Status:      string(entity.Status),
		CreatedAt:   entity.CreatedAt,
		UpdatedAt:   entity.UpdatedAt,
	}
}

// ToDomain converts a persistence model to a domain entity.
func (m *TaskMapperImpl) ToDomain(model *models.TaskModel) *task.Task {
	if model == nil {
		return nil
	}
	return &task.Task{
		ID:          model.ID,
		SID:         model.SID,
		RoomSID:     model.RoomSID,
		Title:       model.Title,
		Description: model.Description,
		Status:      task.Status(model.Status),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}
