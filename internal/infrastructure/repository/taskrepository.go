package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"huddle/internal/domain/task"
	"huddle/internal/infrastructure/persistence/mappers"
	"huddle/internal/infrastructure/persistence/models"
	"huddle/internal/shared/errors"
)

type TaskRepository struct {
	db     *gorm.DB
	mapper mappers.TaskMapper
}

func NewTaskRepository(db *gorm.DB) task.Repository {
	return &TaskRepository{
		db:     db,
		mapper: mappers.NewTaskMapper(),
	}
}

func (r *TaskRepository) Create(ctx context.Context, entity *task.Task) error {
	model := r.mapper.ToModel(entity)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	entity.ID = model.ID
	return nil
}

func (r *TaskRepository) GetBySID(ctx context.Context, sid string) (*task.Task, error) {
	var model models.TaskModel
	err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("task not found")
		}
		return nil, fmt.Errorf("failed to get task by SID: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *TaskRepository) ListByRoom(ctx context.Context, roomSID string) ([]*task.Task, error) {
	var taskModels []models.TaskModel
	err := r.db.WithContext(ctx).
		Where("room_sid = ?", roomSID).
		Order("created_at ASC, id ASC").
		Find(&taskModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]*task.Task, 0, len(taskModels))
	for i := range taskModels {
		tasks = append(tasks, r.mapper.ToDomain(&taskModels[i]))
	}
	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, entity *task.Task) error {
	model := r.mapper.ToModel(entity)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("task not found")
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, sid string) error {
	result := r.db.WithContext(ctx).Where("sid = ?", sid).Delete(&models.TaskModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("task not found")
	}
	return nil
}
