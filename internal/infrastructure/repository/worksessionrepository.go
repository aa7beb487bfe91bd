package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"huddle/internal/domain/room"
	"huddle/internal/infrastructure/persistence/mappers"
	"huddle/internal/infrastructure/persistence/models"
	"huddle/internal/shared/biztime"
)

type WorkSessionRepository struct {
	db     *gorm.DB
	mapper mappers.WorkSessionMapper
}

func NewWorkSessionRepository(db *gorm.DB) room.WorkSessionRepository {
	return &WorkSessionRepository{
		db:     db,
		mapper: mappers.NewWorkSessionMapper(),
	}
}

func (r *WorkSessionRepository) Create(ctx context.Context, entity *room.WorkSession) error {
	model := r.mapper.ToModel(entity)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create work session: %w", err)
	}
	entity.ID = model.ID
	return nil
}

// CloseOpenByUser finalizes the user's open work session and returns the
// computed report, or (nil, nil) when no session is open.
func (r *WorkSessionRepository) CloseOpenByUser(ctx context.Context, userSID string) (*room.WorkReport, error) {
	var model models.WorkSessionModel
	err := r.db.WithContext(ctx).
		Where("user_sid = ? AND logout_time IS NULL", userSID).
		Order("login_time DESC").
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open work session: %w", err)
	}

	entity := r.mapper.ToDomain(&model)
	report := entity.Close(biztime.NowUTC())

	err = r.db.WithContext(ctx).Model(&models.WorkSessionModel{}).
		Where("id = ?", entity.ID).
		Updates(map[string]interface{}{
			"logout_time":   entity.LogoutTime,
			"total_minutes": entity.TotalMinutes,
			"category":      string(report.Category),
		}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to close work session: %w", err)
	}
	return &report, nil
}

// CloseOpenByRoom finalizes every open work session in a room. Used on abolish.
func (r *WorkSessionRepository) CloseOpenByRoom(ctx context.Context, roomSID string) error {
	var sessionModels []models.WorkSessionModel
	err := r.db.WithContext(ctx).
		Where("room_sid = ? AND logout_time IS NULL", roomSID).
		Find(&sessionModels).Error
	if err != nil {
		return fmt.Errorf("failed to find open work sessions: %w", err)
	}

	now := biztime.NowUTC()
	for i := range sessionModels {
		entity := r.mapper.ToDomain(&sessionModels[i])
		report := entity.Close(now)
		err := r.db.WithContext(ctx).Model(&models.WorkSessionModel{}).
			Where("id = ?", entity.ID).
			Updates(map[string]interface{}{
				"logout_time":   entity.LogoutTime,
				"total_minutes": entity.TotalMinutes,
				"category":      string(report.Category),
			}).Error
		if err != nil {
			return fmt.Errorf("failed to close work session %d: %w", entity.ID, err)
		}
	}
	return nil
}
