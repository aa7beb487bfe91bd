package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"huddle/internal/domain/room"
	"huddle/internal/infrastructure/persistence/mappers"
	"huddle/internal/infrastructure/persistence/models"
	"huddle/internal/shared/biztime"
	"huddle/internal/shared/errors"
	"huddle/internal/shared/id"
)

type RoomRepository struct {
	db     *gorm.DB
	mapper mappers.RoomMapper
}

func NewRoomRepository(db *gorm.DB) room.RoomRepository {
	return &RoomRepository{
		db:     db,
		mapper: mappers.NewRoomMapper(),
	}
}

func (r *RoomRepository) Create(ctx context.Context, entity *room.Room) error {
	model := r.mapper.ToModel(entity)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	entity.ID = model.ID
	return nil
}

func (r *RoomRepository) GetBySID(ctx context.Context, sid string) (*room.Room, error) {
	var model models.RoomModel
	err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("room not found")
		}
		return nil, fmt.Errorf("failed to get room by SID: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

// GetActiveByCode resolves a joinable room by its normalized code.
func (r *RoomRepository) GetActiveByCode(ctx context.Context, code string) (*room.Room, error) {
	var model models.RoomModel
	err := r.db.WithContext(ctx).
		Where("code = ? AND is_active = ? AND expires_at > ?", id.NormalizeRoomCode(code), true, biztime.NowUTC()).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("room not found or expired")
		}
		return nil, fmt.Errorf("failed to get room by code: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *RoomRepository) Update(ctx context.Context, entity *room.Room) error {
	model := r.mapper.ToModel(entity)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update room: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("room not found")
	}
	return nil
}
