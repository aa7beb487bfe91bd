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
)

type UserRepository struct {
	db     *gorm.DB
	mapper mappers.UserMapper
}

func NewUserRepository(db *gorm.DB) room.UserRepository {
	return &UserRepository{
		db:     db,
		mapper: mappers.NewUserMapper(),
	}
}

func (r *UserRepository) Create(ctx context.Context, entity *room.User) error {
	model := r.mapper.ToModel(entity)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	entity.ID = model.ID
	return nil
}

func (r *UserRepository) GetBySID(ctx context.Context, sid string) (*room.User, error) {
	var model models.UserModel
	err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("user not found")
		}
		return nil, fmt.Errorf("failed to get user by SID: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *UserRepository) Update(ctx context.Context, entity *room.User) error {
	model := r.mapper.ToModel(entity)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("user not found")
	}
	return nil
}

// ClearMembership detaches the user from their current room.
func (r *UserRepository) ClearMembership(ctx context.Context, userSID string) error {
	err := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("sid = ?", userSID).
		Updates(map[string]interface{}{
			"current_room_sid": nil,
			"last_logout_at":   biztime.NowUTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to clear user membership: %w", err)
	}
	return nil
}

// ClearMembershipsByRoom detaches every member of a room. Used on abolish.
func (r *UserRepository) ClearMembershipsByRoom(ctx context.Context, roomSID string) error {
	err := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("current_room_sid = ?", roomSID).
		Updates(map[string]interface{}{
			"current_room_sid": nil,
			"last_logout_at":   biztime.NowUTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to clear room memberships: %w", err)
	}
	return nil
}
