package mappers

import (
	"huddle/internal/domain/room"
	"huddle/internal/infrastructure/persistence/models"
)

// UserMapper handles the conversion between User domain entities and persistence models.
type UserMapper interface {
	ToModel(entity *room.User) *models.UserModel
	ToDomain(model *models.UserModel) *room.User
}

// UserMapperImpl is the concrete implementation of UserMapper.
type UserMapperImpl struct{}

// NewUserMapper creates a new UserMapper.
func NewUserMapper() UserMapper {
	return &UserMapperImpl{}
}

// ToModel converts a domain entity to a persistence model.
func (m *UserMapperImpl) ToModel(entity *room.User) *models.UserModel {
	if entity == nil {
		return nil
	}
	model := &models.UserModel{
		ID:           entity.ID,
		SID:          entity.SID,
		DisplayName:  entity.DisplayName,
		AvatarTag:    entity.AvatarTag,
		LastLoginAt:  entity.LastLoginAt,
		LastLogoutAt: entity.LastLogoutAt,
		CreatedAt:    entity.CreatedAt,
	}
	if entity.CurrentRoomSID != "" {
		roomSID := entity.CurrentRoomSID
		model.CurrentRoomSID = &roomSID
	}
	return model
}

// ToDomain converts a persistence model to a domain entity.
func (m *UserMapperImpl) ToDomain(model *models.UserModel) *room.User {
	if model == nil {
		return nil
	}
	entity := &room.User{
		ID:           model.ID,
		SID:          model.SID,
		DisplayName:  model.DisplayName,
		AvatarTag:    model.AvatarTag,
		LastLoginAt:  model.LastLoginAt,
		LastLogoutAt: model.LastLogoutAt,
		CreatedAt:    model.CreatedAt,
	}
	if model.CurrentRoomSID != nil {
		entity.CurrentRoomSID = *model.CurrentRoomSID
	}
	return entity
}
