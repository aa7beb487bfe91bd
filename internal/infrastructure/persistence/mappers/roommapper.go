package mappers

import (
	"huddle/internal/domain/room"
	"huddle/internal/infrastructure/persistence/models"
)

// RoomMapper handles the conversion between Room domain entities and persistence models.
type RoomMapper interface {
	ToModel(entity *room.Room) *models.RoomModel
	ToDomain(model *models.RoomModel) *room.Room
}

// RoomMapperImpl is the concrete implementation of RoomMapper.
type RoomMapperImpl struct{}

// NewRoomMapper creates a new RoomMapper.
func NewRoomMapper() RoomMapper {
	return &RoomMapperImpl{}
}

// ToModel converts a domain entity to a persistence model.
func (m *RoomMapperImpl) ToModel(entity *room.Room) *models.RoomModel {
	if entity == nil {
		return nil
	}
	return &models.RoomModel{
		ID:         entity.ID,
		SID:        entity.SID,
		Code:       entity.Code,
		Name:       entity.Name,
		CreatorSID: entity.CreatorSID,
		IsActive:   entity.IsActive,
		ExpiresAt:  entity.ExpiresAt,
		CreatedAt:  entity.CreatedAt,
	}
}

// ToDomain converts a persistence model to a domain entity.
func (m *RoomMapperImpl) ToDomain(model *models.RoomModel) *room.Room {
	if model == nil {
		return nil
	}
	return &room.Room{
		ID:         model.ID,
		SID:        model.SID,
		Code:       model.Code,
		Name:       model.Name,
		CreatorSID: model.CreatorSID,
		IsActive:   model.IsActive,
		ExpiresAt:  model.ExpiresAt,
		CreatedAt:  model.CreatedAt,
	}
}
