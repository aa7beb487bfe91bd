package mappers

import (
	"huddle/internal/domain/room"
	"huddle/internal/infrastructure/persistence/models"
)

// WorkSessionMapper handles the conversion between WorkSession domain entities and persistence models.
type WorkSessionMapper interface {
	ToModel(entity *room.WorkSession) *models.WorkSessionModel
	ToDomain(model *models.WorkSessionModel) *room.WorkSession
}

// WorkSessionMapperImpl is the concrete implementation of WorkSessionMapper.
type WorkSessionMapperImpl struct{}

// NewWorkSessionMapper creates a new WorkSessionMapper.
func NewWorkSessionMapper() WorkSessionMapper {
	return &WorkSessionMapperImpl{}
}

// ToModel converts a domain entity to a persistence model.
func (m *WorkSessionMapperImpl) ToModel(entity *room.WorkSession) *models.WorkSessionModel {
	if entity == nil {
		return nil
	}
	model := &models.WorkSessionModel{
		ID:           entity.ID,
		UserSID:      entity.UserSID,
		RoomSID:      entity.RoomSID,
		LoginTime:    entity.LoginTime,
		LogoutTime:   entity.LogoutTime,
		TotalMinutes: entity.TotalMinutes,
	}
	if entity.Category != nil {
		category := string(*entity.Category)
		model.Category = &category
	}
	return model
}

// ToDomain converts a persistence model to a domain entity.
func (m *WorkSessionMapperImpl) ToDomain(model *models.WorkSessionModel) *room.WorkSession {
	if model == nil {
		return nil
	}
	entity := &room.WorkSession{
		ID:           model.ID,
		UserSID:      model.UserSID,
		RoomSID:      model.RoomSID,
		LoginTime:    model.LoginTime,
		LogoutTime:   model.LogoutTime,
		TotalMinutes: model.TotalMinutes,
	}
	if model.Category != nil {
		category := room.WorkCategory(*model.Category)
		entity.Category = &category
	}
	return entity
}
