package migration

import (
	"huddle/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.UserModel{},
		&models.RoomModel{},
		&models.WorkSessionModel{},
		&models.TaskModel{},
	}
}
