package models

import (
	"time"

	"gorm.io/gorm"

	"huddle/internal/shared/constants"
)

// TaskModel represents the database persistence model for board tasks.
type TaskModel struct {
	ID          uint   `gorm:"primarykey"`
	SID         string `gorm:"not null;size:18;uniqueIndex:idx_task_sid"`
	RoomSID     string `gorm:"not null;size:18;index:idx_task_room"`
	Title       string `gorm:"not null;size:200"`
	Description string `gorm:"size:2000"`
	Status      string `gorm:"not null;default:todo;size:20"` // todo, in-progress, done
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for GORM.
func (TaskModel) TableName() string {
	return constants.TableTasks
}

// BeforeCreate hook for GORM.
func (m *TaskModel) BeforeCreate(tx *gorm.DB) error {
	if m.Status == "" {
		m.Status = "todo"
	}
	return nil
}
