package models

import (
	"time"

	"huddle/internal/shared/constants"
)

// WorkSessionModel represents the database persistence model for work sessions.
type WorkSessionModel struct {
	ID           uint   `gorm:"primarykey"`
	UserSID      string `gorm:"not null;size:16;index:idx_work_user_login,priority:1"`
	RoomSID      string `gorm:"not null;size:18;index:idx_work_room"`
	LoginTime    time.Time `gorm:"not null;index:idx_work_user_login,priority:2,sort:desc"`
	LogoutTime   *time.Time
	TotalMinutes *int
	Category     *string `gorm:"size:10"` // half, full, overtime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the table name for GORM.
func (WorkSessionModel) TableName() string {
	return constants.TableWorkSessions
}
