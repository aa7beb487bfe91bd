package models

import (
	"time"

	"huddle/internal/shared/constants"
)

// UserModel represents the database persistence model for identities.
type UserModel struct {
	ID             uint    `gorm:"primarykey"`
	SID            string  `gorm:"not null;size:16;uniqueIndex:idx_user_sid"` // external API identifier
	DisplayName    string  `gorm:"not null;size:100"`
	AvatarTag      string  `gorm:"not null;default:default;size:50"`
	CurrentRoomSID *string `gorm:"size:18;index:idx_user_current_room"` // nullable: not in any room
	LastLoginAt    *time.Time
	LastLogoutAt   *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName specifies the table name for GORM.
func (UserModel) TableName() string {
	return constants.TableUsers
}
