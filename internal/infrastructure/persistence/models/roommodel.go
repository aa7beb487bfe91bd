package models

import (
	"time"

	"huddle/internal/shared/constants"
)

// RoomModel represents the database persistence model for rooms.
type RoomModel struct {
	ID         uint   `gorm:"primarykey"`
	SID        string `gorm:"not null;size:18;uniqueIndex:idx_room_sid"`
	Code       string `gorm:"not null;size:6;index:idx_room_code"` // stored uppercase
	Name       string `gorm:"not null;size:100"`
	CreatorSID string `gorm:"not null;size:16;index:idx_room_creator"`
	IsActive   bool   `gorm:"not null;default:true;index:idx_room_active_expiry,priority:1"`
	ExpiresAt  time.Time `gorm:"not null;index:idx_room_active_expiry,priority:2"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName specifies the table name for GORM.
func (RoomModel) TableName() string {
	return constants.TableRooms
}
