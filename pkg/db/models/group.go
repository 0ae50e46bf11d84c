package models

import "time"

// Group is a shared household unit joined via an 8-character invite code.
type Group struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string    `gorm:"column:name;type:text;not null"`
	Description *string   `gorm:"column:description;type:text"`
	InviteCode  string    `gorm:"column:invite_code;type:text;not null;uniqueIndex"`
	OwnerID     int64     `gorm:"column:owner_id;not null;index"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
