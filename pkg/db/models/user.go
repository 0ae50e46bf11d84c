package models

import (
	"time"

	"github.com/meshilogapp/meshilog-backend/pkg/enums"
)

// User represents the canonical identity entity. Rows are upserted on every
// successful authentication, keyed by the OAuth provider's subject id.
type User struct {
	ID                   int64          `gorm:"column:id;primaryKey;autoIncrement"`
	ExternalID           string         `gorm:"column:external_id;type:text;not null;uniqueIndex"`
	DisplayName          string         `gorm:"column:display_name;type:text;not null"`
	Email                *string        `gorm:"column:email;type:text"`
	AvatarURL            *string        `gorm:"column:avatar_url;type:text"`
	Role                 enums.UserRole `gorm:"column:role;type:text;not null;default:user"`
	NotificationsEnabled bool           `gorm:"column:notifications_enabled;not null;default:false"`
	ReminderTime         string         `gorm:"column:reminder_time;type:text;not null;default:'18:00'"`
	CreatedAt            time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
