package models

import (
	"time"

	"github.com/meshilogapp/meshilog-backend/pkg/enums"
)

// FavoriteMeal is a per-user template used to stamp out new meal records.
type FavoriteMeal struct {
	ID         int64              `gorm:"column:id;primaryKey;autoIncrement"`
	UserID     int64              `gorm:"column:user_id;not null;index"`
	DishName   string             `gorm:"column:dish_name;type:text;not null"`
	Category   enums.MealCategory `gorm:"column:category;type:text;not null"`
	Note       *string            `gorm:"column:note;type:text"`
	UsageCount int                `gorm:"column:usage_count;not null;default:0"`
	LastUsedAt *time.Time         `gorm:"column:last_used_at"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
