package models

import (
	"time"

	"github.com/meshilogapp/meshilog-backend/pkg/enums"
)

// MealRecord is one logged lunch or dinner for a user on a calendar date.
// MealDate is a plain YYYY-MM-DD string rather than a timestamp: the client
// logs against calendar days in its own timezone. Uniqueness of
// (user, date, meal type) is a soft expectation checked by the guest-data
// sync, not a database constraint.
type MealRecord struct {
	ID         int64              `gorm:"column:id;primaryKey;autoIncrement"`
	UserID     int64              `gorm:"column:user_id;not null;index:meal_records_user_date_idx,priority:1"`
	GroupID    *int64             `gorm:"column:group_id;index"`
	MealDate   string             `gorm:"column:meal_date;type:text;not null;index:meal_records_user_date_idx,priority:2"`
	MealType   enums.MealType     `gorm:"column:meal_type;type:text;not null"`
	DishName   string             `gorm:"column:dish_name;type:text;not null"`
	Category   enums.MealCategory `gorm:"column:category;type:text;not null"`
	Note       *string            `gorm:"column:note;type:text"`
	ImageURL   *string            `gorm:"column:image_url;type:text"`
	IsFavorite bool               `gorm:"column:is_favorite;not null;default:false"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
