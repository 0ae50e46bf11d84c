package models

import "time"

// PantryItem tracks one ingredient a user (or their group) keeps on hand.
// Quantity and unit are free text; the low-stock flag is set by the client.
type PantryItem struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID     int64     `gorm:"column:user_id;not null;index"`
	GroupID    *int64    `gorm:"column:group_id;index"`
	Name       string    `gorm:"column:name;type:text;not null"`
	Quantity   string    `gorm:"column:quantity;type:text;not null;default:''"`
	Unit       string    `gorm:"column:unit;type:text;not null;default:''"`
	Category   string    `gorm:"column:category;type:text;not null;default:''"`
	ExpiryDate *string   `gorm:"column:expiry_date;type:text"`
	LowStock   bool      `gorm:"column:low_stock;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
