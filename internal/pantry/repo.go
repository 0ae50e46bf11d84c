package pantry

import (
	"context"

	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes pantry item persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a pantry repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a pantry item.
func (r *Repository) Create(ctx context.Context, item *models.PantryItem) (*models.PantryItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// ListByUser returns a user's personal pantry items.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]models.PantryItem, error) {
	var rows []models.PantryItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND group_id IS NULL", userID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByGroup returns the shared pantry for a group.
func (r *Repository) ListByGroup(ctx context.Context, groupID int64) ([]models.PantryItem, error) {
	var rows []models.PantryItem
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID loads one pantry item.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.PantryItem, error) {
	var row models.PantryItem
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Update persists the mutable fields of an item.
func (r *Repository) Update(ctx context.Context, item *models.PantryItem) error {
	return r.db.WithContext(ctx).
		Model(&models.PantryItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"name":        item.Name,
			"quantity":    item.Quantity,
			"unit":        item.Unit,
			"category":    item.Category,
			"expiry_date": item.ExpiryDate,
			"low_stock":   item.LowStock,
		}).Error
}
