package favorites

import (
	"context"
	"time"

	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes favorite meal persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a favorites repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a favorite template.
func (r *Repository) Create(ctx context.Context, favorite *models.FavoriteMeal) (*models.FavoriteMeal, error) {
	if err := r.db.WithContext(ctx).Create(favorite).Error; err != nil {
		return nil, err
	}
	return favorite, nil
}

// ListByUser returns a user's favorites, most used first.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]models.FavoriteMeal, error) {
	var rows []models.FavoriteMeal
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("usage_count DESC").
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID loads one favorite.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.FavoriteMeal, error) {
	var row models.FavoriteMeal
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// DeleteOwned removes a favorite only when the caller owns it, reporting
// whether a row was deleted.
func (r *Repository) DeleteOwned(ctx context.Context, id, userID int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.FavoriteMeal{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IncrementUsage bumps usage_count and stamps last_used_at.
func (r *Repository) IncrementUsage(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.FavoriteMeal{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"usage_count":  gorm.Expr("usage_count + 1"),
			"last_used_at": at,
		}).Error
}
