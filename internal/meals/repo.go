package meals

import (
	"context"

	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
	"github.com/meshilogapp/meshilog-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository exposes meal record persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a meals repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new meal record.
func (r *Repository) Create(ctx context.Context, record *models.MealRecord) (*models.MealRecord, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// ListByDate returns all of a user's records for one calendar date.
func (r *Repository) ListByDate(ctx context.Context, userID int64, date string) ([]models.MealRecord, error) {
	var rows []models.MealRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND meal_date = ?", userID, date).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByRange returns records with meal_date in [start, end], newest date first.
func (r *Repository) ListByRange(ctx context.Context, userID int64, start, end string) ([]models.MealRecord, error) {
	var rows []models.MealRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND meal_date >= ? AND meal_date <= ?", userID, start, end).
		Order("meal_date DESC").
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListRecent returns the newest records ordered by (date desc, created_at desc).
func (r *Repository) ListRecent(ctx context.Context, userID int64, limit int) ([]models.MealRecord, error) {
	var rows []models.MealRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("meal_date DESC").
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindSlot loads the record for one (user, date, meal type) slot if present.
func (r *Repository) FindSlot(ctx context.Context, userID int64, date string, mealType enums.MealType) (*models.MealRecord, error) {
	var row models.MealRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND meal_date = ? AND meal_type = ?", userID, date, mealType).
		Order("created_at ASC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByUsersForDate returns all records for a set of users on one date.
// Used by the group meal aggregation.
func (r *Repository) ListByUsersForDate(ctx context.Context, userIDs []int64, date string) ([]models.MealRecord, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var rows []models.MealRecord
	err := r.db.WithContext(ctx).
		Where("user_id IN ? AND meal_date = ?", userIDs, date).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteOwned removes a record only when it belongs to the caller, reporting
// whether a row was actually deleted.
func (r *Repository) DeleteOwned(ctx context.Context, id, userID int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.MealRecord{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
