// Package guestsync moves meal records created on-device before authentication
// into the authoritative store. It runs once per login transition; the client
// clears its local cache after receiving the result, so failed items are only
// recoverable from the result payload.
package guestsync

import (
	"context"
	"errors"

	"github.com/meshilogapp/meshilog-backend/internal/meals"
	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
	"github.com/meshilogapp/meshilog-backend/pkg/enums"
	pkgerrors "github.com/meshilogapp/meshilog-backend/pkg/errors"
	"gorm.io/gorm"
)

type slotStore interface {
	Create(ctx context.Context, record *models.MealRecord) (*models.MealRecord, error)
	FindSlot(ctx context.Context, userID int64, date string, mealType enums.MealType) (*models.MealRecord, error)
}

// LocalRecord is one device-cached meal record as posted by the client.
type LocalRecord struct {
	LocalID    string             `json:"localId"`
	MealDate   string             `json:"mealDate"`
	MealType   enums.MealType     `json:"mealType"`
	DishName   string             `json:"dishName"`
	Category   enums.MealCategory `json:"category"`
	Note       *string            `json:"note,omitempty"`
	ImageURL   *string            `json:"imageUrl,omitempty"`
	IsFavorite bool               `json:"isFavorite"`
	CreatedAt  string             `json:"createdAt"`
}

// ItemResult reports the outcome of one local record, tagged with the
// record's client-side identity so the app can reconcile its cache.
type ItemResult struct {
	LocalID        string `json:"localId"`
	LocalCreatedAt string `json:"localCreatedAt"`
	RecordID       int64  `json:"recordId,omitempty"`
	Migrated       bool   `json:"migrated"`
	Skipped        bool   `json:"skipped"`
	Error          string `json:"error,omitempty"`
}

// Result is the migration summary returned to the client.
type Result struct {
	MigratedCount int          `json:"migratedCount"`
	Items         []ItemResult `json:"items"`
}

// Service migrates guest local-cache records into the record store.
type Service interface {
	Migrate(ctx context.Context, userID int64, records []LocalRecord) (*Result, error)
}

// ServiceParams holds the dependencies for NewService.
type ServiceParams struct {
	Store slotStore
}

type service struct {
	store slotStore
}

// NewService builds the guest migration service.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, errors.New("guestsync: store is required")
	}
	return &service{store: params.Store}, nil
}

// Migrate inserts each local record unless a remote record already occupies
// the same user, date and meal type slot. Records are processed in array
// order and each attempt is wrapped independently so one failure never
// aborts the batch.
func (s *service) Migrate(ctx context.Context, userID int64, records []LocalRecord) (*Result, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity is required")
	}
	result := &Result{Items: make([]ItemResult, 0, len(records))}
	if len(records) == 0 {
		return result, nil
	}

	for _, record := range records {
		item := ItemResult{LocalID: record.LocalID, LocalCreatedAt: record.CreatedAt}

		if err := meals.ValidateInput(meals.CreateMealInput{
			MealDate: record.MealDate,
			MealType: record.MealType,
			DishName: record.DishName,
			Category: record.Category,
			Note:     record.Note,
			ImageURL: record.ImageURL,
		}); err != nil {
			item.Error = err.Error()
			result.Items = append(result.Items, item)
			continue
		}

		exists, err := s.slotTaken(ctx, userID, record.MealDate, record.MealType)
		if err != nil {
			item.Error = err.Error()
			result.Items = append(result.Items, item)
			continue
		}
		if exists {
			item.Skipped = true
			result.Items = append(result.Items, item)
			continue
		}

		inserted, err := s.store.Create(ctx, &models.MealRecord{
			UserID:     userID,
			MealDate:   record.MealDate,
			MealType:   record.MealType,
			DishName:   record.DishName,
			Category:   record.Category,
			Note:       record.Note,
			ImageURL:   record.ImageURL,
			IsFavorite: record.IsFavorite,
		})
		if err != nil {
			item.Error = err.Error()
			result.Items = append(result.Items, item)
			continue
		}

		item.RecordID = inserted.ID
		item.Migrated = true
		result.MigratedCount++
		result.Items = append(result.Items, item)
	}

	return result, nil
}

func (s *service) slotTaken(ctx context.Context, userID int64, date string, mealType enums.MealType) (bool, error) {
	_, err := s.store.FindSlot(ctx, userID, date, mealType)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}
