package meals

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
	"github.com/meshilogapp/meshilog-backend/pkg/enums"
	pkgerrors "github.com/meshilogapp/meshilog-backend/pkg/errors"
	"gorm.io/gorm"
)

const (
	maxDishNameLen = 255
	maxNoteLen     = 500
	maxRecentLimit = 50
)

type mealsRepository interface {
	Create(ctx context.Context, record *models.MealRecord) (*models.MealRecord, error)
	ListByDate(ctx context.Context, userID int64, date string) ([]models.MealRecord, error)
	ListByRange(ctx context.Context, userID int64, start, end string) ([]models.MealRecord, error)
	ListRecent(ctx context.Context, userID int64, limit int) ([]models.MealRecord, error)
	FindSlot(ctx context.Context, userID int64, date string, mealType enums.MealType) (*models.MealRecord, error)
	DeleteOwned(ctx context.Context, id, userID int64) (bool, error)
}

// CreateMealInput holds the fields accepted when logging a meal.
type CreateMealInput struct {
	GroupID    *int64
	MealDate   string
	MealType   enums.MealType
	DishName   string
	Category   enums.MealCategory
	Note       *string
	ImageURL   *string
	IsFavorite bool
}

// Service exposes the meal record operations.
type Service interface {
	Create(ctx context.Context, userID int64, input CreateMealInput) (*models.MealRecord, error)
	ListByDate(ctx context.Context, userID int64, date string) ([]models.MealRecord, error)
	ListByRange(ctx context.Context, userID int64, start, end string) ([]models.MealRecord, error)
	ListRecent(ctx context.Context, userID int64, limit int) ([]models.MealRecord, error)
	TodayLunch(ctx context.Context, userID int64, date string) (*models.MealRecord, error)
	Delete(ctx context.Context, userID, recordID int64) (bool, error)
}

// ServiceParams packages the service dependencies.
type ServiceParams struct {
	Repo mealsRepository
}

type service struct {
	repo mealsRepository
}

// NewService builds the meals service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "meals repository required")
	}
	return &service{repo: params.Repo}, nil
}

// ValidDate reports whether value is a real YYYY-MM-DD calendar date.
func ValidDate(value string) bool {
	if len(value) != 10 {
		return false
	}
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}

// ValidateInput checks a meal payload against the input contract. Shared with
// the guest sync, which validates each local record through the same rules.
func ValidateInput(input CreateMealInput) error {
	if !ValidDate(input.MealDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "meal date must be YYYY-MM-DD")
	}
	if !input.MealType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "meal type must be lunch or dinner")
	}
	if !input.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown meal category")
	}
	name := strings.TrimSpace(input.DishName)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "dish name is required")
	}
	if utf8.RuneCountInString(name) > maxDishNameLen {
		return pkgerrors.New(pkgerrors.CodeValidation, "dish name too long")
	}
	if input.Note != nil && utf8.RuneCountInString(*input.Note) > maxNoteLen {
		return pkgerrors.New(pkgerrors.CodeValidation, "note too long")
	}
	return nil
}

func (s *service) Create(ctx context.Context, userID int64, input CreateMealInput) (*models.MealRecord, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if err := ValidateInput(input); err != nil {
		return nil, err
	}

	record := &models.MealRecord{
		UserID:     userID,
		GroupID:    input.GroupID,
		MealDate:   input.MealDate,
		MealType:   input.MealType,
		DishName:   strings.TrimSpace(input.DishName),
		Category:   input.Category,
		Note:       input.Note,
		ImageURL:   input.ImageURL,
		IsFavorite: input.IsFavorite,
	}

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create meal record")
	}
	return created, nil
}

func (s *service) ListByDate(ctx context.Context, userID int64, date string) ([]models.MealRecord, error) {
	if !ValidDate(date) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD")
	}
	rows, err := s.repo.ListByDate(ctx, userID, date)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list meals by date")
	}
	return rows, nil
}

func (s *service) ListByRange(ctx context.Context, userID int64, start, end string) ([]models.MealRecord, error) {
	if !ValidDate(start) || !ValidDate(end) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "range bounds must be YYYY-MM-DD")
	}
	if end < start {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "range end precedes start")
	}
	rows, err := s.repo.ListByRange(ctx, userID, start, end)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list meals by range")
	}
	return rows, nil
}

func (s *service) ListRecent(ctx context.Context, userID int64, limit int) ([]models.MealRecord, error) {
	if limit <= 0 || limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	rows, err := s.repo.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent meals")
	}
	return rows, nil
}

func (s *service) TodayLunch(ctx context.Context, userID int64, date string) (*models.MealRecord, error) {
	if !ValidDate(date) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD")
	}
	row, err := s.repo.FindSlot(ctx, userID, date, enums.MealTypeLunch)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find lunch")
	}
	return row, nil
}

// Delete removes a caller-owned record. Deleting a record the caller does not
// own, or one that no longer exists, reports deleted=false without an error.
func (s *service) Delete(ctx context.Context, userID, recordID int64) (bool, error) {
	if recordID <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "record id is required")
	}
	deleted, err := s.repo.DeleteOwned(ctx, recordID, userID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete meal record")
	}
	return deleted, nil
}
