package favorites

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/meshilogapp/meshilog-backend/internal/meals"
	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
	"github.com/meshilogapp/meshilog-backend/pkg/enums"
	pkgerrors "github.com/meshilogapp/meshilog-backend/pkg/errors"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type favoritesRepository interface {
	Create(ctx context.Context, favorite *models.FavoriteMeal) (*models.FavoriteMeal, error)
	ListByUser(ctx context.Context, userID int64) ([]models.FavoriteMeal, error)
	FindByID(ctx context.Context, id int64) (*models.FavoriteMeal, error)
	DeleteOwned(ctx context.Context, id, userID int64) (bool, error)
	IncrementUsage(ctx context.Context, id int64, at time.Time) error
}

type mealsWriter interface {
	Create(ctx context.Context, record *models.MealRecord) (*models.MealRecord, error)
}

// CreateFavoriteInput is the payload for saving a favorite template.
type CreateFavoriteInput struct {
	DishName string
	Category enums.MealCategory
	Note     *string
}

// UseInput names the slot the favorite is stamped into.
type UseInput struct {
	MealDate string
	MealType enums.MealType
	GroupID  *int64
}

// UseResult reports the updated favorite and the meal record created from it.
type UseResult struct {
	Favorite *models.FavoriteMeal
	Record   *models.MealRecord
}

// Service exposes favorite template operations.
type Service interface {
	Create(ctx context.Context, userID int64, input CreateFavoriteInput) (*models.FavoriteMeal, error)
	List(ctx context.Context, userID int64) ([]models.FavoriteMeal, error)
	Delete(ctx context.Context, userID, favoriteID int64) (bool, error)
	Use(ctx context.Context, userID, favoriteID int64, input UseInput) (*UseResult, error)
}

// ServiceParams packages the service dependencies. The factories default to
// the real repositories and exist so tests can substitute fakes inside the
// use transaction.
type ServiceParams struct {
	DB               txRunner
	Repo             favoritesRepository
	RepoFactory      func(tx *gorm.DB) favoritesRepository
	MealsRepoFactory func(tx *gorm.DB) mealsWriter
}

type service struct {
	db       txRunner
	repo     favoritesRepository
	repoFor  func(tx *gorm.DB) favoritesRepository
	mealsFor func(tx *gorm.DB) mealsWriter
	now      func() time.Time
}

// NewService builds the favorites service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "favorites repository required")
	}
	repoFor := params.RepoFactory
	if repoFor == nil {
		repoFor = func(tx *gorm.DB) favoritesRepository { return NewRepository(tx) }
	}
	mealsFor := params.MealsRepoFactory
	if mealsFor == nil {
		mealsFor = func(tx *gorm.DB) mealsWriter { return meals.NewRepository(tx) }
	}
	return &service{
		db:       params.DB,
		repo:     params.Repo,
		repoFor:  repoFor,
		mealsFor: mealsFor,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, userID int64, input CreateFavoriteInput) (*models.FavoriteMeal, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	name := strings.TrimSpace(input.DishName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dish name is required")
	}
	if utf8.RuneCountInString(name) > 255 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dish name too long")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown meal category")
	}

	favorite := &models.FavoriteMeal{
		UserID:   userID,
		DishName: name,
		Category: input.Category,
		Note:     input.Note,
	}
	created, err := s.repo.Create(ctx, favorite)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create favorite")
	}
	return created, nil
}

func (s *service) List(ctx context.Context, userID int64) ([]models.FavoriteMeal, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list favorites")
	}
	return rows, nil
}

func (s *service) Delete(ctx context.Context, userID, favoriteID int64) (bool, error) {
	if favoriteID <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "favorite id is required")
	}
	deleted, err := s.repo.DeleteOwned(ctx, favoriteID, userID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete favorite")
	}
	return deleted, nil
}

// Use bumps the favorite's usage counter and creates a meal record from its
// stored fields, in one transaction so partial state cannot survive a failure.
func (s *service) Use(ctx context.Context, userID, favoriteID int64, input UseInput) (*UseResult, error) {
	if favoriteID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "favorite id is required")
	}
	if !meals.ValidDate(input.MealDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "meal date must be YYYY-MM-DD")
	}
	if !input.MealType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "meal type must be lunch or dinner")
	}

	favorite, err := s.repo.FindByID(ctx, favoriteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "favorite not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup favorite")
	}
	if favorite.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "favorite belongs to another user")
	}

	var record *models.MealRecord
	usedAt := s.now()
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repoFor(tx).IncrementUsage(ctx, favoriteID, usedAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment usage")
		}
		created, err := s.mealsFor(tx).Create(ctx, &models.MealRecord{
			UserID:     userID,
			GroupID:    input.GroupID,
			MealDate:   input.MealDate,
			MealType:   input.MealType,
			DishName:   favorite.DishName,
			Category:   favorite.Category,
			Note:       favorite.Note,
			IsFavorite: true,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create meal from favorite")
		}
		record = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	favorite.UsageCount++
	favorite.LastUsedAt = &usedAt
	return &UseResult{Favorite: favorite, Record: record}, nil
}
