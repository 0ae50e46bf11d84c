package pantry

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/meshilogapp/meshilog-backend/internal/meals"
	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
	pkgerrors "github.com/meshilogapp/meshilog-backend/pkg/errors"
	"gorm.io/gorm"
)

const maxItemNameLen = 255

type pantryRepository interface {
	Create(ctx context.Context, item *models.PantryItem) (*models.PantryItem, error)
	ListByUser(ctx context.Context, userID int64) ([]models.PantryItem, error)
	ListByGroup(ctx context.Context, groupID int64) ([]models.PantryItem, error)
	FindByID(ctx context.Context, id int64) (*models.PantryItem, error)
	Update(ctx context.Context, item *models.PantryItem) error
}

type membershipChecker interface {
	MemberExists(ctx context.Context, groupID, userID int64) (bool, error)
}

// ItemInput is the payload for creating or updating a pantry item.
// Quantity and unit are free text by contract; low-stock is client-set.
type ItemInput struct {
	Name       string
	Quantity   string
	Unit       string
	Category   string
	ExpiryDate *string
	LowStock   bool
	GroupID    *int64
}

// Service exposes the pantry operations.
type Service interface {
	Create(ctx context.Context, userID int64, input ItemInput) (*models.PantryItem, error)
	List(ctx context.Context, userID int64, groupID *int64) ([]models.PantryItem, error)
	Update(ctx context.Context, userID, itemID int64, input ItemInput) (*models.PantryItem, error)
}

// ServiceParams packages the service dependencies.
type ServiceParams struct {
	Repo    pantryRepository
	Members membershipChecker
}

type service struct {
	repo    pantryRepository
	members membershipChecker
}

// NewService builds the pantry service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pantry repository required")
	}
	if params.Members == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "membership checker required")
	}
	return &service{repo: params.Repo, members: params.Members}, nil
}

func validateInput(input ItemInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	if utf8.RuneCountInString(name) > maxItemNameLen {
		return pkgerrors.New(pkgerrors.CodeValidation, "item name too long")
	}
	if input.ExpiryDate != nil && !meals.ValidDate(*input.ExpiryDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "expiry date must be YYYY-MM-DD")
	}
	return nil
}

func (s *service) Create(ctx context.Context, userID int64, input ItemInput) (*models.PantryItem, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.GroupID != nil {
		if err := s.requireMember(ctx, *input.GroupID, userID); err != nil {
			return nil, err
		}
	}

	item := &models.PantryItem{
		UserID:     userID,
		GroupID:    input.GroupID,
		Name:       strings.TrimSpace(input.Name),
		Quantity:   strings.TrimSpace(input.Quantity),
		Unit:       strings.TrimSpace(input.Unit),
		Category:   strings.TrimSpace(input.Category),
		ExpiryDate: input.ExpiryDate,
		LowStock:   input.LowStock,
	}
	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pantry item")
	}
	return created, nil
}

// List returns the caller's personal pantry, or the shared pantry when a
// group id is given and the caller belongs to that group.
func (s *service) List(ctx context.Context, userID int64, groupID *int64) ([]models.PantryItem, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if groupID != nil {
		if err := s.requireMember(ctx, *groupID, userID); err != nil {
			return nil, err
		}
		rows, err := s.repo.ListByGroup(ctx, *groupID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list group pantry")
		}
		return rows, nil
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pantry")
	}
	return rows, nil
}

func (s *service) Update(ctx context.Context, userID, itemID int64, input ItemInput) (*models.PantryItem, error) {
	if itemID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pantry item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup pantry item")
	}

	// Personal items are owner-only; shared items are editable by any member.
	if item.GroupID != nil {
		if err := s.requireMember(ctx, *item.GroupID, userID); err != nil {
			return nil, err
		}
	} else if item.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "pantry item belongs to another user")
	}

	item.Name = strings.TrimSpace(input.Name)
	item.Quantity = strings.TrimSpace(input.Quantity)
	item.Unit = strings.TrimSpace(input.Unit)
	item.Category = strings.TrimSpace(input.Category)
	item.ExpiryDate = input.ExpiryDate
	item.LowStock = input.LowStock

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pantry item")
	}
	return item, nil
}

func (s *service) requireMember(ctx context.Context, groupID, userID int64) error {
	ok, err := s.members.MemberExists(ctx, groupID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this group")
	}
	return nil
}
