package groups

import (
	"context"
	"errors"
	"strings"

	"github.com/meshilogapp/meshilog-backend/internal/meals"
	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
	"github.com/meshilogapp/meshilog-backend/pkg/enums"
	pkgerrors "github.com/meshilogapp/meshilog-backend/pkg/errors"
	"gorm.io/gorm"
)

const maxGroupNameLen = 100

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type groupsRepository interface {
	CreateGroup(ctx context.Context, group *models.Group) error
	CreateMember(ctx context.Context, member *models.GroupMember) error
	FindByID(ctx context.Context, id int64) (*models.Group, error)
	FindByInviteCode(ctx context.Context, code string) (*models.Group, error)
	InviteCodeExists(ctx context.Context, code string) (bool, error)
	MemberExists(ctx context.Context, groupID, userID int64) (bool, error)
	DeleteMember(ctx context.Context, groupID, userID int64) error
	DeleteMembers(ctx context.Context, groupID int64) error
	DeleteGroup(ctx context.Context, groupID int64) error
	ListMembers(ctx context.Context, groupID int64) ([]MemberInfo, error)
	ListUserGroups(ctx context.Context, userID int64) ([]GroupWithRole, error)
}

type mealsReader interface {
	ListByUsersForDate(ctx context.Context, userIDs []int64, date string) ([]models.MealRecord, error)
}

// MemberMeal is one member's meal record annotated with their display name.
type MemberMeal struct {
	models.MealRecord
	DisplayName string `json:"displayName"`
}

// Service exposes group lifecycle and aggregation operations.
type Service interface {
	Create(ctx context.Context, ownerID int64, name string, description *string) (*models.Group, error)
	Join(ctx context.Context, userID int64, inviteCode string) (*models.Group, error)
	Leave(ctx context.Context, groupID, userID int64) error
	Delete(ctx context.Context, groupID, callerID int64) error
	Get(ctx context.Context, groupID, callerID int64) (*models.Group, error)
	Members(ctx context.Context, groupID, callerID int64) ([]MemberInfo, error)
	UserGroups(ctx context.Context, userID int64) ([]GroupWithRole, error)
	MealsForDate(ctx context.Context, groupID, callerID int64, date string) ([]MemberMeal, error)
}

// ServiceParams packages the service dependencies. RepoFactory defaults to
// NewRepository and exists so tests can substitute fakes inside transactions.
type ServiceParams struct {
	DB          txRunner
	Repo        groupsRepository
	Meals       mealsReader
	RepoFactory func(tx *gorm.DB) groupsRepository
}

type service struct {
	db      txRunner
	repo    groupsRepository
	meals   mealsReader
	repoFor func(tx *gorm.DB) groupsRepository
}

// NewService builds the groups service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "groups repository required")
	}
	if params.Meals == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "meals reader required")
	}
	factory := params.RepoFactory
	if factory == nil {
		factory = func(tx *gorm.DB) groupsRepository { return NewRepository(tx) }
	}
	return &service{
		db:      params.DB,
		repo:    params.Repo,
		meals:   params.Meals,
		repoFor: factory,
	}, nil
}

// Create inserts the group and the owner membership in one transaction.
func (s *service) Create(ctx context.Context, ownerID int64, name string, description *string) (*models.Group, error) {
	if ownerID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group name is required")
	}
	if len([]rune(name)) > maxGroupNameLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group name too long")
	}

	code, err := s.freshInviteCode(ctx)
	if err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:        name,
		Description: description,
		InviteCode:  code,
		OwnerID:     ownerID,
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repoFor(tx)
		if err := repo.CreateGroup(ctx, group); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create group")
		}
		member := &models.GroupMember{
			GroupID: group.ID,
			UserID:  ownerID,
			Role:    enums.MemberRoleOwner,
		}
		if err := repo.CreateMember(ctx, member); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create owner membership")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (s *service) freshInviteCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		code, err := generateInviteCode()
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate invite code")
		}
		exists, err := s.repo.InviteCodeExists(ctx, code)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check invite code")
		}
		if !exists {
			return code, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique invite code")
}

// Join adds the caller to the group behind the invite code. An unknown code is
// NotFound; an existing membership is Conflict.
func (s *service) Join(ctx context.Context, userID int64, inviteCode string) (*models.Group, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	inviteCode = strings.ToUpper(strings.TrimSpace(inviteCode))
	if !validInviteCode(inviteCode) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invite code must be 8 characters")
	}

	group, err := s.repo.FindByInviteCode(ctx, inviteCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invalid invite code")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup invite code")
	}

	exists, err := s.repo.MemberExists(ctx, group.ID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "already a member of this group")
	}

	member := &models.GroupMember{
		GroupID: group.ID,
		UserID:  userID,
		Role:    enums.MemberRoleMember,
	}
	if err := s.repo.CreateMember(ctx, member); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create membership")
	}
	return group, nil
}

// Leave removes the caller's membership. Leaving a group the caller is not in
// is a silent no-op.
func (s *service) Leave(ctx context.Context, groupID, userID int64) error {
	if groupID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "group id is required")
	}
	if err := s.repo.DeleteMember(ctx, groupID, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete membership")
	}
	return nil
}

// Delete removes the group and all memberships in one transaction. Only the
// stored owner may delete.
func (s *service) Delete(ctx context.Context, groupID, callerID int64) error {
	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.OwnerID != callerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the group owner can delete it")
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repoFor(tx)
		if err := repo.DeleteMembers(ctx, groupID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete memberships")
		}
		if err := repo.DeleteGroup(ctx, groupID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete group")
		}
		return nil
	})
}

func (s *service) Get(ctx context.Context, groupID, callerID int64) (*models.Group, error) {
	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *service) Members(ctx context.Context, groupID, callerID int64) ([]MemberInfo, error) {
	if _, err := s.findGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}
	members, err := s.repo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
	}
	return members, nil
}

func (s *service) UserGroups(ctx context.Context, userID int64) ([]GroupWithRole, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	groups, err := s.repo.ListUserGroups(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user groups")
	}
	return groups, nil
}

// MealsForDate aggregates every member's records for one date, annotated with
// display names. A group with no members yields an empty list.
func (s *service) MealsForDate(ctx context.Context, groupID, callerID int64, date string) ([]MemberMeal, error) {
	if !meals.ValidDate(date) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD")
	}
	if _, err := s.findGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	members, err := s.repo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
	}
	if len(members) == 0 {
		return []MemberMeal{}, nil
	}

	ids := make([]int64, len(members))
	names := make(map[int64]string, len(members))
	for i, m := range members {
		ids[i] = m.UserID
		names[m.UserID] = m.DisplayName
	}

	records, err := s.meals.ListByUsersForDate(ctx, ids, date)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list member meals")
	}

	out := make([]MemberMeal, len(records))
	for i, record := range records {
		out[i] = MemberMeal{MealRecord: record, DisplayName: names[record.UserID]}
	}
	return out, nil
}

func (s *service) findGroup(ctx context.Context, groupID int64) (*models.Group, error) {
	if groupID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group id is required")
	}
	group, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "group not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup group")
	}
	return group, nil
}

func (s *service) requireMember(ctx context.Context, groupID, userID int64) error {
	ok, err := s.repo.MemberExists(ctx, groupID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this group")
	}
	return nil
}

