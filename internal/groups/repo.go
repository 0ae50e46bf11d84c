package groups

import (
	"context"

	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
	"github.com/meshilogapp/meshilog-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository exposes group and membership persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a groups repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateGroup inserts a group row.
func (r *Repository) CreateGroup(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

// CreateMember inserts a membership row.
func (r *Repository) CreateMember(ctx context.Context, member *models.GroupMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// FindByID loads a group by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// FindByInviteCode loads a group by its invite code.
func (r *Repository) FindByInviteCode(ctx context.Context, code string) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).Where("invite_code = ?", code).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// InviteCodeExists reports whether any group already uses the code.
func (r *Repository) InviteCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Group{}).
		Where("invite_code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MemberExists reports whether the user already belongs to the group.
func (r *Repository) MemberExists(ctx context.Context, groupID, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteMember removes one membership row. Deleting an absent row is a no-op.
func (r *Repository) DeleteMember(ctx context.Context, groupID, userID int64) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{}).Error
}

// DeleteMembers removes every membership row for a group.
func (r *Repository) DeleteMembers(ctx context.Context, groupID int64) error {
	return r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Delete(&models.GroupMember{}).Error
}

// DeleteGroup removes the group row.
func (r *Repository) DeleteGroup(ctx context.Context, groupID int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", groupID).
		Delete(&models.Group{}).Error
}

// MemberInfo is one group member annotated with their display name.
type MemberInfo struct {
	UserID      int64            `json:"userId"`
	DisplayName string           `json:"displayName"`
	Role        enums.MemberRole `json:"role"`
}

// ListMembers returns the group's members joined with user display names.
func (r *Repository) ListMembers(ctx context.Context, groupID int64) ([]MemberInfo, error) {
	var rows []MemberInfo
	err := r.db.WithContext(ctx).
		Table("group_members").
		Select("group_members.user_id, users.display_name, group_members.role").
		Joins("JOIN users ON users.id = group_members.user_id").
		Where("group_members.group_id = ?", groupID).
		Order("group_members.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GroupWithRole is a group annotated with the querying user's role in it.
type GroupWithRole struct {
	models.Group
	Role enums.MemberRole `json:"role"`
}

// ListUserGroups returns every group the user belongs to with their role.
func (r *Repository) ListUserGroups(ctx context.Context, userID int64) ([]GroupWithRole, error) {
	var rows []GroupWithRole
	err := r.db.WithContext(ctx).
		Table("groups").
		Select("groups.*, group_members.role").
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ?", userID).
		Order("groups.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
