package models

import (
	"time"

	"github.com/meshilogapp/meshilog-backend/pkg/enums"
)

// GroupMember links a user to a group with a role. Uniqueness of
// (group, user) is enforced by the join service before insert.
type GroupMember struct {
	ID        int64            `gorm:"column:id;primaryKey;autoIncrement"`
	GroupID   int64            `gorm:"column:group_id;not null;index:group_members_group_id_idx"`
	UserID    int64            `gorm:"column:user_id;not null;index:group_members_user_id_idx"`
	Role      enums.MemberRole `gorm:"column:role;type:text;not null;default:member"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
}
