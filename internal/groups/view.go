package groups

import (
	"time"

	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
	"github.com/meshilogapp/meshilog-backend/pkg/enums"

	"github.com/meshilogapp/meshilog-backend/internal/meals"
)

// View is the client-facing shape of one group.
type View struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	InviteCode  string    `json:"inviteCode"`
	OwnerID     int64     `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RoleView is a group annotated with the caller's role in it.
type RoleView struct {
	View
	Role enums.MemberRole `json:"role"`
}

// MemberMealView is one member's meal annotated with their display name.
type MemberMealView struct {
	meals.View
	UserID      int64  `json:"userId"`
	DisplayName string `json:"displayName"`
}

// NewView maps a stored group to its client shape.
func NewView(group models.Group) View {
	return View{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
		InviteCode:  group.InviteCode,
		OwnerID:     group.OwnerID,
		CreatedAt:   group.CreatedAt,
	}
}

// NewRoleViews maps role-annotated groups, returning an empty slice for no rows.
func NewRoleViews(rows []GroupWithRole) []RoleView {
	views := make([]RoleView, 0, len(rows))
	for _, row := range rows {
		views = append(views, RoleView{View: NewView(row.Group), Role: row.Role})
	}
	return views
}

// NewMemberMealViews maps the per-member meal aggregation.
func NewMemberMealViews(rows []MemberMeal) []MemberMealView {
	views := make([]MemberMealView, 0, len(rows))
	for _, row := range rows {
		views = append(views, MemberMealView{
			View:        meals.NewView(row.MealRecord),
			UserID:      row.UserID,
			DisplayName: row.DisplayName,
		})
	}
	return views
}
