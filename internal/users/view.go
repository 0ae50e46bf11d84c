package users

import (
	"time"

	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
	"github.com/meshilogapp/meshilog-backend/pkg/enums"
)

// View is the client-facing shape of the user profile.
type View struct {
	ID                   int64          `json:"id"`
	DisplayName          string         `json:"displayName"`
	Email                *string        `json:"email,omitempty"`
	AvatarURL            *string        `json:"avatarUrl,omitempty"`
	Role                 enums.UserRole `json:"role"`
	NotificationsEnabled bool           `json:"notificationsEnabled"`
	ReminderTime         string         `json:"reminderTime"`
	CreatedAt            time.Time      `json:"createdAt"`
}

// NewView maps a stored user to its client shape. The external identity is
// deliberately not exposed.
func NewView(user models.User) View {
	return View{
		ID:                   user.ID,
		DisplayName:          user.DisplayName,
		Email:                user.Email,
		AvatarURL:            user.AvatarURL,
		Role:                 user.Role,
		NotificationsEnabled: user.NotificationsEnabled,
		ReminderTime:         user.ReminderTime,
		CreatedAt:            user.CreatedAt,
	}
}
