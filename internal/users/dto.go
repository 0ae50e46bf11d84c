package users

import (
	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
	"github.com/meshilogapp/meshilog-backend/pkg/enums"
)

// UpsertUserDTO carries the identity fields delivered by the OAuth provider.
type UpsertUserDTO struct {
	ExternalID  string
	DisplayName string
	Email       *string
	AvatarURL   *string
	Role        enums.UserRole
}

// ToModel maps the DTO onto a fresh user row.
func (d UpsertUserDTO) ToModel() *models.User {
	role := d.Role
	if !role.IsValid() {
		role = enums.UserRoleUser
	}
	return &models.User{
		ExternalID:   d.ExternalID,
		DisplayName:  d.DisplayName,
		Email:        d.Email,
		AvatarURL:    d.AvatarURL,
		Role:         role,
		ReminderTime: "18:00",
	}
}
