package users

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	pkgauth "github.com/meshilogapp/meshilog-backend/pkg/auth"
	"github.com/meshilogapp/meshilog-backend/pkg/config"
	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
	"github.com/meshilogapp/meshilog-backend/pkg/enums"
	pkgerrors "github.com/meshilogapp/meshilog-backend/pkg/errors"
	"gorm.io/gorm"
)

var reminderTimeRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

type usersRepository interface {
	Create(ctx context.Context, dto UpsertUserDTO) (*models.User, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, dto UpsertUserDTO) error
	UpdateSettings(ctx context.Context, id int64, enabled bool, reminderTime string) error
}

// LoginInput carries the verified identity posted after the OAuth exchange.
type LoginInput struct {
	ExternalID  string
	DisplayName string
	Email       *string
	AvatarURL   *string
}

// LoginResult bundles the upserted user with a freshly minted access token.
type LoginResult struct {
	User  *models.User
	Token string
}

// NotificationSettings is the user-facing slice of the user row.
type NotificationSettings struct {
	Enabled      bool   `json:"enabled"`
	ReminderTime string `json:"reminderTime"`
}

// Service owns identity upserts and notification preferences.
type Service interface {
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	Me(ctx context.Context, userID int64) (*models.User, error)
	Settings(ctx context.Context, userID int64) (*NotificationSettings, error)
	UpdateSettings(ctx context.Context, userID int64, enabled bool, reminderTime string) (*NotificationSettings, error)
}

// ServiceParams packages the service dependencies.
type ServiceParams struct {
	Repo  usersRepository
	JWT   config.JWTConfig
	Owner config.OwnerConfig
}

type service struct {
	repo  usersRepository
	jwt   config.JWTConfig
	owner config.OwnerConfig
	now   func() time.Time
}

// NewService builds the users service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "users repository required")
	}
	return &service{
		repo:  params.Repo,
		jwt:   params.JWT,
		owner: params.Owner,
		now:   time.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	externalID := strings.TrimSpace(input.ExternalID)
	if externalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "external id is required")
	}
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "display name is required")
	}

	dto := UpsertUserDTO{
		ExternalID:  externalID,
		DisplayName: displayName,
		Email:       input.Email,
		AvatarURL:   input.AvatarURL,
		Role:        s.roleFor(externalID),
	}

	user, err := s.repo.FindByExternalID(ctx, externalID)
	switch {
	case err == nil:
		if err := s.repo.UpdateProfile(ctx, user.ID, dto); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user profile")
		}
		user.DisplayName = dto.DisplayName
		if dto.Email != nil {
			user.Email = dto.Email
		}
		if dto.AvatarURL != nil {
			user.AvatarURL = dto.AvatarURL
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		user, err = s.repo.Create(ctx, dto)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	token, err := pkgauth.MintAccessToken(s.jwt, s.now(), pkgauth.AccessTokenPayload{
		UserID:     user.ID,
		ExternalID: user.ExternalID,
		Role:       user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &LoginResult{User: user, Token: token}, nil
}

func (s *service) Me(ctx context.Context, userID int64) (*models.User, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	return user, nil
}

func (s *service) Settings(ctx context.Context, userID int64) (*NotificationSettings, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &NotificationSettings{
		Enabled:      user.NotificationsEnabled,
		ReminderTime: user.ReminderTime,
	}, nil
}

func (s *service) UpdateSettings(ctx context.Context, userID int64, enabled bool, reminderTime string) (*NotificationSettings, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	reminderTime = strings.TrimSpace(reminderTime)
	if !reminderTimeRe.MatchString(reminderTime) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reminder time must be HH:MM")
	}
	if err := s.repo.UpdateSettings(ctx, userID, enabled, reminderTime); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update settings")
	}
	return &NotificationSettings{Enabled: enabled, ReminderTime: reminderTime}, nil
}

func (s *service) roleFor(externalID string) enums.UserRole {
	if s.owner.ExternalID != "" && externalID == s.owner.ExternalID {
		return enums.UserRoleAdmin
	}
	return enums.UserRoleUser
}
