package controllers

import (
	"net/http"

	"github.com/meshilogapp/meshilog-backend/api/middleware"
	"github.com/meshilogapp/meshilog-backend/api/responses"
	"github.com/meshilogapp/meshilog-backend/api/validators"
	"github.com/meshilogapp/meshilog-backend/internal/guestsync"
	"github.com/meshilogapp/meshilog-backend/internal/users"
	pkgerrors "github.com/meshilogapp/meshilog-backend/pkg/errors"
	"github.com/meshilogapp/meshilog-backend/pkg/logger"
)

type loginPayload struct {
	ExternalID  string  `json:"externalId" validate:"required,max=255"`
	DisplayName string  `json:"displayName" validate:"required,max=255"`
	Email       *string `json:"email" validate:"omitempty,email"`
	AvatarURL   *string `json:"avatarUrl" validate:"omitempty,url"`
}

type migratePayload struct {
	Records []guestsync.LocalRecord `json:"records"`
}

// Login upserts the OAuth-verified identity and mints an access token.
func Login(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		var payload loginPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Login(ctx, users.LoginInput{
			ExternalID:  payload.ExternalID,
			DisplayName: payload.DisplayName,
			Email:       payload.Email,
			AvatarURL:   payload.AvatarURL,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"token": result.Token,
			"user":  users.NewView(*result.User),
		})
	}
}

// Me returns the authenticated user's profile.
func Me(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		user, err := svc.Me(ctx, middleware.UserIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, users.NewView(*user))
	}
}

// Logout acknowledges the client discarding its token. Access tokens are
// stateless, so there is nothing to revoke server-side.
func Logout(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]bool{"loggedOut": true})
	}
}

// MigrateGuestData moves the client's pre-authentication local records
// into the record store.
func MigrateGuestData(svc guestsync.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "migration service unavailable"))
			return
		}

		var payload migratePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Migrate(ctx, middleware.UserIDFromContext(ctx), payload.Records)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
