package controllers

import (
	"net/http"

	"github.com/meshilogapp/meshilog-backend/api/middleware"
	"github.com/meshilogapp/meshilog-backend/api/responses"
	"github.com/meshilogapp/meshilog-backend/api/validators"
	"github.com/meshilogapp/meshilog-backend/internal/favorites"
	"github.com/meshilogapp/meshilog-backend/internal/meals"
	"github.com/meshilogapp/meshilog-backend/pkg/enums"
	pkgerrors "github.com/meshilogapp/meshilog-backend/pkg/errors"
	"github.com/meshilogapp/meshilog-backend/pkg/logger"
)

type createFavoritePayload struct {
	DishName string  `json:"dishName" validate:"required,max=255"`
	Category string  `json:"category" validate:"required,mealcategory"`
	Note     *string `json:"note" validate:"omitempty,max=500"`
}

type useFavoritePayload struct {
	MealDate string `json:"mealDate" validate:"required,dateymd"`
	MealType string `json:"mealType" validate:"required,mealtype"`
	GroupID  *int64 `json:"groupId" validate:"omitempty,gt=0"`
}

// FavoriteCreate saves a dish template the user can stamp into any slot.
func FavoriteCreate(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorite service unavailable"))
			return
		}

		var payload createFavoritePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		category, err := enums.ParseMealCategory(payload.Category)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
			return
		}

		favorite, err := svc.Create(ctx, middleware.UserIDFromContext(ctx), favorites.CreateFavoriteInput{
			DishName: payload.DishName,
			Category: category,
			Note:     payload.Note,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, favorites.NewView(*favorite))
	}
}

// FavoriteList returns the user's favorites, most used first.
func FavoriteList(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorite service unavailable"))
			return
		}

		rows, err := svc.List(ctx, middleware.UserIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, favorites.NewViews(rows))
	}
}

// FavoriteUse stamps the favorite into a meal slot and bumps its counter.
func FavoriteUse(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorite service unavailable"))
			return
		}

		favoriteID, err := idParam(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload useFavoritePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		mealType, err := enums.ParseMealType(payload.MealType)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid meal type"))
			return
		}

		result, err := svc.Use(ctx, middleware.UserIDFromContext(ctx), favoriteID, favorites.UseInput{
			MealDate: payload.MealDate,
			MealType: mealType,
			GroupID:  payload.GroupID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"favorite": favorites.NewView(*result.Favorite),
			"record":   meals.NewView(*result.Record),
		})
	}
}

// FavoriteDelete removes one of the user's favorites.
func FavoriteDelete(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorite service unavailable"))
			return
		}

		favoriteID, err := idParam(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		deleted, err := svc.Delete(ctx, middleware.UserIDFromContext(ctx), favoriteID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": deleted})
	}
}
