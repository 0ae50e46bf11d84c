package controllers

import (
	"net/http"

	"github.com/meshilogapp/meshilog-backend/api/middleware"
	"github.com/meshilogapp/meshilog-backend/api/responses"
	"github.com/meshilogapp/meshilog-backend/api/validators"
	"github.com/meshilogapp/meshilog-backend/internal/meals"
	"github.com/meshilogapp/meshilog-backend/pkg/enums"
	pkgerrors "github.com/meshilogapp/meshilog-backend/pkg/errors"
	"github.com/meshilogapp/meshilog-backend/pkg/logger"
)

type createMealPayload struct {
	GroupID    *int64  `json:"groupId" validate:"omitempty,gt=0"`
	MealDate   string  `json:"mealDate" validate:"required,dateymd"`
	MealType   string  `json:"mealType" validate:"required,mealtype"`
	DishName   string  `json:"dishName" validate:"required,max=255"`
	Category   string  `json:"category" validate:"required,mealcategory"`
	Note       *string `json:"note" validate:"omitempty,max=500"`
	ImageURL   *string `json:"imageUrl" validate:"omitempty,url"`
	IsFavorite bool    `json:"isFavorite"`
}

// MealCreate records one meal for the authenticated user.
func MealCreate(svc meals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "meal service unavailable"))
			return
		}

		var payload createMealPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		mealType, err := enums.ParseMealType(payload.MealType)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid meal type"))
			return
		}
		category, err := enums.ParseMealCategory(payload.Category)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
			return
		}

		record, err := svc.Create(ctx, middleware.UserIDFromContext(ctx), meals.CreateMealInput{
			GroupID:    payload.GroupID,
			MealDate:   payload.MealDate,
			MealType:   mealType,
			DishName:   payload.DishName,
			Category:   category,
			Note:       payload.Note,
			ImageURL:   payload.ImageURL,
			IsFavorite: payload.IsFavorite,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, meals.NewView(*record))
	}
}

// MealsByDate lists the user's meals for one calendar date.
func MealsByDate(svc meals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "meal service unavailable"))
			return
		}

		date, err := requiredQuery(r, "date")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		records, err := svc.ListByDate(ctx, middleware.UserIDFromContext(ctx), date)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, meals.NewViews(records))
	}
}

// MealsByRange lists the user's meals between two inclusive dates.
func MealsByRange(svc meals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "meal service unavailable"))
			return
		}

		start, err := requiredQuery(r, "startDate")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		end, err := requiredQuery(r, "endDate")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		records, err := svc.ListByRange(ctx, middleware.UserIDFromContext(ctx), start, end)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, meals.NewViews(records))
	}
}

// MealsRecent lists the user's most recent meals.
func MealsRecent(svc meals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "meal service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 50)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		records, err := svc.ListRecent(ctx, middleware.UserIDFromContext(ctx), limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, meals.NewViews(records))
	}
}

// MealTodayLunch returns the user's lunch for the date, or null.
func MealTodayLunch(svc meals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "meal service unavailable"))
			return
		}

		date, err := requiredQuery(r, "date")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		record, err := svc.TodayLunch(ctx, middleware.UserIDFromContext(ctx), date)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if record == nil {
			responses.WriteSuccess(w, nil)
			return
		}
		responses.WriteSuccess(w, meals.NewView(*record))
	}
}

// MealDelete removes one of the user's records. Deleting a record the
// user does not own is a quiet no-op.
func MealDelete(svc meals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "meal service unavailable"))
			return
		}

		recordID, err := idParam(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		deleted, err := svc.Delete(ctx, middleware.UserIDFromContext(ctx), recordID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": deleted})
	}
}
