package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/meshilogapp/meshilog-backend/api/middleware"
	"github.com/meshilogapp/meshilog-backend/api/responses"
	"github.com/meshilogapp/meshilog-backend/api/validators"
	"github.com/meshilogapp/meshilog-backend/internal/pantry"
	pkgerrors "github.com/meshilogapp/meshilog-backend/pkg/errors"
	"github.com/meshilogapp/meshilog-backend/pkg/logger"
)

type pantryItemPayload struct {
	Name       string  `json:"name" validate:"required,max=255"`
	Quantity   string  `json:"quantity" validate:"max=100"`
	Unit       string  `json:"unit" validate:"max=50"`
	Category   string  `json:"category" validate:"max=100"`
	ExpiryDate *string `json:"expiryDate" validate:"omitempty,dateymd"`
	LowStock   bool    `json:"lowStock"`
	GroupID    *int64  `json:"groupId" validate:"omitempty,gt=0"`
}

func (p pantryItemPayload) toInput() pantry.ItemInput {
	return pantry.ItemInput{
		Name:       p.Name,
		Quantity:   p.Quantity,
		Unit:       p.Unit,
		Category:   p.Category,
		ExpiryDate: p.ExpiryDate,
		LowStock:   p.LowStock,
		GroupID:    p.GroupID,
	}
}

// PantryCreate adds an ingredient to the personal or group pantry.
func PantryCreate(svc pantry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pantry service unavailable"))
			return
		}

		var payload pantryItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.Create(ctx, middleware.UserIDFromContext(ctx), payload.toInput())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, pantry.NewView(*item))
	}
}

// PantryList returns the personal pantry, or a group's pantry when the
// groupId query parameter is present.
func PantryList(svc pantry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pantry service unavailable"))
			return
		}

		var groupID *int64
		if raw := strings.TrimSpace(r.URL.Query().Get("groupId")); raw != "" {
			value, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || value <= 0 {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "groupId must be a positive integer"))
				return
			}
			groupID = &value
		}

		items, err := svc.List(ctx, middleware.UserIDFromContext(ctx), groupID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, pantry.NewViews(items))
	}
}

// PantryUpdate rewrites one pantry entry.
func PantryUpdate(svc pantry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pantry service unavailable"))
			return
		}

		itemID, err := idParam(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload pantryItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.Update(ctx, middleware.UserIDFromContext(ctx), itemID, payload.toInput())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, pantry.NewView(*item))
	}
}
