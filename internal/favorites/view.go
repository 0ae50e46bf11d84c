package favorites

import (
	"time"

	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
	"github.com/meshilogapp/meshilog-backend/pkg/enums"
)

// View is the client-facing shape of one favorite template.
type View struct {
	ID         int64              `json:"id"`
	DishName   string             `json:"dishName"`
	Category   enums.MealCategory `json:"category"`
	Note       *string            `json:"note,omitempty"`
	UsageCount int                `json:"usageCount"`
	LastUsedAt *time.Time         `json:"lastUsedAt,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// NewView maps a stored favorite to its client shape.
func NewView(favorite models.FavoriteMeal) View {
	return View{
		ID:         favorite.ID,
		DishName:   favorite.DishName,
		Category:   favorite.Category,
		Note:       favorite.Note,
		UsageCount: favorite.UsageCount,
		LastUsedAt: favorite.LastUsedAt,
		CreatedAt:  favorite.CreatedAt,
	}
}

// NewViews maps a favorite list, returning an empty slice for no rows.
func NewViews(favorites []models.FavoriteMeal) []View {
	views := make([]View, 0, len(favorites))
	for _, favorite := range favorites {
		views = append(views, NewView(favorite))
	}
	return views
}
