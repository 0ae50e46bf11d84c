package meals

import (
	"time"

	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
	"github.com/meshilogapp/meshilog-backend/pkg/enums"
)

// View is the client-facing shape of one meal record.
type View struct {
	ID            int64              `json:"id"`
	GroupID       *int64             `json:"groupId,omitempty"`
	MealDate      string             `json:"mealDate"`
	MealType      enums.MealType     `json:"mealType"`
	DishName      string             `json:"dishName"`
	Category      enums.MealCategory `json:"category"`
	CategoryLabel string             `json:"categoryLabel"`
	Note          *string            `json:"note,omitempty"`
	ImageURL      *string            `json:"imageUrl,omitempty"`
	IsFavorite    bool               `json:"isFavorite"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// NewView maps a stored record to its client shape.
func NewView(record models.MealRecord) View {
	return View{
		ID:            record.ID,
		GroupID:       record.GroupID,
		MealDate:      record.MealDate,
		MealType:      record.MealType,
		DishName:      record.DishName,
		Category:      record.Category,
		CategoryLabel: record.Category.Label(),
		Note:          record.Note,
		ImageURL:      record.ImageURL,
		IsFavorite:    record.IsFavorite,
		CreatedAt:     record.CreatedAt,
	}
}

// NewViews maps a record list, returning an empty slice for no rows.
func NewViews(records []models.MealRecord) []View {
	views := make([]View, 0, len(records))
	for _, record := range records {
		views = append(views, NewView(record))
	}
	return views
}
