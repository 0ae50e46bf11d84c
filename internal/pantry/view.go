package pantry

import (
	"time"

	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
)

// View is the client-facing shape of one pantry entry.
type View struct {
	ID         int64     `json:"id"`
	GroupID    *int64    `json:"groupId,omitempty"`
	Name       string    `json:"name"`
	Quantity   string    `json:"quantity"`
	Unit       string    `json:"unit"`
	Category   string    `json:"category"`
	ExpiryDate *string   `json:"expiryDate,omitempty"`
	LowStock   bool      `json:"lowStock"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NewView maps a stored pantry item to its client shape.
func NewView(item models.PantryItem) View {
	return View{
		ID:         item.ID,
		GroupID:    item.GroupID,
		Name:       item.Name,
		Quantity:   item.Quantity,
		Unit:       item.Unit,
		Category:   item.Category,
		ExpiryDate: item.ExpiryDate,
		LowStock:   item.LowStock,
		UpdatedAt:  item.UpdatedAt,
	}
}

// NewViews maps an item list, returning an empty slice for no rows.
func NewViews(items []models.PantryItem) []View {
	views := make([]View, 0, len(items))
	for _, item := range items {
		views = append(views, NewView(item))
	}
	return views
}
