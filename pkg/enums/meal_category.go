package enums

import "fmt"

// MealCategory is the cuisine classification attached to every dish.
type MealCategory string

const (
	MealCategoryJapanese MealCategory = "japanese"
	MealCategoryWestern  MealCategory = "western"
	MealCategoryChinese  MealCategory = "chinese"
	MealCategoryOther    MealCategory = "other"
)

var validMealCategories = []MealCategory{
	MealCategoryJapanese,
	MealCategoryWestern,
	MealCategoryChinese,
	MealCategoryOther,
}

// String implements fmt.Stringer.
func (m MealCategory) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MealCategory.
func (m MealCategory) IsValid() bool {
	for _, candidate := range validMealCategories {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMealCategory converts raw input into a MealCategory.
func ParseMealCategory(value string) (MealCategory, error) {
	for _, candidate := range validMealCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid meal category %q", value)
}

// Label returns the Japanese display label for the category. The switch is
// exhaustive over the closed enumeration so a new category fails to compile
// here instead of silently falling through on the client.
func (m MealCategory) Label() string {
	switch m {
	case MealCategoryJapanese:
		return "和食"
	case MealCategoryWestern:
		return "洋食"
	case MealCategoryChinese:
		return "中華"
	case MealCategoryOther:
		return "その他"
	}
	return string(m)
}
