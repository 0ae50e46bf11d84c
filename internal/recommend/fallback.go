package recommend

// Recommendation is one suggested dinner dish.
type Recommendation struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

// ShoppingItem is one ingredient line of a generated shopping list.
type ShoppingItem struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// DefaultFallback is the fixed recommendation set served whenever the
// completion service cannot produce a usable answer. The client renders
// these indistinguishably from generated results.
func DefaultFallback() []Recommendation {
	return []Recommendation{
		{Name: "肉じゃが", Category: "japanese", Reason: "定番の家庭料理で、栄養バランスも良い一品です"},
		{Name: "鶏の照り焼き", Category: "japanese", Reason: "手軽に作れて、たんぱく質がしっかり摂れます"},
		{Name: "野菜炒め", Category: "chinese", Reason: "冷蔵庫の野菜を活用でき、短時間で完成します"},
	}
}

// DefaultShoppingFallback is the fixed shopping list served when list
// generation fails.
func DefaultShoppingFallback() []ShoppingItem {
	return []ShoppingItem{
		{Name: "玉ねぎ", Quantity: "2個"},
		{Name: "にんじん", Quantity: "1本"},
		{Name: "じゃがいも", Quantity: "3個"},
	}
}
