package recommend

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
)

// Prompts are assembled from structured meal fields only. Free-form user
// text (notes) is never interpolated into the instruction template.

const systemPrompt = "あなたは家庭料理のアドバイザーです。和食・洋食・中華を中心に、" +
	"家庭で作りやすい夕食を提案してください。回答は必ず指定されたJSON形式で返してください。"

func describeMeal(record models.MealRecord) string {
	return fmt.Sprintf("%s(%s)", record.DishName, record.Category.Label())
}

func dinnerPrompt(lunch *models.MealRecord, recent []models.MealRecord) string {
	var b strings.Builder
	if lunch != nil {
		fmt.Fprintf(&b, "今日の昼食は %s でした。\n", describeMeal(*lunch))
	} else {
		b.WriteString("今日の昼食は記録されていません。\n")
	}
	if len(recent) > 0 {
		b.WriteString("最近の食事:\n")
		for _, record := range recent {
			fmt.Fprintf(&b, "- %s %s %s\n", record.MealDate, record.MealType, describeMeal(record))
		}
	}
	b.WriteString("栄養バランスと最近の献立との重複を考慮して、今晩の夕食を3品提案してください。")
	return b.String()
}

func groupDinnerPrompt(lunches []memberLunch) string {
	var b strings.Builder
	b.WriteString("家族それぞれの今日の昼食:\n")
	for _, lunch := range lunches {
		fmt.Fprintf(&b, "- %s: %s\n", lunch.DisplayName, describeMeal(lunch.Record))
	}
	b.WriteString("家族全員の昼食を踏まえて、全員で食べる今晩の夕食を3品提案してください。")
	return b.String()
}

func shoppingListPrompt(dishName string, servings int) string {
	return fmt.Sprintf("「%s」を%d人分作るための買い物リストを作成してください。"+
		"各材料に目安の分量を付けてください。", dishName, servings)
}

// recommendationSchema constrains the completion response to exactly the
// recommendation shape the client consumes.
var recommendationSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"recommendations": {
			"type": "array",
			"minItems": 3,
			"maxItems": 3,
			"items": {
				"type": "object",
				"properties": {
					"name": {"type": "string"},
					"category": {"type": "string", "enum": ["japanese", "western", "chinese", "other"]},
					"reason": {"type": "string"}
				},
				"required": ["name", "category", "reason"],
				"additionalProperties": false
			}
		}
	},
	"required": ["recommendations"],
	"additionalProperties": false
}`)

var shoppingListSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"items": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"name": {"type": "string"},
					"quantity": {"type": "string"}
				},
				"required": ["name", "quantity"],
				"additionalProperties": false
			}
		}
	},
	"required": ["items"],
	"additionalProperties": false
}`)
