// Package reports builds the weekly meal report and nutrition advice from a
// user's logged meals via the external completion service. Like the
// recommendation pipeline, report delivery degrades to a canned response
// instead of propagating completion failures.
package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/meshilogapp/meshilog-backend/pkg/completion"
	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
	"github.com/meshilogapp/meshilog-backend/pkg/enums"
	pkgerrors "github.com/meshilogapp/meshilog-backend/pkg/errors"
	"github.com/meshilogapp/meshilog-backend/pkg/logger"

	"github.com/meshilogapp/meshilog-backend/internal/meals"
)

const (
	daysPerWeek         = 7
	adviceMealsWindow   = 20
	fallbackAnalysis    = "今週の食事データからの詳細な分析は現在利用できません。引き続きバランスの良い食事を心がけましょう。"
	noDataAnalysis      = "この週の食事記録がありません。まずは昼食と夕食を記録してみましょう。"
	fallbackAdvice      = "栄養アドバイスは現在利用できません。主食・主菜・副菜をそろえた食事を意識してみてください。"
	noDataAdvice        = "食事記録がまだありません。記録がたまると、あなたに合わせた栄養アドバイスが表示されます。"
	fallbackReportScore = 50
	reportSystemPrompt  = "あなたは管理栄養士です。食事記録を分析し、実践的なアドバイスを日本語で返してください。回答は必ずJSON形式で返してください。"
)

type completionCaller interface {
	Complete(ctx context.Context, req completion.Request) (string, error)
}

type mealsReader interface {
	ListByRange(ctx context.Context, userID int64, start, end string) ([]models.MealRecord, error)
	ListRecent(ctx context.Context, userID int64, limit int) ([]models.MealRecord, error)
}

// WeeklyReport summarizes one week of meal records.
type WeeklyReport struct {
	WeekStartDate  string `json:"weekStartDate"`
	WeekEndDate    string `json:"weekEndDate"`
	TotalMeals     int    `json:"totalMeals"`
	CompletedDays  int    `json:"completedDays"`
	CompletionRate int    `json:"completionRate"`
	Analysis       string `json:"analysis"`
	Score          int    `json:"score"`
}

// NutritionAdvice is free-text guidance with a 0-100 score.
type NutritionAdvice struct {
	Advice string `json:"advice"`
	Score  int    `json:"score"`
}

// Service exposes the report operations.
type Service interface {
	Weekly(ctx context.Context, userID int64, weekStartDate string) (*WeeklyReport, error)
	NutritionAdvice(ctx context.Context, userID int64) (*NutritionAdvice, error)
}

// ServiceParams holds the dependencies for NewService.
type ServiceParams struct {
	Completion completionCaller
	Meals      mealsReader
	Logger     *logger.Logger
}

type service struct {
	completion completionCaller
	meals      mealsReader
	logg       *logger.Logger
}

// NewService builds the report service.
func NewService(params ServiceParams) (Service, error) {
	if params.Completion == nil {
		return nil, errors.New("reports: completion caller is required")
	}
	if params.Meals == nil {
		return nil, errors.New("reports: meals reader is required")
	}
	if params.Logger == nil {
		return nil, errors.New("reports: logger is required")
	}
	return &service{completion: params.Completion, meals: params.Meals, logg: params.Logger}, nil
}

// Weekly builds the report for the seven days starting at weekStartDate.
// A day counts as completed only when both a lunch and a dinner exist for
// it. An empty week returns the canned no-data report without calling the
// completion service.
func (s *service) Weekly(ctx context.Context, userID int64, weekStartDate string) (*WeeklyReport, error) {
	if !meals.ValidDate(weekStartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "week start date must be YYYY-MM-DD")
	}
	start, _ := time.Parse("2006-01-02", weekStartDate)
	weekEndDate := start.AddDate(0, 0, daysPerWeek-1).Format("2006-01-02")

	records, err := s.meals.ListByRange(ctx, userID, weekStartDate, weekEndDate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load weekly meals")
	}

	report := &WeeklyReport{
		WeekStartDate: weekStartDate,
		WeekEndDate:   weekEndDate,
		TotalMeals:    len(records),
	}
	if len(records) == 0 {
		report.Analysis = noDataAnalysis
		return report, nil
	}

	report.CompletedDays = completedDays(records)
	report.CompletionRate = int(float64(report.CompletedDays)/daysPerWeek*100 + 0.5)

	analysis, score, genErr := s.analyze(ctx, "weekly_report", weeklyPrompt(report, records))
	if genErr != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", genErr.Error()), "serving fallback weekly analysis")
		report.Analysis = fallbackAnalysis
		report.Score = fallbackReportScore
		return report, nil
	}
	report.Analysis = analysis
	report.Score = score
	return report, nil
}

// NutritionAdvice generates guidance from the user's recent meal history.
func (s *service) NutritionAdvice(ctx context.Context, userID int64) (*NutritionAdvice, error) {
	records, err := s.meals.ListRecent(ctx, userID, adviceMealsWindow)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recent meals")
	}
	if len(records) == 0 {
		return &NutritionAdvice{Advice: noDataAdvice}, nil
	}

	advice, score, genErr := s.analyze(ctx, "nutrition_advice", advicePrompt(records))
	if genErr != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", genErr.Error()), "serving fallback nutrition advice")
		return &NutritionAdvice{Advice: fallbackAdvice, Score: fallbackReportScore}, nil
	}
	return &NutritionAdvice{Advice: advice, Score: score}, nil
}

// analyze runs one loose JSON-object completion call and extracts the
// analysis text and score.
func (s *service) analyze(ctx context.Context, op, prompt string) (string, int, error) {
	content, err := s.completion.Complete(ctx, completion.Request{
		Op: op,
		Messages: []completion.Message{
			completion.TextMessage("system", reportSystemPrompt),
			completion.TextMessage("user", prompt),
		},
		JSONObject: true,
	})
	if err != nil {
		return "", 0, err
	}

	var decoded struct {
		Analysis string `json:"analysis"`
		Score    int    `json:"score"`
	}
	if err := json.Unmarshal([]byte(completion.StripFences(content)), &decoded); err != nil {
		return "", 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse report response")
	}
	if decoded.Analysis == "" {
		return "", 0, pkgerrors.New(pkgerrors.CodeDependency, "report response is missing analysis text")
	}
	if decoded.Score < 0 || decoded.Score > 100 {
		return "", 0, pkgerrors.New(pkgerrors.CodeDependency, "report score must be between 0 and 100")
	}
	return decoded.Analysis, decoded.Score, nil
}

func completedDays(records []models.MealRecord) int {
	type slots struct{ lunch, dinner bool }
	byDate := map[string]*slots{}
	for _, record := range records {
		day, ok := byDate[record.MealDate]
		if !ok {
			day = &slots{}
			byDate[record.MealDate] = day
		}
		switch record.MealType {
		case enums.MealTypeLunch:
			day.lunch = true
		case enums.MealTypeDinner:
			day.dinner = true
		}
	}

	count := 0
	for _, day := range byDate {
		if day.lunch && day.dinner {
			count++
		}
	}
	return count
}

func weeklyPrompt(report *WeeklyReport, records []models.MealRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s から %s までの食事記録:\n", report.WeekStartDate, report.WeekEndDate)
	for _, record := range records {
		fmt.Fprintf(&b, "- %s %s: %s(%s)\n", record.MealDate, record.MealType, record.DishName, record.Category.Label())
	}
	fmt.Fprintf(&b, "記録日数は %d/7 日です。\n", report.CompletedDays)
	b.WriteString(`この一週間の食事を分析し、{"analysis": "分析コメント", "score": 0から100の整数} の形式で返してください。`)
	return b.String()
}

func advicePrompt(records []models.MealRecord) string {
	var b strings.Builder
	b.WriteString("最近の食事記録:\n")
	for _, record := range records {
		fmt.Fprintf(&b, "- %s %s: %s(%s)\n", record.MealDate, record.MealType, record.DishName, record.Category.Label())
	}
	b.WriteString(`この食事傾向への栄養アドバイスを {"analysis": "アドバイス", "score": 0から100の整数} の形式で返してください。`)
	return b.String()
}
