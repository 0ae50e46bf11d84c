package meals

import (
	"context"
	"strings"
	"testing"

	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
	"github.com/meshilogapp/meshilog-backend/pkg/enums"
	pkgerrors "github.com/meshilogapp/meshilog-backend/pkg/errors"
	"gorm.io/gorm"
)

type stubMealsRepo struct {
	rows   []models.MealRecord
	nextID int64

	lastRangeStart  string
	lastRangeEnd    string
	lastRecentLimit int
	deleteErr       error
}

func newStubMealsRepo() *stubMealsRepo {
	return &stubMealsRepo{nextID: 1}
}

func (s *stubMealsRepo) Create(_ context.Context, record *models.MealRecord) (*models.MealRecord, error) {
	record.ID = s.nextID
	s.nextID++
	s.rows = append(s.rows, *record)
	return record, nil
}

func (s *stubMealsRepo) ListByDate(_ context.Context, userID int64, date string) ([]models.MealRecord, error) {
	var out []models.MealRecord
	for _, row := range s.rows {
		if row.UserID == userID && row.MealDate == date {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubMealsRepo) ListByRange(_ context.Context, userID int64, start, end string) ([]models.MealRecord, error) {
	s.lastRangeStart = start
	s.lastRangeEnd = end
	var out []models.MealRecord
	for _, row := range s.rows {
		if row.UserID == userID && row.MealDate >= start && row.MealDate <= end {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubMealsRepo) ListRecent(_ context.Context, userID int64, limit int) ([]models.MealRecord, error) {
	s.lastRecentLimit = limit
	var out []models.MealRecord
	for _, row := range s.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubMealsRepo) FindSlot(_ context.Context, userID int64, date string, mealType enums.MealType) (*models.MealRecord, error) {
	for _, row := range s.rows {
		if row.UserID == userID && row.MealDate == date && row.MealType == mealType {
			found := row
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubMealsRepo) DeleteOwned(_ context.Context, id, userID int64) (bool, error) {
	if s.deleteErr != nil {
		return false, s.deleteErr
	}
	for i, row := range s.rows {
		if row.ID == id && row.UserID == userID {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func newTestService(t *testing.T, repo mealsRepository) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func validInput() CreateMealInput {
	return CreateMealInput{
		MealDate: "2025-12-16",
		MealType: enums.MealTypeLunch,
		DishName: "カレーライス",
		Category: enums.MealCategoryJapanese,
	}
}

func TestCreateReturnsNumericID(t *testing.T) {
	repo := newStubMealsRepo()
	svc := newTestService(t, repo)

	record, err := svc.Create(context.Background(), 1, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if record.ID <= 0 {
		t.Fatalf("expected assigned id, got %d", record.ID)
	}
	if record.UserID != 1 {
		t.Fatalf("expected record owned by caller, got user %d", record.UserID)
	}
}

func TestCreateValidation(t *testing.T) {
	repo := newStubMealsRepo()
	svc := newTestService(t, repo)

	cases := []struct {
		name   string
		mutate func(*CreateMealInput)
	}{
		{"empty dish name", func(in *CreateMealInput) { in.DishName = "  " }},
		{"dish name too long", func(in *CreateMealInput) { in.DishName = strings.Repeat("あ", 256) }},
		{"bad category", func(in *CreateMealInput) { in.Category = "korean" }},
		{"bad meal type", func(in *CreateMealInput) { in.MealType = "breakfast" }},
		{"malformed date", func(in *CreateMealInput) { in.MealDate = "2025/12/16" }},
		{"impossible date", func(in *CreateMealInput) { in.MealDate = "2025-02-30" }},
		{"note too long", func(in *CreateMealInput) {
			note := strings.Repeat("x", 501)
			in.Note = &note
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)
			_, err := svc.Create(context.Background(), 1, input)
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateAcceptsBoundaryLengths(t *testing.T) {
	repo := newStubMealsRepo()
	svc := newTestService(t, repo)

	input := validInput()
	input.DishName = strings.Repeat("あ", 255)
	note := strings.Repeat("x", 500)
	input.Note = &note

	if _, err := svc.Create(context.Background(), 1, input); err != nil {
		t.Fatalf("boundary-length input should pass, got %v", err)
	}
}

func TestGetByDateAndTodayLunchRoundTrip(t *testing.T) {
	repo := newStubMealsRepo()
	svc := newTestService(t, repo)

	created, err := svc.Create(context.Background(), 1, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	byDate, err := svc.ListByDate(context.Background(), 1, "2025-12-16")
	if err != nil {
		t.Fatalf("list by date: %v", err)
	}
	if len(byDate) != 1 || byDate[0].DishName != "カレーライス" {
		t.Fatalf("unexpected records %+v", byDate)
	}

	lunch, err := svc.TodayLunch(context.Background(), 1, "2025-12-16")
	if err != nil {
		t.Fatalf("today lunch: %v", err)
	}
	if lunch == nil || lunch.ID != created.ID {
		t.Fatalf("expected the created lunch, got %+v", lunch)
	}
}

func TestTodayLunchAbsentReturnsNil(t *testing.T) {
	repo := newStubMealsRepo()
	svc := newTestService(t, repo)

	lunch, err := svc.TodayLunch(context.Background(), 1, "2025-12-16")
	if err != nil {
		t.Fatalf("today lunch: %v", err)
	}
	if lunch != nil {
		t.Fatalf("expected no lunch, got %+v", lunch)
	}
}

func TestListByRangeValidatesBounds(t *testing.T) {
	repo := newStubMealsRepo()
	svc := newTestService(t, repo)

	if _, err := svc.ListByRange(context.Background(), 1, "2025-12-22", "2025-12-16"); err == nil {
		t.Fatal("inverted range should fail")
	}

	if _, err := svc.ListByRange(context.Background(), 1, "2025-12-16", "2025-12-22"); err != nil {
		t.Fatalf("valid range: %v", err)
	}
	if repo.lastRangeStart != "2025-12-16" || repo.lastRangeEnd != "2025-12-22" {
		t.Fatalf("range not passed through: %s..%s", repo.lastRangeStart, repo.lastRangeEnd)
	}
}

func TestListRecentClampsLimit(t *testing.T) {
	repo := newStubMealsRepo()
	svc := newTestService(t, repo)

	if _, err := svc.ListRecent(context.Background(), 1, 500); err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if repo.lastRecentLimit != 50 {
		t.Fatalf("expected limit clamped to 50, got %d", repo.lastRecentLimit)
	}

	if _, err := svc.ListRecent(context.Background(), 1, 0); err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if repo.lastRecentLimit != 50 {
		t.Fatalf("expected default limit 50, got %d", repo.lastRecentLimit)
	}
}

func TestDeleteIsSilentForUnownedRecords(t *testing.T) {
	repo := newStubMealsRepo()
	svc := newTestService(t, repo)

	created, err := svc.Create(context.Background(), 1, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	deleted, err := svc.Delete(context.Background(), 2, created.ID)
	if err != nil {
		t.Fatalf("unowned delete should not error: %v", err)
	}
	if deleted {
		t.Fatal("unowned delete should not remove the record")
	}

	deleted, err = svc.Delete(context.Background(), 1, created.ID)
	if err != nil {
		t.Fatalf("owned delete: %v", err)
	}
	if !deleted {
		t.Fatal("owned delete should remove the record")
	}
}
