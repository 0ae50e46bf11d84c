package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/meshilogapp/meshilog-backend/api/middleware"
	"github.com/meshilogapp/meshilog-backend/internal/meals"
	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
	"github.com/meshilogapp/meshilog-backend/pkg/logger"
)

type testMealsService struct {
	createFn     func(ctx context.Context, userID int64, input meals.CreateMealInput) (*models.MealRecord, error)
	byDateFn     func(ctx context.Context, userID int64, date string) ([]models.MealRecord, error)
	byRangeFn    func(ctx context.Context, userID int64, start, end string) ([]models.MealRecord, error)
	recentFn     func(ctx context.Context, userID int64, limit int) ([]models.MealRecord, error)
	todayLunchFn func(ctx context.Context, userID int64, date string) (*models.MealRecord, error)
	deleteFn     func(ctx context.Context, userID, recordID int64) (bool, error)
}

func (s *testMealsService) Create(ctx context.Context, userID int64, input meals.CreateMealInput) (*models.MealRecord, error) {
	if s.createFn != nil {
		return s.createFn(ctx, userID, input)
	}
	return nil, nil
}

func (s *testMealsService) ListByDate(ctx context.Context, userID int64, date string) ([]models.MealRecord, error) {
	if s.byDateFn != nil {
		return s.byDateFn(ctx, userID, date)
	}
	return nil, nil
}

func (s *testMealsService) ListByRange(ctx context.Context, userID int64, start, end string) ([]models.MealRecord, error) {
	if s.byRangeFn != nil {
		return s.byRangeFn(ctx, userID, start, end)
	}
	return nil, nil
}

func (s *testMealsService) ListRecent(ctx context.Context, userID int64, limit int) ([]models.MealRecord, error) {
	if s.recentFn != nil {
		return s.recentFn(ctx, userID, limit)
	}
	return nil, nil
}

func (s *testMealsService) TodayLunch(ctx context.Context, userID int64, date string) (*models.MealRecord, error) {
	if s.todayLunchFn != nil {
		return s.todayLunchFn(ctx, userID, date)
	}
	return nil, nil
}

func (s *testMealsService) Delete(ctx context.Context, userID, recordID int64) (bool, error) {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, userID, recordID)
	}
	return false, nil
}

func testControllersLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func authedRequest(method, target, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req = req.WithContext(middleware.WithUserID(req.Context(), 42))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestMealCreateSuccess(t *testing.T) {
	var gotUserID int64
	svc := &testMealsService{
		createFn: func(_ context.Context, userID int64, input meals.CreateMealInput) (*models.MealRecord, error) {
			gotUserID = userID
			return &models.MealRecord{
				ID:       7,
				UserID:   userID,
				MealDate: input.MealDate,
				MealType: input.MealType,
				DishName: input.DishName,
				Category: input.Category,
			}, nil
		},
	}

	body := `{"mealDate": "2025-12-16", "mealType": "lunch", "dishName": "カレーライス", "category": "japanese"}`
	resp := httptest.NewRecorder()
	MealCreate(svc, testControllersLogger())(resp, authedRequest(http.MethodPost, "/api/v1/meals", body))

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if gotUserID != 42 {
		t.Fatalf("expected user 42, got %d", gotUserID)
	}
	var envelope struct {
		Data meals.View `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.ID != 7 || envelope.Data.DishName != "カレーライス" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
	if envelope.Data.CategoryLabel != "和食" {
		t.Fatalf("expected category label 和食, got %q", envelope.Data.CategoryLabel)
	}
}

func TestMealCreateRejectsUnknownMealType(t *testing.T) {
	svc := &testMealsService{
		createFn: func(context.Context, int64, meals.CreateMealInput) (*models.MealRecord, error) {
			t.Fatal("service must not be reached")
			return nil, nil
		},
	}

	body := `{"mealDate": "2025-12-16", "mealType": "breakfast", "dishName": "トースト", "category": "western"}`
	resp := httptest.NewRecorder()
	MealCreate(svc, testControllersLogger())(resp, authedRequest(http.MethodPost, "/api/v1/meals", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestMealsByDateRequiresDateQuery(t *testing.T) {
	resp := httptest.NewRecorder()
	MealsByDate(&testMealsService{}, testControllersLogger())(resp, authedRequest(http.MethodGet, "/api/v1/meals", ""))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestMealTodayLunchAbsentIsNull(t *testing.T) {
	svc := &testMealsService{
		todayLunchFn: func(context.Context, int64, string) (*models.MealRecord, error) {
			return nil, nil
		},
	}
	resp := httptest.NewRecorder()
	MealTodayLunch(svc, testControllersLogger())(resp, authedRequest(http.MethodGet, "/api/v1/meals/today-lunch?date=2025-12-16", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data *meals.View `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data != nil {
		t.Fatalf("expected null data, got %+v", envelope.Data)
	}
}

func TestMealDeleteReportsOutcome(t *testing.T) {
	svc := &testMealsService{
		deleteFn: func(_ context.Context, userID, recordID int64) (bool, error) {
			if userID != 42 || recordID != 9 {
				t.Fatalf("unexpected args user=%d record=%d", userID, recordID)
			}
			return false, nil
		},
	}

	req := withURLParam(authedRequest(http.MethodDelete, "/api/v1/meals/9", ""), "id", "9")
	resp := httptest.NewRecorder()
	MealDelete(svc, testControllersLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data map[string]bool `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data["deleted"] {
		t.Fatal("unowned delete should report deleted=false")
	}
}

func TestMealDeleteRejectsBadID(t *testing.T) {
	req := withURLParam(authedRequest(http.MethodDelete, "/api/v1/meals/abc", ""), "id", "abc")
	resp := httptest.NewRecorder()
	MealDelete(&testMealsService{}, testControllersLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
