package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meshilogapp/meshilog-backend/api/controllers"
	"github.com/meshilogapp/meshilog-backend/internal/favorites"
	"github.com/meshilogapp/meshilog-backend/internal/groups"
	"github.com/meshilogapp/meshilog-backend/internal/guestsync"
	"github.com/meshilogapp/meshilog-backend/internal/meals"
	"github.com/meshilogapp/meshilog-backend/internal/pantry"
	"github.com/meshilogapp/meshilog-backend/internal/recommend"
	"github.com/meshilogapp/meshilog-backend/internal/reports"
	"github.com/meshilogapp/meshilog-backend/internal/users"
	"github.com/meshilogapp/meshilog-backend/internal/vision"
	pkgAuth "github.com/meshilogapp/meshilog-backend/pkg/auth"
	"github.com/meshilogapp/meshilog-backend/pkg/config"
	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
	"github.com/meshilogapp/meshilog-backend/pkg/enums"
	"github.com/meshilogapp/meshilog-backend/pkg/logger"
	pkgredis "github.com/meshilogapp/meshilog-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubUsersService struct{}

func (stubUsersService) Login(ctx context.Context, input users.LoginInput) (*users.LoginResult, error) {
	return &users.LoginResult{
		User: &models.User{
			ID:          7,
			ExternalID:  input.ExternalID,
			DisplayName: input.DisplayName,
			Role:        enums.UserRoleUser,
		},
		Token: "stub-token",
	}, nil
}

func (stubUsersService) Me(ctx context.Context, userID int64) (*models.User, error) {
	return &models.User{ID: userID, DisplayName: "太郎", Role: enums.UserRoleUser}, nil
}

func (stubUsersService) Settings(ctx context.Context, userID int64) (*users.NotificationSettings, error) {
	return &users.NotificationSettings{Enabled: true, ReminderTime: "18:00"}, nil
}

func (stubUsersService) UpdateSettings(ctx context.Context, userID int64, enabled bool, reminderTime string) (*users.NotificationSettings, error) {
	return &users.NotificationSettings{Enabled: enabled, ReminderTime: reminderTime}, nil
}

type stubMealsService struct{}

func (stubMealsService) Create(ctx context.Context, userID int64, input meals.CreateMealInput) (*models.MealRecord, error) {
	panic("unimplemented")
}

func (stubMealsService) ListByDate(ctx context.Context, userID int64, date string) ([]models.MealRecord, error) {
	panic("unimplemented")
}

func (stubMealsService) ListByRange(ctx context.Context, userID int64, start, end string) ([]models.MealRecord, error) {
	panic("unimplemented")
}

func (stubMealsService) ListRecent(ctx context.Context, userID int64, limit int) ([]models.MealRecord, error) {
	return []models.MealRecord{
		{
			ID:       1,
			UserID:   userID,
			MealDate: "2025-12-16",
			MealType: enums.MealTypeDinner,
			DishName: "肉じゃが",
			Category: enums.MealCategoryJapanese,
		},
	}, nil
}

func (stubMealsService) TodayLunch(ctx context.Context, userID int64, date string) (*models.MealRecord, error) {
	panic("unimplemented")
}

func (stubMealsService) Delete(ctx context.Context, userID, recordID int64) (bool, error) {
	panic("unimplemented")
}

type stubGroupsService struct{}

func (stubGroupsService) Create(ctx context.Context, ownerID int64, name string, description *string) (*models.Group, error) {
	panic("unimplemented")
}

func (stubGroupsService) Join(ctx context.Context, userID int64, inviteCode string) (*models.Group, error) {
	panic("unimplemented")
}

func (stubGroupsService) Leave(ctx context.Context, groupID, userID int64) error {
	panic("unimplemented")
}

func (stubGroupsService) Delete(ctx context.Context, groupID, callerID int64) error {
	panic("unimplemented")
}

func (stubGroupsService) Get(ctx context.Context, groupID, callerID int64) (*models.Group, error) {
	panic("unimplemented")
}

func (stubGroupsService) Members(ctx context.Context, groupID, callerID int64) ([]groups.MemberInfo, error) {
	panic("unimplemented")
}

func (stubGroupsService) UserGroups(ctx context.Context, userID int64) ([]groups.GroupWithRole, error) {
	return []groups.GroupWithRole{}, nil
}

func (stubGroupsService) MealsForDate(ctx context.Context, groupID, callerID int64, date string) ([]groups.MemberMeal, error) {
	panic("unimplemented")
}

type stubFavoritesService struct{}

func (stubFavoritesService) Create(ctx context.Context, userID int64, input favorites.CreateFavoriteInput) (*models.FavoriteMeal, error) {
	panic("unimplemented")
}

func (stubFavoritesService) List(ctx context.Context, userID int64) ([]models.FavoriteMeal, error) {
	return []models.FavoriteMeal{}, nil
}

func (stubFavoritesService) Delete(ctx context.Context, userID, favoriteID int64) (bool, error) {
	panic("unimplemented")
}

func (stubFavoritesService) Use(ctx context.Context, userID, favoriteID int64, input favorites.UseInput) (*favorites.UseResult, error) {
	panic("unimplemented")
}

type stubPantryService struct{}

func (stubPantryService) Create(ctx context.Context, userID int64, input pantry.ItemInput) (*models.PantryItem, error) {
	panic("unimplemented")
}

func (stubPantryService) List(ctx context.Context, userID int64, groupID *int64) ([]models.PantryItem, error) {
	return []models.PantryItem{}, nil
}

func (stubPantryService) Update(ctx context.Context, userID, itemID int64, input pantry.ItemInput) (*models.PantryItem, error) {
	panic("unimplemented")
}

type stubGuestSyncService struct{}

func (stubGuestSyncService) Migrate(ctx context.Context, userID int64, records []guestsync.LocalRecord) (*guestsync.Result, error) {
	return &guestsync.Result{Items: []guestsync.ItemResult{}}, nil
}

type stubRecommendService struct{}

func (stubRecommendService) Dinner(ctx context.Context, userID int64, date string) ([]recommend.Recommendation, error) {
	return recommend.DefaultFallback(), nil
}

func (stubRecommendService) GroupDinner(ctx context.Context, groupID, userID int64, date string) ([]recommend.Recommendation, error) {
	panic("unimplemented")
}

func (stubRecommendService) ShoppingList(ctx context.Context, userID int64, dishName string, servings int) ([]recommend.ShoppingItem, error) {
	panic("unimplemented")
}

type stubReportsService struct{}

func (stubReportsService) Weekly(ctx context.Context, userID int64, weekStartDate string) (*reports.WeeklyReport, error) {
	panic("unimplemented")
}

func (stubReportsService) NutritionAdvice(ctx context.Context, userID int64) (*reports.NutritionAdvice, error) {
	panic("unimplemented")
}

type stubVisionService struct{}

func (stubVisionService) AnalyzeImage(ctx context.Context, userID int64, data []byte, contentType string) (*vision.Analysis, error) {
	panic("unimplemented")
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

// memoryStore backs the idempotency middleware in router tests.
type memoryStore struct {
	data map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]string)}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	m.data[key] = str
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("idem:%s:%s", scope, id)
}

func newTestRouter(cfg *config.Config) http.Handler {
	return newTestRouterWithStore(cfg, nil, Services{
		Users:     stubUsersService{},
		Meals:     stubMealsService{},
		Groups:    stubGroupsService{},
		Favorites: stubFavoritesService{},
		Pantry:    stubPantryService{},
		GuestSync: stubGuestSyncService{},
		Recommend: stubRecommendService{},
		Reports:   stubReportsService{},
		Vision:    stubVisionService{},
	})
}

func newTestRouterWithStore(cfg *config.Config, store pkgredis.IdempotencyStore, svc Services) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		controllers.HealthDeps{DB: stubPinger{}, Redis: stubPinger{}, Storage: stubPinger{}},
		store,
		svc,
	)
}

func buildToken(t *testing.T, cfg *config.Config, userID int64) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:     userID,
		ExternalID: fmt.Sprintf("ext-%d", userID),
		Role:       enums.UserRoleUser,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Meshilog-Env"); got != "test" {
		t.Fatalf("expected env header test got %q", got)
	}
}

func TestHealthReadyWithHealthyDeps(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestMetricsExposed(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestLoginIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	body := strings.NewReader(`{"externalId":"google-123","displayName":"太郎"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Token != "stub-token" {
		t.Fatalf("expected stub token got %q", envelope.Data.Token)
	}
}

func TestProtectedRouteRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/meals/recent", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestProtectedRouteSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/meals/recent", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, 42))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data []meals.View `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].DishName != "肉じゃが" {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}

func TestRecommendationsRouteWired(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/dinner?date=2025-12-16", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, 42))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data struct {
			Recommendations []recommend.Recommendation `json:"recommendations"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Recommendations) != 3 {
		t.Fatalf("expected 3 recommendations got %d", len(envelope.Data.Recommendations))
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	stale, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now().Add(-2*time.Hour), pkgAuth.AccessTokenPayload{
		UserID:     42,
		ExternalID: "ext-42",
		Role:       enums.UserRoleUser,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/meals/recent", nil)
	req.Header.Set("Authorization", "Bearer "+stale)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token got %d", resp.Code)
	}
}

func TestSettingsRouteWired(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/settings/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, 42))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "18:00") {
		t.Fatalf("expected reminder time in body got %s", resp.Body.String())
	}
}

type countingGuestSyncService struct {
	calls int
}

func (s *countingGuestSyncService) Migrate(ctx context.Context, userID int64, records []guestsync.LocalRecord) (*guestsync.Result, error) {
	s.calls++
	return &guestsync.Result{Items: []guestsync.ItemResult{}}, nil
}

func TestIdempotencyGateEngagesOnMutatingRoutes(t *testing.T) {
	cfg := testConfig()
	guest := &countingGuestSyncService{}
	router := newTestRouterWithStore(cfg, newMemoryStore(), Services{
		Users:     stubUsersService{},
		Meals:     stubMealsService{},
		Groups:    stubGroupsService{},
		Favorites: stubFavoritesService{},
		Pantry:    stubPantryService{},
		GuestSync: guest,
		Recommend: stubRecommendService{},
		Reports:   stubReportsService{},
		Vision:    stubVisionService{},
	})
	token := buildToken(t, cfg, 42)

	// Mutating routes must refuse to run without an Idempotency-Key.
	for _, path := range []string{"/api/v1/meals", "/api/v1/auth/migrate"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"records":[]}`))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 without idempotency key got %d", path, resp.Code)
		}
		if !strings.Contains(resp.Body.String(), "Idempotency-Key") {
			t.Fatalf("%s: expected idempotency error body got %s", path, resp.Body.String())
		}
	}

	migrate := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/migrate", strings.NewReader(`{"records":[]}`))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "migrate-once")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	first := migrate()
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200 with idempotency key got %d body %s", first.Code, first.Body.String())
	}
	if guest.calls != 1 {
		t.Fatalf("expected one migration call got %d", guest.calls)
	}

	// A repeat of the same migration replays the stored response.
	second := migrate()
	if guest.calls != 1 {
		t.Fatalf("repeated migration must not run twice, got %d calls", guest.calls)
	}
	if second.Code != first.Code || second.Body.String() != first.Body.String() {
		t.Fatalf("replay mismatch: %d %s vs %d %s", first.Code, first.Body.String(), second.Code, second.Body.String())
	}
}
