// Package recommend builds dinner recommendations and shopping lists from a
// user's logged meals via the external completion service. Delivery never
// hard-fails: any completion or parse failure degrades to the configured
// fallback set and the caller cannot tell the difference.
package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/meshilogapp/meshilog-backend/pkg/completion"
	"github.com/meshilogapp/meshilog-backend/pkg/config"
	"github.com/meshilogapp/meshilog-backend/pkg/db/models"
	"github.com/meshilogapp/meshilog-backend/pkg/enums"
	pkgerrors "github.com/meshilogapp/meshilog-backend/pkg/errors"
	"github.com/meshilogapp/meshilog-backend/pkg/logger"
	"gorm.io/gorm"

	"github.com/meshilogapp/meshilog-backend/internal/groups"
	"github.com/meshilogapp/meshilog-backend/internal/meals"
)

const (
	recentMealsWindow = 10
	defaultServings   = 2
	maxServings       = 12
)

type completionCaller interface {
	Complete(ctx context.Context, req completion.Request) (string, error)
}

type resultCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(parts ...string) string
}

type mealsReader interface {
	FindSlot(ctx context.Context, userID int64, date string, mealType enums.MealType) (*models.MealRecord, error)
	ListRecent(ctx context.Context, userID int64, limit int) ([]models.MealRecord, error)
	ListByUsersForDate(ctx context.Context, userIDs []int64, date string) ([]models.MealRecord, error)
}

type groupsReader interface {
	MemberExists(ctx context.Context, groupID, userID int64) (bool, error)
	ListMembers(ctx context.Context, groupID int64) ([]groups.MemberInfo, error)
}

type memberLunch struct {
	DisplayName string
	Record      models.MealRecord
}

// Service exposes the recommendation operations.
type Service interface {
	Dinner(ctx context.Context, userID int64, date string) ([]Recommendation, error)
	GroupDinner(ctx context.Context, groupID, userID int64, date string) ([]Recommendation, error)
	ShoppingList(ctx context.Context, userID int64, dishName string, servings int) ([]ShoppingItem, error)
}

// ServiceParams holds the dependencies for NewService.
type ServiceParams struct {
	Completion completionCaller
	Cache      resultCache
	Meals      mealsReader
	Groups     groupsReader
	Config     config.RecommendConfig
	Logger     *logger.Logger

	// Fallback sets default to the package fixtures when nil.
	Fallback         []Recommendation
	ShoppingFallback []ShoppingItem
}

type service struct {
	completion       completionCaller
	cache            resultCache
	meals            mealsReader
	groups           groupsReader
	cacheTTL         time.Duration
	logg             *logger.Logger
	fallback         []Recommendation
	shoppingFallback []ShoppingItem
}

// NewService builds the recommendation service.
func NewService(params ServiceParams) (Service, error) {
	if params.Completion == nil {
		return nil, errors.New("recommend: completion caller is required")
	}
	if params.Meals == nil {
		return nil, errors.New("recommend: meals reader is required")
	}
	if params.Groups == nil {
		return nil, errors.New("recommend: groups reader is required")
	}
	if params.Logger == nil {
		return nil, errors.New("recommend: logger is required")
	}

	fallback := params.Fallback
	if fallback == nil {
		fallback = DefaultFallback()
	}
	if len(fallback) != 3 {
		return nil, errors.New("recommend: fallback set must hold exactly three items")
	}
	shoppingFallback := params.ShoppingFallback
	if shoppingFallback == nil {
		shoppingFallback = DefaultShoppingFallback()
	}

	return &service{
		completion:       params.Completion,
		cache:            params.Cache,
		meals:            params.Meals,
		groups:           params.Groups,
		cacheTTL:         params.Config.CacheTTL,
		logg:             params.Logger,
		fallback:         fallback,
		shoppingFallback: shoppingFallback,
	}, nil
}

// Dinner suggests three dinner dishes for the user based on today's lunch
// and their recent meal history. Results are cached per user and date so
// repeated calls within one evening reuse the first answer.
func (s *service) Dinner(ctx context.Context, userID int64, date string) ([]Recommendation, error) {
	if !meals.ValidDate(date) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD")
	}

	cacheKey := s.cacheKey("recommend", "user", formatID(userID), date)
	if cached, ok := s.cachedRecommendations(ctx, cacheKey); ok {
		return cached, nil
	}

	lunch, err := s.meals.FindSlot(ctx, userID, date, enums.MealTypeLunch)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load today's lunch")
	}
	recent, err := s.meals.ListRecent(ctx, userID, recentMealsWindow)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recent meals")
	}

	items, genErr := s.generate(ctx, "dinner_recommendations", dinnerPrompt(lunch, recent))
	if genErr != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", genErr.Error()), "serving fallback dinner recommendations")
		return s.fallbackSet(), nil
	}

	s.storeCache(ctx, cacheKey, items)
	return items, nil
}

// GroupDinner suggests three dinner dishes for a whole group based on every
// member's lunch for the date. When no member logged a lunch the fallback
// set is returned without calling the completion service.
func (s *service) GroupDinner(ctx context.Context, groupID, userID int64, date string) ([]Recommendation, error) {
	if !meals.ValidDate(date) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD")
	}
	isMember, err := s.groups.MemberExists(ctx, groupID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check group membership")
	}
	if !isMember {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this group")
	}

	cacheKey := s.cacheKey("recommend", "group", formatID(groupID), date)
	if cached, ok := s.cachedRecommendations(ctx, cacheKey); ok {
		return cached, nil
	}

	lunches, err := s.memberLunches(ctx, groupID, date)
	if err != nil {
		return nil, err
	}
	if len(lunches) == 0 {
		return s.fallbackSet(), nil
	}

	items, genErr := s.generate(ctx, "group_dinner_recommendations", groupDinnerPrompt(lunches))
	if genErr != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", genErr.Error()), "serving fallback group dinner recommendations")
		return s.fallbackSet(), nil
	}

	s.storeCache(ctx, cacheKey, items)
	return items, nil
}

// ShoppingList produces an ingredient list for a chosen dinner dish.
func (s *service) ShoppingList(ctx context.Context, userID int64, dishName string, servings int) ([]ShoppingItem, error) {
	if dishName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dish name is required")
	}
	if servings <= 0 {
		servings = defaultServings
	}
	if servings > maxServings {
		servings = maxServings
	}

	content, err := s.completion.Complete(ctx, completion.Request{
		Op: "shopping_list",
		Messages: []completion.Message{
			completion.TextMessage("system", systemPrompt),
			completion.TextMessage("user", shoppingListPrompt(dishName, servings)),
		},
		Schema: &completion.JSONSchema{Name: "shopping_list", Schema: shoppingListSchema},
	})
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "serving fallback shopping list")
		return append([]ShoppingItem(nil), s.shoppingFallback...), nil
	}

	var decoded struct {
		Items []ShoppingItem `json:"items"`
	}
	if err := json.Unmarshal([]byte(completion.StripFences(content)), &decoded); err != nil || len(decoded.Items) == 0 {
		s.logg.Warn(ctx, "shopping list response unparsable, serving fallback")
		return append([]ShoppingItem(nil), s.shoppingFallback...), nil
	}
	return decoded.Items, nil
}

func (s *service) memberLunches(ctx context.Context, groupID int64, date string) ([]memberLunch, error) {
	members, err := s.groups.ListMembers(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load group members")
	}
	if len(members) == 0 {
		return nil, nil
	}

	names := make(map[int64]string, len(members))
	ids := make([]int64, 0, len(members))
	for _, member := range members {
		names[member.UserID] = member.DisplayName
		ids = append(ids, member.UserID)
	}

	records, err := s.meals.ListByUsersForDate(ctx, ids, date)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load member meals")
	}

	var lunches []memberLunch
	for _, record := range records {
		if record.MealType != enums.MealTypeLunch {
			continue
		}
		lunches = append(lunches, memberLunch{DisplayName: names[record.UserID], Record: record})
	}
	return lunches, nil
}

// generate runs one schema-constrained completion call and parses the
// response. Any failure is returned to the caller, which decides whether
// to fall back.
func (s *service) generate(ctx context.Context, op, prompt string) ([]Recommendation, error) {
	content, err := s.completion.Complete(ctx, completion.Request{
		Op: op,
		Messages: []completion.Message{
			completion.TextMessage("system", systemPrompt),
			completion.TextMessage("user", prompt),
		},
		Schema: &completion.JSONSchema{Name: "dinner_recommendations", Schema: recommendationSchema},
	})
	if err != nil {
		return nil, err
	}
	return parseRecommendations(content)
}

func parseRecommendations(content string) ([]Recommendation, error) {
	var decoded struct {
		Recommendations []Recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(completion.StripFences(content)), &decoded); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse recommendation response")
	}
	if len(decoded.Recommendations) != 3 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "recommendation response must hold exactly three items")
	}
	for _, item := range decoded.Recommendations {
		if item.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "recommendation item is missing a name")
		}
		if _, err := enums.ParseMealCategory(item.Category); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "recommendation item has an unknown category")
		}
	}
	return decoded.Recommendations, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (s *service) fallbackSet() []Recommendation {
	return append([]Recommendation(nil), s.fallback...)
}

func (s *service) cacheKey(parts ...string) string {
	if s.cache == nil {
		return ""
	}
	return s.cache.CacheKey(parts...)
}

func (s *service) cachedRecommendations(ctx context.Context, key string) ([]Recommendation, bool) {
	if s.cache == nil || key == "" {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil || raw == "" {
		return nil, false
	}
	var items []Recommendation
	if err := json.Unmarshal([]byte(raw), &items); err != nil || len(items) != 3 {
		return nil, false
	}
	return items, true
}

// storeCache persists generated (never fallback) recommendations. Cache
// failures are logged and swallowed.
func (s *service) storeCache(ctx context.Context, key string, items []Recommendation) {
	if s.cache == nil || key == "" {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.cacheTTL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "recommendation cache write failed")
	}
}
