package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meshilogapp/meshilog-backend/api/controllers"
	"github.com/meshilogapp/meshilog-backend/api/middleware"
	"github.com/meshilogapp/meshilog-backend/internal/favorites"
	"github.com/meshilogapp/meshilog-backend/internal/groups"
	"github.com/meshilogapp/meshilog-backend/internal/guestsync"
	"github.com/meshilogapp/meshilog-backend/internal/meals"
	"github.com/meshilogapp/meshilog-backend/internal/pantry"
	"github.com/meshilogapp/meshilog-backend/internal/recommend"
	"github.com/meshilogapp/meshilog-backend/internal/reports"
	"github.com/meshilogapp/meshilog-backend/internal/users"
	"github.com/meshilogapp/meshilog-backend/internal/vision"
	"github.com/meshilogapp/meshilog-backend/pkg/config"
	"github.com/meshilogapp/meshilog-backend/pkg/logger"
	pkgredis "github.com/meshilogapp/meshilog-backend/pkg/redis"
)

// Services bundles the domain services the HTTP surface exposes.
type Services struct {
	Users     users.Service
	Meals     meals.Service
	Groups    groups.Service
	Favorites favorites.Service
	Pantry    pantry.Service
	GuestSync guestsync.Service
	Recommend recommend.Service
	Reports   reports.Service
	Vision    vision.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	health controllers.HealthDeps,
	idempotencyStore pkgredis.IdempotencyStore,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, health))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/v1/auth/login", controllers.Login(svc.Users, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/auth", func(r chi.Router) {
			r.Get("/me", controllers.Me(svc.Users, logg))
			r.Post("/logout", controllers.Logout(logg))
			r.Post("/migrate", controllers.MigrateGuestData(svc.GuestSync, logg))
		})

		r.Route("/meals", func(r chi.Router) {
			r.Post("/", controllers.MealCreate(svc.Meals, logg))
			r.Get("/", controllers.MealsByDate(svc.Meals, logg))
			r.Get("/range", controllers.MealsByRange(svc.Meals, logg))
			r.Get("/recent", controllers.MealsRecent(svc.Meals, logg))
			r.Get("/today-lunch", controllers.MealTodayLunch(svc.Meals, logg))
			r.Post("/analyze-image", controllers.AnalyzeFood(svc.Vision, cfg.Media, logg))
			r.Delete("/{id}", controllers.MealDelete(svc.Meals, logg))
		})

		r.Route("/groups", func(r chi.Router) {
			r.Post("/", controllers.GroupCreate(svc.Groups, logg))
			r.Get("/", controllers.MyGroups(svc.Groups, logg))
			r.Post("/join", controllers.GroupJoin(svc.Groups, logg))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", controllers.GroupGet(svc.Groups, logg))
				r.Delete("/", controllers.GroupDelete(svc.Groups, logg))
				r.Get("/members", controllers.GroupMembers(svc.Groups, logg))
				r.Post("/leave", controllers.GroupLeave(svc.Groups, logg))
				r.Get("/meals", controllers.GroupMealsForDate(svc.Groups, logg))
				r.Get("/recommendations/dinner", controllers.GroupDinnerRecommendations(svc.Recommend, logg))
			})
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Post("/", controllers.FavoriteCreate(svc.Favorites, logg))
			r.Get("/", controllers.FavoriteList(svc.Favorites, logg))
			r.Post("/{id}/use", controllers.FavoriteUse(svc.Favorites, logg))
			r.Delete("/{id}", controllers.FavoriteDelete(svc.Favorites, logg))
		})

		r.Route("/pantry", func(r chi.Router) {
			r.Post("/", controllers.PantryCreate(svc.Pantry, logg))
			r.Get("/", controllers.PantryList(svc.Pantry, logg))
			r.Put("/{id}", controllers.PantryUpdate(svc.Pantry, logg))
		})

		r.Get("/recommendations/dinner", controllers.DinnerRecommendations(svc.Recommend, logg))
		r.Post("/shopping-list", controllers.ShoppingListFromDinner(svc.Recommend, logg))

		r.Route("/reports", func(r chi.Router) {
			r.Get("/weekly", controllers.WeeklyReport(svc.Reports, logg))
			r.Get("/nutrition-advice", controllers.NutritionAdvice(svc.Reports, logg))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/notifications", controllers.SettingsGet(svc.Users, logg))
			r.Put("/notifications", controllers.SettingsUpdate(svc.Users, logg))
		})
	})

	return r
}
