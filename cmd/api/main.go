package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/meshilogapp/meshilog-backend/api/controllers"
	"github.com/meshilogapp/meshilog-backend/api/routes"
	"github.com/meshilogapp/meshilog-backend/internal/favorites"
	"github.com/meshilogapp/meshilog-backend/internal/groups"
	"github.com/meshilogapp/meshilog-backend/internal/guestsync"
	"github.com/meshilogapp/meshilog-backend/internal/meals"
	"github.com/meshilogapp/meshilog-backend/internal/pantry"
	"github.com/meshilogapp/meshilog-backend/internal/recommend"
	"github.com/meshilogapp/meshilog-backend/internal/reports"
	"github.com/meshilogapp/meshilog-backend/internal/users"
	"github.com/meshilogapp/meshilog-backend/internal/vision"
	"github.com/meshilogapp/meshilog-backend/pkg/completion"
	"github.com/meshilogapp/meshilog-backend/pkg/config"
	"github.com/meshilogapp/meshilog-backend/pkg/db"
	"github.com/meshilogapp/meshilog-backend/pkg/logger"
	"github.com/meshilogapp/meshilog-backend/pkg/metrics"
	"github.com/meshilogapp/meshilog-backend/pkg/migrate"
	"github.com/meshilogapp/meshilog-backend/pkg/redis"
	"github.com/meshilogapp/meshilog-backend/pkg/retry"
	"github.com/meshilogapp/meshilog-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap object storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing object storage", err)
		}
	}()

	completionMetrics := metrics.NewCompletionMetrics(prometheus.DefaultRegisterer)
	completionClient, err := completion.NewClient(
		cfg.Completion,
		retry.NewPolicy(cfg.Retry),
		completion.WithMetrics(completionMetrics),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create completion client", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	mealsRepo := meals.NewRepository(gormDB)
	groupsRepo := groups.NewRepository(gormDB)
	favoritesRepo := favorites.NewRepository(gormDB)
	pantryRepo := pantry.NewRepository(gormDB)

	usersService, err := users.NewService(users.ServiceParams{
		Repo:  usersRepo,
		JWT:   cfg.JWT,
		Owner: cfg.Owner,
	})
	if err != nil {
		fatal(logg, "failed to create users service", err)
	}

	mealsService, err := meals.NewService(meals.ServiceParams{Repo: mealsRepo})
	if err != nil {
		fatal(logg, "failed to create meals service", err)
	}

	groupsService, err := groups.NewService(groups.ServiceParams{
		DB:    dbClient,
		Repo:  groupsRepo,
		Meals: mealsRepo,
	})
	if err != nil {
		fatal(logg, "failed to create groups service", err)
	}

	favoritesService, err := favorites.NewService(favorites.ServiceParams{
		DB:   dbClient,
		Repo: favoritesRepo,
	})
	if err != nil {
		fatal(logg, "failed to create favorites service", err)
	}

	pantryService, err := pantry.NewService(pantry.ServiceParams{
		Repo:    pantryRepo,
		Members: groupsRepo,
	})
	if err != nil {
		fatal(logg, "failed to create pantry service", err)
	}

	guestSyncService, err := guestsync.NewService(guestsync.ServiceParams{Store: mealsRepo})
	if err != nil {
		fatal(logg, "failed to create guest sync service", err)
	}

	recommendService, err := recommend.NewService(recommend.ServiceParams{
		Completion: completionClient,
		Cache:      redisClient,
		Meals:      mealsRepo,
		Groups:     groupsRepo,
		Config:     cfg.Recommend,
		Logger:     logg,
	})
	if err != nil {
		fatal(logg, "failed to create recommend service", err)
	}

	reportsService, err := reports.NewService(reports.ServiceParams{
		Completion: completionClient,
		Meals:      mealsRepo,
		Logger:     logg,
	})
	if err != nil {
		fatal(logg, "failed to create reports service", err)
	}

	visionService, err := vision.NewService(vision.ServiceParams{
		Completion: completionClient,
		Storage:    gcsClient,
		Media:      cfg.Media,
		Logger:     logg,
	})
	if err != nil {
		fatal(logg, "failed to create vision service", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	router := routes.NewRouter(
		cfg,
		logg,
		controllers.HealthDeps{DB: dbClient, Redis: redisClient, Storage: gcsClient},
		redisClient,
		routes.Services{
			Users:     usersService,
			Meals:     mealsService,
			Groups:    groupsService,
			Favorites: favoritesService,
			Pantry:    pantryService,
			GuestSync: guestSyncService,
			Recommend: recommendService,
			Reports:   reportsService,
			Vision:    visionService,
		},
	)

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func fatal(logg *logger.Logger, msg string, err error) {
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
