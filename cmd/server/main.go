package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"movie-discovery-weather-recommender/internal/auth"
	"movie-discovery-weather-recommender/internal/cache"
	"movie-discovery-weather-recommender/internal/catalog"
	"movie-discovery-weather-recommender/internal/config"
	"movie-discovery-weather-recommender/internal/database"
	"movie-discovery-weather-recommender/internal/geo"
	"movie-discovery-weather-recommender/internal/handler"
	"movie-discovery-weather-recommender/internal/metrics"
	"movie-discovery-weather-recommender/internal/middleware"
	"movie-discovery-weather-recommender/internal/recommend"
	"movie-discovery-weather-recommender/internal/repository"
	"movie-discovery-weather-recommender/internal/service"
	"movie-discovery-weather-recommender/internal/store"
	"movie-discovery-weather-recommender/internal/tmdb"
	"movie-discovery-weather-recommender/internal/weather"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to Redis (non-fatal if unavailable)
	rdb, err := database.NewRedis(ctx, cfg.Redis)
	switch {
	case errors.Is(err, database.ErrRedisDisabled):
		slog.Info("Redis not configured, running without cache")
	case err != nil:
		slog.Warn("Redis unavailable, running without cache", "error", err)
	default:
		defer rdb.Close()
	}
	cc := cache.New(rdb)

	movies := loadCatalog(ctx, cfg)
	metrics.CatalogMovies.Set(float64(movies.Len()))

	users := store.Open(repository.NewUserFile(cfg.UsersFile))
	userSvc := service.NewUserService(users)

	sampler, err := recommend.SamplerByName(cfg.SamplingStrategy)
	if err != nil {
		slog.Error("invalid sampling strategy", "error", err)
		os.Exit(1)
	}
	engine := recommend.NewEngine(movies, recommend.WithSampler(sampler))

	weatherClient := weather.NewClient(cfg.Weather.APIKey, cfg.Weather.BaseURL)
	geoClient := geo.NewClient(cfg.GeoIP.APIKey, cfg.GeoIP.BaseURL)
	tmdbClient := tmdb.NewClient(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.ImageURL)

	recSvc := service.NewRecommendationService(engine, userSvc, weatherClient, geoClient, cc, cfg.WeatherCacheTTL)
	movieSvc := service.NewMovieService(movies, tmdbClient, cc, cfg.DetailsCacheTTL)
	sessions := auth.NewSessions(auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL), auth.NewTokenStore(cc))

	app := fiber.New(fiber.Config{
		AppName:      "Weather Movie Recommender",
		ServerHeader: "Weather-Movie-Recommender",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				slog.Error("unhandled error", "error", err, "status", code)
			}
			return c.Status(code).JSON(handler.ErrorResponse{Error: err.Error(), Code: handler.CodeInternal})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())
	app.Use(middleware.Metrics())
	app.Use(middleware.NewRateLimiter(cc, cfg.RateLimit.Max, cfg.RateLimit.Window).Handler())

	swaggerYAML, err := os.ReadFile("docs/swagger.yaml")
	if err != nil {
		slog.Warn("swagger.yaml not found, swagger UI will be unavailable", "error", err)
	}

	handler.Register(app, handler.Deps{
		Users:           userSvc,
		Recommendations: recSvc,
		Movies:          movieSvc,
		Sessions:        sessions,
		SwaggerYAML:     swaggerYAML,
		Upstreams: map[string]handler.Upstream{
			"weather": weatherClient,
			"geo":     geoClient,
			"tmdb":    tmdbClient,
		},
	})

	go func() {
		<-ctx.Done()
		slog.Info("shutting down recommender...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	addr := ":" + cfg.Port
	slog.Info("starting recommender", "addr", addr, "movies", movies.Len(), "users", users.Len(), "sampling", cfg.SamplingStrategy)
	if err := app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	if err := userSvc.Flush(); err != nil {
		slog.Error("failed to flush user store", "error", err)
	}
}

// loadCatalog never fails: an unreadable source yields an empty catalog.
func loadCatalog(ctx context.Context, cfg *config.Config) *catalog.Catalog {
	var (
		c   *catalog.Catalog
		err error
	)
	switch cfg.Catalog.Source {
	case "postgres":
		db, dbErr := database.NewPostgres(ctx, cfg.DB)
		if dbErr != nil {
			err = dbErr
			break
		}
		defer db.Close()
		c, err = catalog.LoadFromDB(ctx, db)
	default:
		c, err = catalog.Load(cfg.Catalog.Path)
	}
	if err != nil {
		slog.Error("failed to load movie catalog, continuing with an empty one", "source", cfg.Catalog.Source, "error", err)
		return catalog.Empty()
	}
	slog.Info("movie catalog loaded", "source", cfg.Catalog.Source, "movies", c.Len())
	return c
}
