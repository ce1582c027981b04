package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"movie-discovery-weather-recommender/internal/cache"
	"movie-discovery-weather-recommender/internal/metrics"
	"movie-discovery-weather-recommender/internal/models"
	"movie-discovery-weather-recommender/internal/recommend"
)

// UnavailableWeather is shown when no weather description could be obtained.
const UnavailableWeather = "Unavailable"

var (
	// ErrWeatherRequired is returned when neither weather nor location is given.
	ErrWeatherRequired = errors.New("either weather or location is required")
	// ErrWeatherUnavailable is returned when the weather service cannot answer.
	ErrWeatherUnavailable = errors.New("weather service unavailable")
	// ErrLocationUnavailable is returned when the caller's city cannot be detected.
	ErrLocationUnavailable = errors.New("location detection unavailable")
)

// WeatherFetcher returns the current weather at a location.
type WeatherFetcher interface {
	Fetch(ctx context.Context, location string) (*models.WeatherReport, error)
}

// CityLocator resolves an IP address to a city.
type CityLocator interface {
	City(ctx context.Context, ip string) (string, error)
}

// RecommendationService resolves weather, reads the caller's preferences and
// asks the engine for titles.
type RecommendationService struct {
	engine   *recommend.Engine
	users    *UserService
	weather  WeatherFetcher
	locator  CityLocator
	cache    *cache.Client
	cacheTTL time.Duration
}

func NewRecommendationService(
	engine *recommend.Engine,
	users *UserService,
	weather WeatherFetcher,
	locator CityLocator,
	c *cache.Client,
	cacheTTL time.Duration,
) *RecommendationService {
	return &RecommendationService{
		engine:   engine,
		users:    users,
		weather:  weather,
		locator:  locator,
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

// Weather returns the current weather at location, using the cache first.
func (s *RecommendationService) Weather(ctx context.Context, location string) (*models.WeatherReport, error) {
	location = strings.TrimSpace(location)
	key := "weather:" + strings.ToLower(location)
	if report, ok := cache.GetJSON[models.WeatherReport](ctx, s.cache, "weather", key); ok {
		slog.Debug("weather cache hit", "location", location)
		return &report, nil
	}

	report, err := s.weather.Fetch(ctx, location)
	if err != nil {
		return nil, errors.Join(ErrWeatherUnavailable, err)
	}
	cache.SetJSON(ctx, s.cache, key, report, s.cacheTTL)
	return report, nil
}

// DetectLocation returns the city of the caller at ip.
func (s *RecommendationService) DetectLocation(ctx context.Context, ip string) (string, error) {
	city, err := s.locator.City(ctx, ip)
	if err != nil {
		slog.Warn("location detection failed", "ip", ip, "error", err)
		return "", errors.Join(ErrLocationUnavailable, err)
	}
	return city, nil
}

// Recommend builds recommendations for the signed-in email. An explicit
// weather description wins over location. When the weather at location cannot
// be fetched the answer is "no matches", never an error.
func (s *RecommendationService) Recommend(ctx context.Context, email string, q models.RecommendationQuery) (*models.RecommendationResponse, error) {
	u, err := s.users.User(email)
	if err != nil {
		return nil, err
	}

	description := strings.TrimSpace(q.Weather)
	if description == "" {
		if strings.TrimSpace(q.Location) == "" {
			return nil, ErrWeatherRequired
		}
		report, err := s.Weather(ctx, q.Location)
		if err != nil {
			slog.Warn("weather unavailable, no recommendations", "location", q.Location, "error", err)
		} else {
			description = report.Description
		}
	}

	res, err := s.engine.Recommend(recommend.Request{
		Weather:          description,
		GenrePreferences: u.GenrePreferences,
		Decade:           q.Decade,
		Filters:          recommend.Filters{Genre: q.Genre, Year: q.Year},
		Ratings:          u.Ratings,
	})
	if err != nil {
		metrics.Recommendations.WithLabelValues("", "invalid").Inc()
		return nil, fmt.Errorf("recommend: %w", err)
	}

	resp := &models.RecommendationResponse{
		Weather:         description,
		Condition:       string(res.Condition),
		Recommendations: res.Titles,
		NoMatches:       res.NoMatches(),
	}
	if resp.Weather == "" {
		resp.Weather = UnavailableWeather
	}
	if res.NoMatches() {
		resp.Recommendations = []string{}
		resp.Message = recommend.NoMatchesMessage
		metrics.Recommendations.WithLabelValues(string(res.Condition), "no_matches").Inc()
	} else {
		metrics.Recommendations.WithLabelValues(string(res.Condition), "matched").Inc()
	}
	slog.Info("recommendations generated", "email", email, "condition", res.Condition, "count", len(res.Titles))
	return resp, nil
}
