package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"movie-discovery-weather-recommender/internal/validation"
)

// Config holds all configuration for the recommender server.
type Config struct {
	Port     string `env:"SERVER_PORT" validate:"required,numeric"`
	LogLevel string `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	UsersFile string `env:"USERS_FILE" validate:"required"`
	Catalog   CatalogConfig
	DB        DBConfig
	Redis     RedisConfig
	Weather   WeatherConfig
	TMDB      TMDBConfig
	GeoIP     GeoIPConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig

	SamplingStrategy string        `env:"SAMPLING_STRATEGY" validate:"oneof=uniform rank_weighted"`
	WeatherCacheTTL  time.Duration `env:"WEATHER_CACHE_TTL_SECONDS" validate:"gte=0"`
	DetailsCacheTTL  time.Duration `env:"DETAILS_CACHE_TTL_SECONDS" validate:"gte=0"`
}

// CatalogConfig selects where movies are loaded from.
type CatalogConfig struct {
	Source string `env:"CATALOG_SOURCE" validate:"oneof=csv postgres"`
	Path   string `env:"CATALOG_PATH" validate:"required_if=Source csv"`
}

// DBConfig holds PostgreSQL configuration.
type DBConfig struct {
	Host        string `env:"DB_HOST"`
	Port        int    `env:"DB_PORT" validate:"min=1,max=65535"`
	User        string `env:"DB_USER"`
	Password    string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME"`
	SSLMode     string `env:"DB_SSLMODE" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	SSLRootCert string `env:"DB_SSLROOTCERT"`
}

// DSN returns the PostgreSQL connection string.
func (d DBConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
	if d.SSLRootCert != "" {
		dsn += fmt.Sprintf(" sslrootcert=%s", d.SSLRootCert)
	}
	return dsn
}

// RedisConfig holds Redis configuration. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" validate:"gte=0"`
}

// WeatherConfig holds OpenWeatherMap configuration.
type WeatherConfig struct {
	APIKey  string `env:"WEATHER_API_KEY"`
	BaseURL string `env:"WEATHER_BASE_URL" validate:"required,url"`
}

// TMDBConfig holds TMDB API configuration.
type TMDBConfig struct {
	APIKey   string `env:"TMDB_API_KEY"`
	BaseURL  string `env:"TMDB_BASE_URL" validate:"required,url"`
	ImageURL string `env:"TMDB_IMAGE_BASE_URL" validate:"required,url"`
}

// GeoIPConfig holds ipgeolocation.io configuration.
type GeoIPConfig struct {
	APIKey  string `env:"GEOIP_API_KEY"`
	BaseURL string `env:"GEOIP_BASE_URL" validate:"required,url"`
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET" validate:"required,min=16"`
	SessionTTL time.Duration `env:"SESSION_TTL_MINUTES" validate:"gt=0"`
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	Max    int           `env:"RATE_LIMIT_MAX" validate:"gte=0"`
	Window time.Duration `env:"RATE_LIMIT_WINDOW_SECONDS" validate:"gt=0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	dbPort, err := getInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	redisDB, err := getInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	sessionMinutes, err := getInt("SESSION_TTL_MINUTES", 60)
	if err != nil {
		return nil, err
	}
	rateMax, err := getInt("RATE_LIMIT_MAX", 100)
	if err != nil {
		return nil, err
	}
	rateWindow, err := getInt("RATE_LIMIT_WINDOW_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	weatherTTL, err := getInt("WEATHER_CACHE_TTL_SECONDS", 600)
	if err != nil {
		return nil, err
	}
	detailsTTL, err := getInt("DETAILS_CACHE_TTL_SECONDS", 86400)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:      getEnv("SERVER_PORT", "8080"),
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		UsersFile: getEnv("USERS_FILE", "data/users.json"),
		Catalog: CatalogConfig{
			Source: getEnv("CATALOG_SOURCE", "csv"),
			Path:   getEnv("CATALOG_PATH", "data/movies.csv"),
		},
		DB: DBConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        dbPort,
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "movie_catalog"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			SSLRootCert: getEnv("DB_SSLROOTCERT", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Weather: WeatherConfig{
			APIKey:  getEnv("WEATHER_API_KEY", ""),
			BaseURL: getEnv("WEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
		},
		TMDB: TMDBConfig{
			APIKey:   getEnv("TMDB_API_KEY", ""),
			BaseURL:  getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
			ImageURL: getEnv("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p/w500"),
		},
		GeoIP: GeoIPConfig{
			APIKey:  getEnv("GEOIP_API_KEY", ""),
			BaseURL: getEnv("GEOIP_BASE_URL", "https://api.ipgeolocation.io"),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", ""),
			SessionTTL: time.Duration(sessionMinutes) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Max:    rateMax,
			Window: time.Duration(rateWindow) * time.Second,
		},
		SamplingStrategy: getEnv("SAMPLING_STRATEGY", "uniform"),
		WeatherCacheTTL:  time.Duration(weatherTTL) * time.Second,
		DetailsCacheTTL:  time.Duration(detailsTTL) * time.Second,
	}

	if err := validation.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps LogLevel to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, v)
	}
	return n, nil
}
