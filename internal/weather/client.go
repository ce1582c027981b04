// Package weather fetches current conditions from OpenWeatherMap.
package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"movie-discovery-weather-recommender/internal/models"
	"movie-discovery-weather-recommender/internal/resilience"
)

const iconURLFormat = "https://openweathermap.org/img/wn/%s@2x.png"

var (
	// ErrLocationNotFound is returned when the API does not know the location.
	ErrLocationNotFound = errors.New("location not found")
	// ErrNoWeather is returned when the response carries no weather entry.
	ErrNoWeather = errors.New("weather data unavailable")
)

// Client is the OpenWeatherMap client.
type Client struct {
	apiKey  string
	baseURL string
	http    *resilience.HTTPClient
}

// NewClient creates a client against baseURL, e.g.
// https://api.openweathermap.org/data/2.5.
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    resilience.NewHTTPClient("openweathermap", 10*time.Second),
	}
}

type currentResponse struct {
	Name    string `json:"name"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
}

// Fetch returns the current weather at location in metric units.
func (c *Client) Fetch(ctx context.Context, location string) (*models.WeatherReport, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrLocationNotFound
	}

	q := url.Values{}
	q.Set("q", location)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	var resp currentResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/weather?"+q.Encode(), &resp); err != nil {
		if resilience.IsStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("%q: %w", location, ErrLocationNotFound)
		}
		slog.Error("error fetching weather data", "location", location, "error", err)
		return nil, fmt.Errorf("fetch weather for %q: %w", location, err)
	}
	if len(resp.Weather) == 0 {
		slog.Error("weather data unavailable", "location", location)
		return nil, fmt.Errorf("%q: %w", location, ErrNoWeather)
	}

	w := resp.Weather[0]
	report := &models.WeatherReport{
		Location:    location,
		Description: capitalize(w.Description),
		Temperature: resp.Main.Temp,
		IconCode:    w.Icon,
	}
	if w.Icon != "" {
		report.IconURL = fmt.Sprintf(iconURLFormat, w.Icon)
	}
	slog.Info("weather data fetched", "location", location, "description", report.Description)
	return report, nil
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// BreakerState reports the circuit breaker state of the upstream API.
func (c *Client) BreakerState() string { return c.http.State() }
