package tmdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"movie-discovery-weather-recommender/internal/models"
	"movie-discovery-weather-recommender/internal/resilience"
)

// ErrNotFound is returned when TMDB has no movie matching the title.
var ErrNotFound = errors.New("movie not found")

// Client is the TMDB API client.
type Client struct {
	apiKey   string
	baseURL  string
	imageURL string
	http     *resilience.HTTPClient
}

// NewClient creates a new TMDB API client. imageURL prefixes poster paths.
func NewClient(apiKey, baseURL, imageURL string) *Client {
	return &Client{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		imageURL: strings.TrimRight(imageURL, "/"),
		http:     resilience.NewHTTPClient("tmdb", 15*time.Second),
	}
}

// ---- TMDB response types ----

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
}

type movieDetail struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	PosterPath       string  `json:"poster_path"`
	Genres           []genre `json:"genres"`
	OriginalLanguage string  `json:"original_language"`
	SpokenLanguages  []struct {
		EnglishName string `json:"english_name"`
		Name        string `json:"name"`
	} `json:"spoken_languages"`
}

type genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ---- client methods ----

// Details searches TMDB for title, narrowed by year when non-zero, and
// returns the metadata of the best match.
func (c *Client) Details(ctx context.Context, title string, year int) (*models.MovieDetails, error) {
	id, err := c.search(ctx, title, year)
	if err != nil {
		return nil, err
	}

	var d movieDetail
	u := fmt.Sprintf("%s/movie/%d?%s", c.baseURL, id, url.Values{"api_key": {c.apiKey}}.Encode())
	slog.Debug("fetching TMDB movie detail", "tmdb_id", id)
	if err := c.http.GetJSON(ctx, u, &d); err != nil {
		if resilience.IsStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("tmdb id %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get movie detail: %w", err)
	}
	return c.toDetails(d), nil
}

func (c *Client) search(ctx context.Context, title string, year int) (int, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("query", title)
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}

	var res searchResponse
	slog.Debug("searching TMDB", "title", title, "year", year)
	if err := c.http.GetJSON(ctx, c.baseURL+"/search/movie?"+q.Encode(), &res); err != nil {
		return 0, fmt.Errorf("search movie: %w", err)
	}
	if len(res.Results) == 0 {
		return 0, fmt.Errorf("%q: %w", title, ErrNotFound)
	}
	return res.Results[0].ID, nil
}

func (c *Client) toDetails(d movieDetail) *models.MovieDetails {
	out := &models.MovieDetails{
		Title:    d.Title,
		Genres:   make([]string, 0, len(d.Genres)),
		Synopsis: d.Overview,
	}
	if len(d.ReleaseDate) >= 4 {
		out.Year, _ = strconv.Atoi(d.ReleaseDate[:4])
	}
	for _, g := range d.Genres {
		out.Genres = append(out.Genres, g.Name)
	}

	var langs []string
	for _, l := range d.SpokenLanguages {
		if l.EnglishName != "" {
			langs = append(langs, l.EnglishName)
		} else if l.Name != "" {
			langs = append(langs, l.Name)
		}
	}
	if len(langs) > 0 {
		out.Language = strings.Join(langs, ", ")
	} else {
		out.Language = d.OriginalLanguage
	}
	if out.Language == "" {
		out.Language = "N/A"
	}

	if d.PosterPath != "" {
		out.PosterURL = c.imageURL + d.PosterPath
	}
	return out
}

// BreakerState reports the circuit breaker state of the upstream API.
func (c *Client) BreakerState() string { return c.http.State() }
