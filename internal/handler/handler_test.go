package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-discovery-weather-recommender/internal/auth"
	"movie-discovery-weather-recommender/internal/cache"
	"movie-discovery-weather-recommender/internal/catalog"
	"movie-discovery-weather-recommender/internal/models"
	"movie-discovery-weather-recommender/internal/recommend"
	"movie-discovery-weather-recommender/internal/service"
	"movie-discovery-weather-recommender/internal/store"
	"movie-discovery-weather-recommender/internal/tmdb"
)

type memRepo struct {
	saveErr error
}

func (m *memRepo) Load() ([]*models.User, error)   { return nil, nil }
func (m *memRepo) Save(users []*models.User) error { return m.saveErr }

type stubWeather struct{ err error }

func (s stubWeather) Fetch(ctx context.Context, location string) (*models.WeatherReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.WeatherReport{Location: location, Description: "Light rain", Temperature: 12}, nil
}

type stubLocator struct{}

func (stubLocator) City(ctx context.Context, ip string) (string, error) { return "Oslo", nil }

type stubMetadata struct{}

func (stubMetadata) Details(ctx context.Context, title string, year int) (*models.MovieDetails, error) {
	if title == "Unknown" {
		return nil, tmdb.ErrNotFound
	}
	return &models.MovieDetails{Title: title, Year: year, Language: "English"}, nil
}

type stubUpstream string

func (s stubUpstream) BreakerState() string { return string(s) }

type testServer struct {
	app  *fiber.App
	repo *memRepo
}

func newTestServer(t *testing.T, weatherErr error) *testServer {
	t.Helper()
	repo := &memRepo{}
	users := service.NewUserService(store.New(repo, nil))
	cat := catalog.New([]catalog.Row{
		{ID: 1, Title: "Sad Story (1990)", Genres: "Drama"},
		{ID: 2, Title: "Funny Story (1990)", Genres: "Comedy"},
	})
	engine := recommend.NewEngine(cat, recommend.WithRand(rand.New(rand.NewPCG(3, 4))))
	sessions := auth.NewSessions(auth.NewJWTService("0123456789abcdef0123456789abcdef", time.Hour), auth.NewTokenStore(nil))

	app := fiber.New(fiber.Config{JSONEncoder: json.Marshal, JSONDecoder: json.Unmarshal})
	Register(app, Deps{
		Users:           users,
		Recommendations: service.NewRecommendationService(engine, users, stubWeather{err: weatherErr}, stubLocator{}, cache.New(nil), time.Minute),
		Movies:          service.NewMovieService(cat, stubMetadata{}, cache.New(nil), time.Minute),
		Sessions:        sessions,
		SwaggerYAML:     []byte("openapi: 3.0.0"),
		Upstreams:       map[string]Upstream{"weather": stubUpstream("closed")},
	})
	return &testServer{app: app, repo: repo}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func (s *testServer) signUp(t *testing.T, email string) string {
	t.Helper()
	status, _ := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": email, "password": "pw", "confirm_password": "pw",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := s.do(t, http.MethodPost, "/api/v1/auth/sign-in", "", map[string]string{"email": email, "password": "pw"})
	require.Equal(t, http.StatusOK, status)
	var res models.SignInResponse
	require.NoError(t, json.Unmarshal(body, &res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	return e.Code
}

func TestRegisterAndSignIn(t *testing.T) {
	s := newTestServer(t, nil)
	s.signUp(t, "a@example.com")

	status, body := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "a@example.com", "password": "x", "confirm_password": "x",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, CodeEmailTaken, errorCode(t, body))

	status, body = s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "b@example.com", "password": "x", "confirm_password": "y",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, CodeValidation, errorCode(t, body))

	status, body = s.do(t, http.MethodPost, "/api/v1/auth/sign-in", "", map[string]string{"email": "a@example.com", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, CodeInvalidCredentials, errorCode(t, body))
}

func TestResetPassword(t *testing.T) {
	s := newTestServer(t, nil)
	s.signUp(t, "a@example.com")

	status, _ := s.do(t, http.MethodPost, "/api/v1/auth/reset-password", "", map[string]string{"email": "a@example.com", "new_password": "next"})
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/auth/sign-in", "", map[string]string{"email": "a@example.com", "password": "next"})
	assert.Equal(t, http.StatusOK, status)

	status, body := s.do(t, http.MethodPost, "/api/v1/auth/reset-password", "", map[string]string{"email": "x@example.com", "new_password": "next"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, CodeNotFound, errorCode(t, body))
}

func TestProfile(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t, "a@example.com")

	status, _ := s.do(t, http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := s.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, string(body), "password")

	var p models.UserProfile
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, "a@example.com", p.Email)
	assert.Equal(t, []string{"Drama", "Romance"}, p.GenrePreferences["rain"])

	status, _ = s.do(t, http.MethodPut, "/api/v1/me/notifications", token, map[string]bool{"enabled": true})
	assert.Equal(t, http.StatusNoContent, status)
	_, body = s.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.NoError(t, json.Unmarshal(body, &p))
	assert.True(t, p.Notifications)
}

func TestEditProfile(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t, "a@example.com")
	s.signUp(t, "b@example.com")

	status, body := s.do(t, http.MethodPatch, "/api/v1/me", token, map[string]any{"email": "b@example.com"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, CodeEmailTaken, errorCode(t, body))

	status, body = s.do(t, http.MethodPatch, "/api/v1/me", token, map[string]any{
		"genre_preferences": map[string][]string{"tornado": {"Disaster"}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, CodeValidation, errorCode(t, body))

	status, _ = s.do(t, http.MethodPatch, "/api/v1/me", token, map[string]any{"genres": []string{"Noir"}})
	assert.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodPatch, "/api/v1/me", token, map[string]any{"email": "c@example.com"})
	require.Equal(t, http.StatusOK, status)
	var p models.UserProfile
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, "c@example.com", p.Email)
	assert.Equal(t, []string{"Noir"}, p.Genres)

	status, body = s.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, status, "the session follows the account")
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, "c@example.com", p.Email)

	status, _ = s.do(t, http.MethodPost, "/api/v1/auth/sign-in", "", map[string]string{"email": "c@example.com", "password": "pw"})
	assert.Equal(t, http.StatusOK, status)
}

func TestEditProfile_EmailChangeUnsaved(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t, "a@example.com")
	s.repo.saveErr = errors.New("disk full")

	status, body := s.do(t, http.MethodPatch, "/api/v1/me", token, map[string]any{"email": "c@example.com"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, CodePersistence, errorCode(t, body))

	status, body = s.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	var p models.UserProfile
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, "c@example.com", p.Email)
}

func TestStaleSessionAfterDeleteAndReRegister(t *testing.T) {
	s := newTestServer(t, nil)
	first := s.signUp(t, "a@example.com")

	status, body := s.do(t, http.MethodPost, "/api/v1/auth/sign-in", "", map[string]string{"email": "a@example.com", "password": "pw"})
	require.Equal(t, http.StatusOK, status)
	var second models.SignInResponse
	require.NoError(t, json.Unmarshal(body, &second))

	status, _ = s.do(t, http.MethodDelete, "/api/v1/me", first, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/me", second.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, status, "other sessions end with the account")

	status, _ = s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "a@example.com", "password": "newowner", "confirm_password": "newowner",
	})
	require.Equal(t, http.StatusCreated, status)

	status, _ = s.do(t, http.MethodPut, "/api/v1/me/ratings", second.Token, map[string]any{"title": "Sad Story (1990)", "rating": 1})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = s.do(t, http.MethodGet, "/api/v1/me", second.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = s.do(t, http.MethodPost, "/api/v1/auth/sign-in", "", map[string]string{"email": "a@example.com", "password": "newowner"})
	require.Equal(t, http.StatusOK, status)
	var owner models.SignInResponse
	require.NoError(t, json.Unmarshal(body, &owner))
	_, body = s.do(t, http.MethodGet, "/api/v1/me/ratings", owner.Token, nil)
	assert.JSONEq(t, `{"ratings":{}}`, string(body))
}

func TestWatchlistAndRatings(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t, "a@example.com")

	status, _ := s.do(t, http.MethodPost, "/api/v1/me/watchlist", token, map[string]string{"title": "Sad Story (1990)"})
	assert.Equal(t, http.StatusCreated, status)
	status, body := s.do(t, http.MethodPost, "/api/v1/me/watchlist", token, map[string]string{"title": "Sad Story (1990)"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, CodeAlreadyPresent, errorCode(t, body))

	_, body = s.do(t, http.MethodGet, "/api/v1/me/watchlist", token, nil)
	assert.JSONEq(t, `{"watchlist":["Sad Story (1990)"]}`, string(body))

	status, _ = s.do(t, http.MethodDelete, "/api/v1/me/watchlist?title="+url.QueryEscape("Other (2001)"), token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = s.do(t, http.MethodDelete, "/api/v1/me/watchlist?title="+url.QueryEscape("Sad Story (1990)"), token, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = s.do(t, http.MethodPut, "/api/v1/me/ratings", token, map[string]any{"title": "Sad Story (1990)", "rating": 6})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = s.do(t, http.MethodPut, "/api/v1/me/ratings", token, map[string]any{"title": "Sad Story (1990)", "rating": 4})
	assert.Equal(t, http.StatusNoContent, status)

	_, body = s.do(t, http.MethodGet, "/api/v1/me/ratings", token, nil)
	assert.JSONEq(t, `{"ratings":{"Sad Story (1990)":4}}`, string(body))
}

func TestRecommendations(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t, "a@example.com")

	status, _ := s.do(t, http.MethodGet, "/api/v1/recommendations?weather=light+rain", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := s.do(t, http.MethodGet, "/api/v1/recommendations?weather=light+rain&decade=1990", token, nil)
	require.Equal(t, http.StatusOK, status)
	var resp models.RecommendationResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, []string{"Sad Story (1990)"}, resp.Recommendations)
	assert.Equal(t, "rain", resp.Condition)

	status, body = s.do(t, http.MethodGet, "/api/v1/recommendations?weather=tornado", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, resp.NoMatches)
	assert.Equal(t, recommend.NoMatchesMessage, resp.Message)

	status, _ = s.do(t, http.MethodGet, "/api/v1/recommendations?location=Oslo", token, nil)
	assert.Equal(t, http.StatusOK, status)

	tests := []string{
		"/api/v1/recommendations",
		"/api/v1/recommendations?weather=rain&year=abc",
		"/api/v1/recommendations?weather=rain&decade=abc",
		"/api/v1/recommendations?weather=rain&decade=90",
	}
	for _, path := range tests {
		status, _ := s.do(t, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusBadRequest, status, path)
	}
}

func TestWeatherAndLocation(t *testing.T) {
	s := newTestServer(t, nil)
	status, body := s.do(t, http.MethodGet, "/api/v1/weather?location=Oslo", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "Light rain")

	status, _ = s.do(t, http.MethodGet, "/api/v1/weather", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = s.do(t, http.MethodGet, "/api/v1/location", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"city":"Oslo"}`, string(body))

	down := newTestServer(t, errors.New("dial tcp: refused"))
	status, body = down.do(t, http.MethodGet, "/api/v1/weather?location=Oslo", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, CodeUpstreamUnavailable, errorCode(t, body))
}

func TestSearchAndDetails(t *testing.T) {
	s := newTestServer(t, nil)

	_, body := s.do(t, http.MethodGet, "/api/v1/search?q=COMEDY", "", nil)
	assert.JSONEq(t, `{"query":"COMEDY","results":["Funny Story (1990)"]}`, string(body))

	_, body = s.do(t, http.MethodGet, "/api/v1/search?q=western", "", nil)
	var sr models.SearchResponse
	require.NoError(t, json.Unmarshal(body, &sr))
	assert.Empty(t, sr.Results)
	assert.Equal(t, service.NoSearchResultsMessage, sr.Message)

	status, body := s.do(t, http.MethodGet, "/api/v1/movies/details?title="+url.QueryEscape("Sad Story (1990)"), "", nil)
	require.Equal(t, http.StatusOK, status)
	var d models.MovieDetails
	require.NoError(t, json.Unmarshal(body, &d))
	assert.Equal(t, "Sad Story", d.Title)
	assert.Equal(t, 1990, d.Year)

	status, _ = s.do(t, http.MethodGet, "/api/v1/movies/details?title=Unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDeleteAccount(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t, "a@example.com")

	status, _ := s.do(t, http.MethodDelete, "/api/v1/me", token, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/auth/sign-in", "", map[string]string{"email": "a@example.com", "password": "pw"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestPersistenceFailure(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t, "a@example.com")
	s.repo.saveErr = errors.New("read-only file system")

	status, body := s.do(t, http.MethodPut, "/api/v1/me/ratings", token, map[string]any{"title": "Sad Story (1990)", "rating": 5})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, CodePersistence, errorCode(t, body))
}

func TestHealthMetricsSwagger(t *testing.T) {
	s := newTestServer(t, nil)

	status, body := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"catalog_movies":2`)
	assert.Contains(t, string(body), `"upstreams":{"weather":"closed"}`)
	assert.Contains(t, string(body), `"status":"ok"`)

	status, body = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "catalog_movies")

	status, body = s.do(t, http.MethodGet, "/swagger/doc.yaml", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "openapi: 3.0.0", string(body))
}

func TestHealth_DegradedWhenBreakerOpen(t *testing.T) {
	app := fiber.New()
	Register(app, Deps{
		Users:           service.NewUserService(store.New(&memRepo{}, nil)),
		Movies:          service.NewMovieService(catalog.Empty(), stubMetadata{}, nil, 0),
		Recommendations: service.NewRecommendationService(recommend.NewEngine(nil), nil, stubWeather{}, stubLocator{}, nil, 0),
		Sessions:        auth.NewSessions(auth.NewJWTService("0123456789abcdef0123456789abcdef", time.Hour), auth.NewTokenStore(nil)),
		Upstreams:       map[string]Upstream{"weather": stubUpstream("closed"), "tmdb": stubUpstream("open")},
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	var body struct {
		Status    string            `json:"status"`
		Upstreams map[string]string `json:"upstreams"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, map[string]string{"weather": "closed", "tmdb": "open"}, body.Upstreams)
}

func TestMapError_Fallback(t *testing.T) {
	status, body := mapError(errors.New("surprise"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, CodeInternal, body.Code)
}
