package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"movie-discovery-weather-recommender/internal/auth"
	"movie-discovery-weather-recommender/internal/middleware"
	"movie-discovery-weather-recommender/internal/service"
)

// Upstream is an outbound API whose breaker state /health reports.
type Upstream interface {
	BreakerState() string
}

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Users           *service.UserService
	Recommendations *service.RecommendationService
	Movies          *service.MovieService
	Sessions        *auth.Sessions
	SwaggerYAML     []byte
	Upstreams       map[string]Upstream
}

// Register mounts every route on app.
func Register(app *fiber.App, d Deps) {
	users := NewUserHandler(d.Users, d.Sessions)
	recs := NewRecommendationHandler(d.Recommendations)
	movies := NewMovieHandler(d.Movies)
	requireSession := middleware.RequireSession(d.Sessions, d.Users)

	app.Get("/health", func(c fiber.Ctx) error {
		status := "ok"
		upstreams := make(map[string]string, len(d.Upstreams))
		for name, u := range d.Upstreams {
			state := u.BreakerState()
			if state == "open" {
				status = "degraded"
			}
			upstreams[name] = state
		}
		return c.JSON(fiber.Map{
			"status":         status,
			"service":        "weather-movie-recommender",
			"catalog_movies": d.Movies.CatalogSize(),
			"upstreams":      upstreams,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	if d.SwaggerYAML != nil {
		RegisterSwagger(app, d.SwaggerYAML)
	}

	api := app.Group("/api/v1")

	a := api.Group("/auth")
	a.Post("/register", users.Register)
	a.Post("/sign-in", users.SignIn)
	a.Post("/reset-password", users.ResetPassword)
	a.Post("/sign-out", requireSession, users.SignOut)

	me := api.Group("/me", requireSession)
	me.Get("", users.Profile)
	me.Patch("", users.EditProfile)
	me.Delete("", users.DeleteAccount)
	me.Put("/notifications", users.SetNotifications)
	me.Get("/watchlist", users.Watchlist)
	me.Post("/watchlist", users.AddToWatchlist)
	me.Delete("/watchlist", users.RemoveFromWatchlist)
	me.Get("/ratings", users.Ratings)
	me.Put("/ratings", users.Rate)

	api.Get("/recommendations", requireSession, recs.Recommend)
	api.Get("/weather", recs.Weather)
	api.Get("/location", recs.Location)
	api.Get("/search", movies.Search)
	api.Get("/movies/details", movies.Details)
}
