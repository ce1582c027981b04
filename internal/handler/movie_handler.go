package handler

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"movie-discovery-weather-recommender/internal/service"
)

// MovieHandler handles HTTP requests for movies.
type MovieHandler struct {
	svc *service.MovieService
}

// NewMovieHandler creates a new MovieHandler.
func NewMovieHandler(svc *service.MovieService) *MovieHandler {
	return &MovieHandler{svc: svc}
}

// Search finds catalog titles by clean title or genre.
// @Summary Search movies
// @Tags movies
// @Produce json
// @Param q query string true "Search text"
// @Success 200 {object} models.SearchResponse
// @Router /search [get]
func (h *MovieHandler) Search(c fiber.Ctx) error {
	return c.JSON(h.svc.Search(c.Query("q")))
}

// Details returns third-party metadata for a title.
// @Summary Movie details
// @Tags movies
// @Produce json
// @Param title query string true "Catalog title, e.g. Heat (1995)"
// @Success 200 {object} models.MovieDetails
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /movies/details [get]
func (h *MovieHandler) Details(c fiber.Ctx) error {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		return badRequest(c, "title is required")
	}
	d, err := h.svc.Details(c.Context(), title)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(d)
}
