package handler

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"movie-discovery-weather-recommender/internal/middleware"
	"movie-discovery-weather-recommender/internal/models"
	"movie-discovery-weather-recommender/internal/service"
	"movie-discovery-weather-recommender/internal/validation"
)

// RecommendationHandler serves weather, location and recommendation requests.
type RecommendationHandler struct {
	svc *service.RecommendationService
}

func NewRecommendationHandler(svc *service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{svc: svc}
}

// Recommend returns up to five titles for the weather.
// @Summary Weather-based recommendations
// @Tags discovery
// @Security BearerAuth
// @Produce json
// @Param weather query string false "Weather description, e.g. light rain"
// @Param location query string false "City used to fetch the weather"
// @Param decade query int false "Decade start, e.g. 1990"
// @Param genre query string false "Extra genre filter"
// @Param year query string false "Exact release year"
// @Success 200 {object} models.RecommendationResponse
// @Failure 400 {object} ErrorResponse
// @Router /recommendations [get]
func (h *RecommendationHandler) Recommend(c fiber.Ctx) error {
	var q models.RecommendationQuery
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query parameters")
	}
	if err := validation.Struct(&q); err != nil {
		return respondError(c, err)
	}

	resp, err := h.svc.Recommend(c.Context(), middleware.Email(c), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// Weather returns the current weather for a location.
// @Summary Current weather
// @Tags discovery
// @Produce json
// @Param location query string true "City"
// @Success 200 {object} models.WeatherReport
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /weather [get]
func (h *RecommendationHandler) Weather(c fiber.Ctx) error {
	location := strings.TrimSpace(c.Query("location"))
	if location == "" {
		return badRequest(c, "location is required")
	}
	report, err := h.svc.Weather(c.Context(), location)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// Location detects the caller's city from their IP address.
// @Summary Detect location
// @Tags discovery
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} ErrorResponse
// @Router /location [get]
func (h *RecommendationHandler) Location(c fiber.Ctx) error {
	city, err := h.svc.DetectLocation(c.Context(), c.IP())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"city": city})
}
