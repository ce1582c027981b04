package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"movie-discovery-weather-recommender/internal/auth"
	"movie-discovery-weather-recommender/internal/geo"
	"movie-discovery-weather-recommender/internal/recommend"
	"movie-discovery-weather-recommender/internal/resilience"
	"movie-discovery-weather-recommender/internal/service"
	"movie-discovery-weather-recommender/internal/store"
	"movie-discovery-weather-recommender/internal/tmdb"
	"movie-discovery-weather-recommender/internal/validation"
	"movie-discovery-weather-recommender/internal/weather"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string                  `json:"error"`
	Code    string                  `json:"code"`
	Details []validation.FieldError `json:"details,omitempty"`
}

// Error codes.
const (
	CodeEmailTaken          = "EMAIL_TAKEN"
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeAlreadyPresent      = "ALREADY_PRESENT"
	CodeValidation          = "VALIDATION_ERROR"
	CodePersistence         = "PERSISTENCE_ERROR"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInternal            = "INTERNAL_ERROR"
)

// mapError translates domain errors to an HTTP status and code.
func mapError(err error) (int, ErrorResponse) {
	var verr *validation.Error
	var perr *store.PersistenceError

	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, ErrorResponse{Error: verr.Error(), Code: CodeValidation, Details: verr.Fields}
	case errors.As(err, &perr):
		return fiber.StatusInternalServerError, ErrorResponse{
			Error: "change applied but could not be saved; retry later",
			Code:  CodePersistence,
		}
	case errors.Is(err, store.ErrEmailTaken):
		return fiber.StatusConflict, ErrorResponse{Error: store.ErrEmailTaken.Error(), Code: CodeEmailTaken}
	case errors.Is(err, store.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, ErrorResponse{Error: store.ErrInvalidCredentials.Error(), Code: CodeInvalidCredentials}
	case errors.Is(err, store.ErrAlreadyPresent):
		return fiber.StatusConflict, ErrorResponse{Error: err.Error(), Code: CodeAlreadyPresent}
	case errors.Is(err, store.ErrInvalidRating),
		errors.Is(err, store.ErrInvalidGenrePreferences),
		errors.Is(err, recommend.ErrInvalidYearFilter),
		errors.Is(err, service.ErrWeatherRequired):
		return fiber.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeValidation}
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, weather.ErrLocationNotFound),
		errors.Is(err, tmdb.ErrNotFound),
		errors.Is(err, geo.ErrNoCity):
		return fiber.StatusNotFound, ErrorResponse{Error: err.Error(), Code: CodeNotFound}
	case errors.Is(err, auth.ErrInvalidToken):
		return fiber.StatusUnauthorized, ErrorResponse{Error: auth.ErrInvalidToken.Error(), Code: CodeUnauthorized}
	case errors.Is(err, service.ErrWeatherUnavailable),
		errors.Is(err, service.ErrLocationUnavailable),
		errors.Is(err, service.ErrMetadataUnavailable),
		errors.Is(err, resilience.ErrUnavailable):
		return fiber.StatusServiceUnavailable, ErrorResponse{Error: firstLine(err), Code: CodeUpstreamUnavailable}
	default:
		return fiber.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: CodeInternal}
	}
}

// respondError writes err as JSON, logging server-side failures.
func respondError(c fiber.Ctx, err error) error {
	status, body := mapError(err)
	if status >= fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
	}
	return c.Status(status).JSON(body)
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg, Code: CodeValidation})
}

// firstLine returns the outermost message of a joined error.
func firstLine(err error) string {
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := u.Unwrap(); len(errs) > 0 {
			return errs[0].Error()
		}
	}
	return err.Error()
}
