package handler

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"movie-discovery-weather-recommender/internal/auth"
	"movie-discovery-weather-recommender/internal/middleware"
	"movie-discovery-weather-recommender/internal/models"
	"movie-discovery-weather-recommender/internal/service"
	"movie-discovery-weather-recommender/internal/validation"
)

// UserHandler handles account, profile, watchlist and rating requests.
type UserHandler struct {
	users    *service.UserService
	sessions *auth.Sessions
}

func NewUserHandler(users *service.UserService, sessions *auth.Sessions) *UserHandler {
	return &UserHandler{users: users, sessions: sessions}
}

// Register creates an account.
// @Summary Register
// @Tags auth
// @Accept json
// @Produce json
// @Param body body models.RegisterRequest true "Account"
// @Success 201 {object} models.UserProfile
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/register [post]
func (h *UserHandler) Register(c fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return respondError(c, err)
	}

	if err := h.users.Register(req.Email, req.Password); err != nil {
		return respondError(c, err)
	}
	profile, err := h.users.Profile(req.Email)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}

// SignIn checks credentials and returns a session token.
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param body body models.SignInRequest true "Credentials"
// @Success 200 {object} models.SignInResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/sign-in [post]
func (h *UserHandler) SignIn(c fiber.Ctx) error {
	var req models.SignInRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return respondError(c, err)
	}

	if err := h.users.Authenticate(req.Email, req.Password); err != nil {
		return respondError(c, err)
	}
	u, err := h.users.User(req.Email)
	if err != nil {
		return respondError(c, err)
	}
	return h.issue(c, u)
}

// ResetPassword replaces the password of an account.
// @Summary Reset password
// @Tags auth
// @Accept json
// @Param body body models.ResetPasswordRequest true "New password"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /auth/reset-password [post]
func (h *UserHandler) ResetPassword(c fiber.Ctx) error {
	var req models.ResetPasswordRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return respondError(c, err)
	}

	if err := h.users.ResetPassword(req.Email, req.NewPassword); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SignOut revokes the current session.
// @Summary Sign out
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Router /auth/sign-out [post]
func (h *UserHandler) SignOut(c fiber.Ctx) error {
	h.sessions.Revoke(c.Context(), middleware.Claims(c))
	slog.Info("signed out", "email", middleware.Email(c))
	return c.SendStatus(fiber.StatusNoContent)
}

// Profile returns the signed-in user's profile.
// @Summary Get profile
// @Tags profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.UserProfile
// @Router /me [get]
func (h *UserHandler) Profile(c fiber.Ctx) error {
	profile, err := h.users.Profile(middleware.Email(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// EditProfile applies a partial profile update. Sessions belong to the
// account, so they stay valid when the email changes.
// @Summary Edit profile
// @Tags profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.EditProfileRequest true "Fields to change"
// @Success 200 {object} models.UserProfile
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /me [patch]
func (h *UserHandler) EditProfile(c fiber.Ctx) error {
	var req models.EditProfileRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return respondError(c, err)
	}

	email := middleware.Email(c)
	upd := models.ProfileUpdate{
		Email:            req.Email,
		Password:         req.Password,
		Genres:           req.Genres,
		GenrePreferences: req.GenrePreferences,
	}
	if err := h.users.EditProfile(email, upd); err != nil {
		return respondError(c, err)
	}

	if req.Email != nil {
		email = *req.Email
	}
	profile, err := h.users.Profile(email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// SetNotifications toggles release notifications.
// @Summary Set notifications
// @Tags profile
// @Security BearerAuth
// @Accept json
// @Param body body models.NotificationsRequest true "Enabled flag"
// @Success 204
// @Router /me/notifications [put]
func (h *UserHandler) SetNotifications(c fiber.Ctx) error {
	var req models.NotificationsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return respondError(c, err)
	}
	if err := h.users.SetNotifications(middleware.Email(c), *req.Enabled); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteAccount removes the signed-in user. Every session of the account stops
// working once it is gone; the current one is also revoked.
// @Summary Delete account
// @Tags profile
// @Security BearerAuth
// @Success 204
// @Router /me [delete]
func (h *UserHandler) DeleteAccount(c fiber.Ctx) error {
	if err := h.users.DeleteAccount(middleware.Email(c)); err != nil {
		return respondError(c, err)
	}
	h.sessions.Revoke(c.Context(), middleware.Claims(c))
	return c.SendStatus(fiber.StatusNoContent)
}

// Watchlist returns the signed-in user's watchlist.
// @Summary Get watchlist
// @Tags lists
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /me/watchlist [get]
func (h *UserHandler) Watchlist(c fiber.Ctx) error {
	u, err := h.users.User(middleware.Email(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"watchlist": u.Watchlist})
}

// AddToWatchlist appends a title.
// @Summary Add to watchlist
// @Tags lists
// @Security BearerAuth
// @Accept json
// @Param body body models.WatchlistRequest true "Title"
// @Success 201
// @Failure 409 {object} ErrorResponse
// @Router /me/watchlist [post]
func (h *UserHandler) AddToWatchlist(c fiber.Ctx) error {
	var req models.WatchlistRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return respondError(c, err)
	}
	if err := h.users.AddToWatchlist(middleware.Email(c), req.Title); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusCreated)
}

// RemoveFromWatchlist removes the title given in the query string.
// @Summary Remove from watchlist
// @Tags lists
// @Security BearerAuth
// @Param title query string true "Title"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /me/watchlist [delete]
func (h *UserHandler) RemoveFromWatchlist(c fiber.Ctx) error {
	title := c.Query("title")
	if strings.TrimSpace(title) == "" {
		return badRequest(c, "title is required")
	}
	if err := h.users.RemoveFromWatchlist(middleware.Email(c), title); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Ratings returns the signed-in user's ratings.
// @Summary Get ratings
// @Tags lists
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]int
// @Router /me/ratings [get]
func (h *UserHandler) Ratings(c fiber.Ctx) error {
	u, err := h.users.User(middleware.Email(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ratings": u.Ratings})
}

// Rate stores a 1..5 rating for a title.
// @Summary Rate a movie
// @Tags lists
// @Security BearerAuth
// @Accept json
// @Param body body models.RateRequest true "Rating"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Router /me/ratings [put]
func (h *UserHandler) Rate(c fiber.Ctx) error {
	var req models.RateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return respondError(c, err)
	}
	if err := h.users.Rate(middleware.Email(c), req.Title, req.Rating); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UserHandler) issue(c fiber.Ctx, u models.User) error {
	token, claims, err := h.sessions.Issue(u.ID, u.Email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(models.SignInResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time.UTC().Format(time.RFC3339),
	})
}
