// Package store owns the in-memory collection of user profiles and is the
// only writer of the persisted user file.
//
// A UserStore is not safe for concurrent use. Every mutation rewrites the whole
// collection, so callers that share a store across goroutines must serialize
// all calls, for example behind one mutex.
package store

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"movie-discovery-weather-recommender/internal/models"
)

// Repository loads and saves the full user collection.
type Repository interface {
	Load() ([]*models.User, error)
	Save(users []*models.User) error
}

// UserStore holds every user profile keyed by exact email.
type UserStore struct {
	repo  Repository
	users []*models.User
}

// New builds a store over users without touching the repository.
func New(repo Repository, users []*models.User) *UserStore {
	return &UserStore{repo: repo, users: users}
}

// Open loads the collection from repo. A missing or unreadable source is
// logged and the store starts empty.
func Open(repo Repository) *UserStore {
	users, err := repo.Load()
	if err != nil {
		slog.Warn("could not load users, starting with an empty store", "error", err)
		users = nil
	}
	return New(repo, users)
}

// Len returns the number of users.
func (s *UserStore) Len() int { return len(s.users) }

func (s *UserStore) find(email string) *models.User {
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (s *UserStore) mustFind(email string) (*models.User, error) {
	u := s.find(email)
	if u == nil {
		return nil, fmt.Errorf("user %q: %w", email, ErrNotFound)
	}
	return u, nil
}

// EmailForID returns the current email of the account with id.
func (s *UserStore) EmailForID(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	for _, u := range s.users {
		if u.ID == id {
			return u.Email, true
		}
	}
	return "", false
}

// Save writes the current collection. It can be used to retry after a
// PersistenceError.
func (s *UserStore) Save() error {
	return s.persist("save")
}

func (s *UserStore) persist(op string) error {
	if err := s.repo.Save(s.users); err != nil {
		slog.Error("failed to persist users", "op", op, "error", err)
		return &PersistenceError{Op: op, Err: err}
	}
	return nil
}

// Get returns a copy of the user with email.
func (s *UserStore) Get(email string) (models.User, error) {
	u, err := s.mustFind(email)
	if err != nil {
		return models.User{}, err
	}
	return u.Clone(), nil
}

// Register creates a user, hashing password.
func (s *UserStore) Register(email, password string) error {
	if s.find(email) != nil {
		slog.Warn("registration failed: email already registered", "email", email)
		return ErrEmailTaken
	}
	s.users = append(s.users, models.NewUser(email, password))
	if err := s.persist("register"); err != nil {
		return err
	}
	slog.Info("user registered", "email", email)
	return nil
}

// Authenticate checks password against the stored hash for email.
func (s *UserStore) Authenticate(email, password string) error {
	u := s.find(email)
	if u == nil || !u.CheckPassword(password) {
		slog.Warn("sign-in failed", "email", email)
		return ErrInvalidCredentials
	}
	slog.Info("sign-in successful", "email", email)
	return nil
}

// ResetPassword replaces the password of email.
func (s *UserStore) ResetPassword(email, newPassword string) error {
	u, err := s.mustFind(email)
	if err != nil {
		return err
	}
	u.SetPassword(newPassword)
	if err := s.persist("reset_password"); err != nil {
		return err
	}
	slog.Info("password reset", "email", email)
	return nil
}

// EditProfile applies every supplied field of upd as one update. Nothing is
// changed when any field is rejected.
func (s *UserStore) EditProfile(email string, upd models.ProfileUpdate) error {
	u, err := s.mustFind(email)
	if err != nil {
		return err
	}

	if upd.Email != nil && *upd.Email != u.Email {
		if s.find(*upd.Email) != nil {
			slog.Warn("edit profile failed: email already taken", "email", email, "new_email", *upd.Email)
			return ErrEmailTaken
		}
	}
	if upd.GenrePreferences != nil {
		if unknown := upd.GenrePreferences.UnknownKeys(); len(unknown) > 0 {
			sort.Strings(unknown)
			return fmt.Errorf("%w: unknown weather conditions %s", ErrInvalidGenrePreferences, strings.Join(unknown, ", "))
		}
	}

	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Password != nil {
		u.SetPassword(*upd.Password)
	}
	if upd.Genres != nil {
		u.Genres = slices.Clone(upd.Genres)
	}
	if upd.GenrePreferences != nil {
		u.GenrePreferences = upd.GenrePreferences.Normalized()
	}

	if err := s.persist("edit_profile"); err != nil {
		return err
	}
	slog.Info("profile updated", "email", email, "current_email", u.Email)
	return nil
}

// SetNotifications toggles release notifications for email.
func (s *UserStore) SetNotifications(email string, enabled bool) error {
	u, err := s.mustFind(email)
	if err != nil {
		return err
	}
	u.Notifications = enabled
	if err := s.persist("set_notifications"); err != nil {
		return err
	}
	slog.Info("notification preferences updated", "email", email, "enabled", enabled)
	return nil
}

// DeleteAccount removes email from the store.
func (s *UserStore) DeleteAccount(email string) error {
	i := slices.IndexFunc(s.users, func(u *models.User) bool { return u.Email == email })
	if i < 0 {
		return fmt.Errorf("user %q: %w", email, ErrNotFound)
	}
	s.users = slices.Delete(s.users, i, i+1)
	if err := s.persist("delete_account"); err != nil {
		return err
	}
	slog.Info("account deleted", "email", email)
	return nil
}

// AddToWatchlist appends title unless it is already present.
func (s *UserStore) AddToWatchlist(email, title string) error {
	u, err := s.mustFind(email)
	if err != nil {
		return err
	}
	if slices.Contains(u.Watchlist, title) {
		return fmt.Errorf("%q: %w", title, ErrAlreadyPresent)
	}
	u.Watchlist = append(u.Watchlist, title)
	if err := s.persist("add_to_watchlist"); err != nil {
		return err
	}
	slog.Info("watchlist updated", "email", email, "added", title)
	return nil
}

// RemoveFromWatchlist removes title from the watchlist of email.
func (s *UserStore) RemoveFromWatchlist(email, title string) error {
	u, err := s.mustFind(email)
	if err != nil {
		return err
	}
	i := slices.Index(u.Watchlist, title)
	if i < 0 {
		return fmt.Errorf("%q not in watchlist: %w", title, ErrNotFound)
	}
	u.Watchlist = slices.Delete(u.Watchlist, i, i+1)
	if err := s.persist("remove_from_watchlist"); err != nil {
		return err
	}
	slog.Info("watchlist updated", "email", email, "removed", title)
	return nil
}

// Rate stores or overwrites the rating of title for email.
func (s *UserStore) Rate(email, title string, rating int) error {
	if rating < models.MinRating || rating > models.MaxRating {
		return fmt.Errorf("%w: got %d", ErrInvalidRating, rating)
	}
	u, err := s.mustFind(email)
	if err != nil {
		return err
	}
	if u.Ratings == nil {
		u.Ratings = map[string]int{}
	}
	u.Ratings[title] = rating
	if err := s.persist("rate"); err != nil {
		return err
	}
	slog.Info("movie rated", "email", email, "title", title, "rating", rating)
	return nil
}
