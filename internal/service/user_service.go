package service

import (
	"sync"

	"movie-discovery-weather-recommender/internal/metrics"
	"movie-discovery-weather-recommender/internal/models"
	"movie-discovery-weather-recommender/internal/store"
)

// UserService serializes every call into the user store, which is not safe
// for concurrent use.
type UserService struct {
	mu    sync.Mutex
	store *store.UserStore
}

func NewUserService(s *store.UserStore) *UserService {
	metrics.UsersTotal.Set(float64(s.Len()))
	return &UserService{store: s}
}

func (s *UserService) record(op string, err error) error {
	metrics.UserOperations.WithLabelValues(op, metrics.StoreResult(err, store.IsValidation(err))).Inc()
	metrics.UsersTotal.Set(float64(s.store.Len()))
	return err
}

func (s *UserService) Register(email, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record("register", s.store.Register(email, password))
}

func (s *UserService) Authenticate(email, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record("authenticate", s.store.Authenticate(email, password))
}

func (s *UserService) ResetPassword(email, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record("reset_password", s.store.ResetPassword(email, newPassword))
}

func (s *UserService) EditProfile(email string, upd models.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record("edit_profile", s.store.EditProfile(email, upd))
}

func (s *UserService) SetNotifications(email string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record("set_notifications", s.store.SetNotifications(email, enabled))
}

func (s *UserService) DeleteAccount(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record("delete_account", s.store.DeleteAccount(email))
}

func (s *UserService) AddToWatchlist(email, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record("add_to_watchlist", s.store.AddToWatchlist(email, title))
}

func (s *UserService) RemoveFromWatchlist(email, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record("remove_from_watchlist", s.store.RemoveFromWatchlist(email, title))
}

func (s *UserService) Rate(email, title string, rating int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record("rate", s.store.Rate(email, title, rating))
}

// User returns a copy of the stored user.
func (s *UserService) User(email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get(email)
}

// EmailForID resolves a session's account id to the account's current email.
func (s *UserService) EmailForID(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.EmailForID(id)
}

// Profile returns the public view of the user.
func (s *UserService) Profile(email string) (models.UserProfile, error) {
	u, err := s.User(email)
	if err != nil {
		return models.UserProfile{}, err
	}
	return u.Profile(), nil
}

// Flush retries persisting the store after a failed write.
func (s *UserService) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Save()
}
