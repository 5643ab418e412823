package core

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"selfsight.app/journal/internal/auth"
	"selfsight.app/journal/internal/logger"
	"selfsight.app/journal/internal/store"
)

const minPasswordLength = 8

type UserService struct {
	users UserRepository
	cache LocalCache
}

func NewUserService(users UserRepository, cache LocalCache) *UserService {
	return &UserService{users: users, cache: cache}
}

// Signup registers a new account. The user starts with IsNewUser set until
// the profile is filled in.
func (s *UserService) Signup(email, name, password string) (*store.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	if _, err := s.users.GetUserByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &store.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		IsNewUser:    true,
	}
	if err := s.users.CreateUser(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.cacheUser(user)
	logger.Info("User signed up", "user_id", user.ID)
	return user, nil
}

// Authenticate returns the user when the credentials match.
func (s *UserService) Authenticate(email, password string) (*store.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetProfile returns the account with its profile. When the database is
// unreachable the cached profile is served instead.
func (s *UserService) GetProfile(userID string) (*store.User, error) {
	user, err := s.users.GetUserByID(userID)
	if err == nil {
		s.cacheUser(user)
		return user, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		s.forgetUser(userID)
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	cached, ok := s.cachedUser(userID)
	if !ok {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	logger.Warn("Loading profile failed, serving local cache", "user_id", userID, "error", err)
	return cached, nil
}

// UpdateProfile stores the profile and clears the new-user flag.
func (s *UserService) UpdateProfile(userID string, profile store.Profile) (*store.User, error) {
	profile = store.Profile{
		Personality: strings.TrimSpace(profile.Personality),
		Values:      strings.TrimSpace(profile.Values),
		Strengths:   strings.TrimSpace(profile.Strengths),
		Goals:       strings.TrimSpace(profile.Goals),
	}

	user, err := s.users.UpdateUserProfile(userID, profile)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.forgetUser(userID)
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	case err != nil:
		// Keep the edit on this device so a later degraded read shows it.
		if cached, ok := s.cachedUser(userID); ok {
			cached.Profile = profile
			s.cacheUser(cached)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	s.cacheUser(user)
	return user, nil
}

// The whole account is cached so a degraded read keeps name, email and the
// onboarding flag. PasswordHash is never serialized.
func (s *UserService) cacheUser(user *store.User) {
	if err := s.cache.Put(user.ID, store.CacheKeyProfile, user); err != nil {
		logger.Error("Writing cached profile failed", "user_id", user.ID, "error", err)
	}
}

func (s *UserService) cachedUser(userID string) (*store.User, bool) {
	var user store.User
	found, err := s.cache.Get(userID, store.CacheKeyProfile, &user)
	if err != nil {
		logger.Error("Reading cached profile failed", "user_id", userID, "error", err)
		return nil, false
	}
	if !found || user.ID != userID {
		return nil, false
	}
	return &user, true
}

func (s *UserService) forgetUser(userID string) {
	if err := s.cache.Delete(userID, store.CacheKeyProfile); err != nil {
		logger.Error("Clearing cached profile failed", "user_id", userID, "error", err)
	}
}
