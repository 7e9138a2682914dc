package services

import (
	"context"

	"crypto-advisor/src/interfaces"
	"crypto-advisor/src/logger"
	"crypto-advisor/src/models"
)

type UserService struct {
	Users  interfaces.IUserStore
	Logger *logger.Logger
}

func NewUserService(users interfaces.IUserStore, log *logger.Logger) *UserService {
	return &UserService{Users: users, Logger: log}
}

// -----------------------------------------------------------------------------

// UpdateOnboarding validates and stores prefs, completing onboarding.
func (s *UserService) UpdateOnboarding(ctx context.Context, userID string, prefs models.MUserPreferences) (models.MPublicUser, error) {
	clean, err := NormalizePreferences(prefs)
	if err != nil {
		return models.MPublicUser{}, err
	}

	if _, err := s.Users.FindUserByID(ctx, userID); err != nil {
		return models.MPublicUser{}, err
	}

	u, err := s.Users.UpdatePreferences(ctx, userID, clean)
	if err != nil {
		return models.MPublicUser{}, err
	}

	s.Logger.Info("user %s completed onboarding with %d assets", userID, len(clean.Assets))
	return u.Public(), nil
}

// -----------------------------------------------------------------------------

func (s *UserService) GetProfile(ctx context.Context, userID string) (models.MPublicUser, error) {
	u, err := s.Users.FindUserByID(ctx, userID)
	if err != nil {
		return models.MPublicUser{}, err
	}
	return u.Public(), nil
}
