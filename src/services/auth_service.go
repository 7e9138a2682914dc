package services

import (
	"context"
	"errors"
	"strings"

	"crypto-advisor/src/auth"
	"crypto-advisor/src/helpers"
	"crypto-advisor/src/interfaces"
	"crypto-advisor/src/logger"
	"crypto-advisor/src/models"
)

const (
	MsgEmailTaken         = "Email already registered"
	MsgInvalidCredentials = "Invalid email or password"
)

// MAuthResult is returned by register and login.
type MAuthResult struct {
	Token string             `json:"token"`
	User  models.MPublicUser `json:"user"`
}

// -----------------------------------------------------------------------------

type AuthService struct {
	Users      interfaces.IUserStore
	Tokens     *auth.TokenManager
	BcryptCost int
	Logger     *logger.Logger
}

func NewAuthService(users interfaces.IUserStore, tokens *auth.TokenManager, bcryptCost int, log *logger.Logger) *AuthService {
	return &AuthService{Users: users, Tokens: tokens, BcryptCost: bcryptCost, Logger: log}
}

// -----------------------------------------------------------------------------

func (s *AuthService) Register(ctx context.Context, email, name, password string) (*MAuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if err := validateRegistration(email, name, password); err != nil {
		return nil, err
	}

	if _, err := s.Users.FindUserByEmail(ctx, email); err == nil {
		s.Logger.Warning("registration attempt with existing email %s", email)
		return nil, helpers.NewConflict(MsgEmailTaken)
	} else if !isNotFound(err) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.BcryptCost)
	if err != nil {
		return nil, err
	}

	u := &models.MUser{Email: email, Name: name, PasswordHash: hash}
	if err := s.Users.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.Logger.Info("new user registered: %s", u.ID)
	return s.issue(u)
}

// -----------------------------------------------------------------------------

func (s *AuthService) Login(ctx context.Context, email, password string) (*MAuthResult, error) {
	u, err := s.Users.FindUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			s.Logger.Warning("login attempt with unknown email")
			return nil, helpers.NewUnauthorized(MsgInvalidCredentials, nil)
		}
		return nil, err
	}

	if !auth.CheckPassword(u.PasswordHash, password) {
		s.Logger.Warning("login attempt with invalid password for user %s", u.ID)
		return nil, helpers.NewUnauthorized(MsgInvalidCredentials, nil)
	}

	s.Logger.Info("user %s logged in", u.ID)
	return s.issue(u)
}

// -----------------------------------------------------------------------------

func (s *AuthService) issue(u *models.MUser) (*MAuthResult, error) {
	token, err := s.Tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &MAuthResult{Token: token, User: u.Public()}, nil
}

func isNotFound(err error) bool {
	var nf *helpers.NotFoundError
	return errors.As(err, &nf)
}
