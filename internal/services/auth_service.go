package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"clothshop/internal/apiclient"
	"clothshop/internal/domain"
	"clothshop/internal/session"
	"clothshop/internal/validate"
)

var (
	ErrBadCreds         = errors.New("invalid email or password")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrWeakPassword     = errors.New("password needs 8+ characters with upper, lower case and a digit")
)

// Authenticator is the token side of the backend.
type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (domain.AuthResponse, error)
	Register(ctx context.Context, reg domain.Registration) (domain.AuthResponse, error)
}

// SessionBinder records which user a browser session belongs to.
type SessionBinder interface {
	BindUser(ctx context.Context, sid string, userID int64) error
	UnbindUser(ctx context.Context, sid string) error
}

type AuthService struct {
	Auth     Authenticator
	Sessions SessionBinder
}

func (s *AuthService) Login(ctx context.Context, mgr *session.Manager, email, password string) (domain.User, error) {
	res, err := s.Auth.Login(ctx, domain.Credentials{Email: email, Password: password})
	if err != nil {
		if apiclient.IsStatus(err, http.StatusUnauthorized) || apiclient.IsStatus(err, http.StatusBadRequest) {
			return domain.User{}, ErrBadCreds
		}
		return domain.User{}, err
	}
	if err := s.start(ctx, mgr, res); err != nil {
		return domain.User{}, err
	}
	return res.User, nil
}

// Register creates the owner account and business, then signs in.
func (s *AuthService) Register(ctx context.Context, mgr *session.Manager, reg domain.Registration, confirm string) (domain.User, error) {
	if !validate.PasswordsMatch(reg.Password, confirm) {
		return domain.User{}, ErrPasswordMismatch
	}
	if !validate.Password(reg.Password) {
		return domain.User{}, ErrWeakPassword
	}
	res, err := s.Auth.Register(ctx, reg)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.start(ctx, mgr, res); err != nil {
		return domain.User{}, err
	}
	return res.User, nil
}

func (s *AuthService) Logout(ctx context.Context, mgr *session.Manager) error {
	if s.Sessions != nil {
		_ = s.Sessions.UnbindUser(ctx, mgr.ID())
	}
	return mgr.Logout(ctx)
}

func (s *AuthService) start(ctx context.Context, mgr *session.Manager, res domain.AuthResponse) error {
	if err := mgr.Login(ctx, res); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	if s.Sessions != nil {
		if err := s.Sessions.BindUser(ctx, mgr.ID(), res.User.ID); err != nil {
			return fmt.Errorf("bind session: %w", err)
		}
	}
	return nil
}
