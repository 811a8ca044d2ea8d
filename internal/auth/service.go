package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Service is the auth collaborator consumed by the portal: account creation,
// credential checks, and session issue/teardown.
type Service interface {
	// SignUp registers the email and opens a session for it.
	SignUp(ctx context.Context, email, password string) (Identity, string, error)
	// SignIn checks credentials and opens a session.
	SignIn(ctx context.Context, email, password string) (Identity, string, error)
	// SignOut tears down the session for the token.
	SignOut(ctx context.Context, token string) error
}

type service struct {
	repo     Repository
	sessions *SessionStore
	logger   *zap.Logger
}

func NewService(repo Repository, sessions *SessionStore, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		sessions: sessions,
		logger:   logger,
	}
}

func (s *service) SignUp(ctx context.Context, email, password string) (Identity, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return Identity{}, "", ErrInvalidCredentials
	}
	if len(password) < 6 {
		return Identity{}, "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, "", err
	}

	u := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return Identity{}, "", err
	}

	ident := Identity{ID: u.ID, Email: u.Email}
	token, err := s.sessions.Create(ctx, ident)
	if err != nil {
		return Identity{}, "", err
	}
	s.logger.Info("user signed up", zap.String("user_id", ident.ID.String()))
	return ident, token, nil
}

func (s *service) SignIn(ctx context.Context, email, password string) (Identity, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return Identity{}, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Identity{}, "", ErrInvalidCredentials
	}

	ident := Identity{ID: u.ID, Email: u.Email}
	token, err := s.sessions.Create(ctx, ident)
	if err != nil {
		return Identity{}, "", err
	}
	s.logger.Info("user signed in", zap.String("user_id", ident.ID.String()))
	return ident, token, nil
}

func (s *service) SignOut(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}
