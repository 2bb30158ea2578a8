package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"outreach_backend/internal/auth/password"
	"outreach_backend/internal/auth/repository"
	"outreach_backend/platform/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const accessTokenType = "access"

type Service struct {
	repo *repository.Repository
	cfg  config.AuthServiceConfig
}

func New(repo *repository.Repository, cfg config.AuthServiceConfig) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// SignIn verifies the credentials and returns a signed access token.
// Lookup and compare failures collapse into one error so the response
// does not reveal whether the address exists.
func (s *Service) SignIn(ctx context.Context, email, plainPassword string) (string, error) {
	op, err := s.repo.GetOperatorByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if err := password.Compare(op.PasswordHash, plainPassword); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.issueAccessToken(op.ID)
}

func (s *Service) GetMe(ctx context.Context, operatorID uuid.UUID) (repository.Operator, error) {
	return s.repo.GetOperator(ctx, operatorID)
}

func (s *Service) issueAccessToken(operatorID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  operatorID.String(),
		"type": accessTokenType,
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.GetAccessTokenTTL()).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}
