// Package auth issues identities for the REST surface. It follows the
// original sign-in flow: an unknown email registers on first login, a
// known one must match its password.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/scrumdeck/scrumdeck/internal/domain"
	"github.com/scrumdeck/scrumdeck/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AccountRepo is the slice of the store the service needs; tests supply
// an in-memory fake.
type AccountRepo interface {
	FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	CreateAccount(ctx context.Context, account *domain.Account) error
}

type Service struct {
	repo   AccountRepo
	secret []byte
	expiry time.Duration
}

func NewService(repo AccountRepo, secret string, expiry time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Service{repo: repo, secret: []byte(secret), expiry: expiry}, nil
}

// LoginOrRegister authenticates an existing account or creates a fresh
// one. Returns the signed token and whether a new account was created.
func (s *Service) LoginOrRegister(ctx context.Context, email, password string) (string, bool, error) {
	account, err := s.repo.FindAccountByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if hashErr != nil {
			return "", false, fmt.Errorf("hash password: %w", hashErr)
		}
		account = &domain.Account{Email: email, PasswordHash: string(hash)}
		if createErr := s.repo.CreateAccount(ctx, account); createErr != nil {
			return "", false, fmt.Errorf("create account: %w", createErr)
		}
		token, signErr := s.sign(account)
		return token, true, signErr
	case err != nil:
		return "", false, fmt.Errorf("find account: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return "", false, ErrInvalidCredentials
	}
	token, signErr := s.sign(account)
	return token, false, signErr
}

func (s *Service) sign(account *domain.Account) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   account.ID,
		"email": account.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.expiry).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
