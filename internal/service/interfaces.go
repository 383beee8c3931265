package service

import (
	"context"

	"github.com/Maulana-anjari/account-service/internal/domain"
)

type AccountServiceInterface interface {
	Signup(ctx context.Context, name, email, password, dateOfBirth string) (*domain.User, error)
	Signin(ctx context.Context, email, password string) (SigninOutcome, *domain.User, error)
	RequestPasswordReset(ctx context.Context, email, redirectURL string) error
}

type TokenValidator interface {
	ConfirmVerification(ctx context.Context, ownerID uint, presented string) (TokenOutcome, error)
	CompleteReset(ctx context.Context, ownerID uint, presented, newPassword string) (TokenOutcome, error)
}
