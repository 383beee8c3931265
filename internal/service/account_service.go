package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/Maulana-anjari/account-service/internal/domain"
	"github.com/Maulana-anjari/account-service/internal/repository"
	"github.com/Maulana-anjari/account-service/internal/security"
)

// Input validation failures. Rejected before the token engine or stores are
// touched, except the duplicate check which needs one lookup.
var (
	ErrEmptyInput     = errors.New("empty input fields")
	ErrInvalidName    = errors.New("invalid name entered")
	ErrInvalidEmail   = errors.New("invalid email entered")
	ErrInvalidDOB     = errors.New("invalid date of birth entered")
	ErrPasswordLength = errors.New("password is too short")
	ErrEmailTaken     = errors.New("user with the provided email already exists")
)

var nameRe = regexp.MustCompile(`^[a-zA-Z ]*$`)

type SigninOutcome int

const (
	SigninSuccess SigninOutcome = iota
	SigninNotRegistered
	SigninNotVerified
	SigninWrongPassword
)

type AccountService struct {
	users  repository.UserRepository
	engine *TokenEngine
	logger *slog.Logger
}

func NewAccountService(users repository.UserRepository, engine *TokenEngine, logger *slog.Logger) *AccountService {
	return &AccountService{users: users, engine: engine, logger: logger}
}

// Signup creates an unverified user and issues the verification token. The
// returned user is pending until the mailed token is confirmed.
func (s *AccountService) Signup(ctx context.Context, name, email, password, dateOfBirth string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	dateOfBirth = strings.TrimSpace(dateOfBirth)

	if name == "" || email == "" || password == "" || dateOfBirth == "" {
		return nil, ErrEmptyInput
	}
	if !nameRe.MatchString(name) {
		return nil, ErrInvalidName
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	dob, err := parseDateOfBirth(dateOfBirth)
	if err != nil {
		return nil, ErrInvalidDOB
	}
	if len(password) < 8 {
		return nil, ErrPasswordLength
	}

	// Pre-write existence check; the unique index on email catches the
	// race where two identical signups overlap.
	if _, err := s.users.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: checking for existing user: %v", ErrPersistFailure, err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHashingFailure, err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		DateOfBirth:  dob,
		PasswordHash: hash,
		Verified:     false,
	}
	if err := s.users.Create(user); err != nil {
		if errors.Is(err, repository.ErrUserDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("%w: saving new user: %v", ErrPersistFailure, err)
	}

	if err := s.engine.IssueVerification(ctx, user); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "signup pending verification", "user_id", user.ID)
	return user, nil
}

// Signin resolves a credential pair to exactly one outcome. The ordering is
// fixed: existence, then verified flag, then password compare. The password
// is never compared for an unverified account.
func (s *AccountService) Signin(ctx context.Context, email, password string) (SigninOutcome, *domain.User, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return SigninNotRegistered, nil, ErrEmptyInput
	}

	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return SigninNotRegistered, nil, nil
		}
		return SigninNotRegistered, nil, fmt.Errorf("%w: checking for existing user: %v", ErrPersistFailure, err)
	}
	if !user.Verified {
		return SigninNotVerified, nil, nil
	}

	ok, err := security.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return SigninWrongPassword, nil, fmt.Errorf("%w: %v", ErrHashingFailure, err)
	}
	if !ok {
		return SigninWrongPassword, nil, nil
	}
	return SigninSuccess, user, nil
}

// RequestPasswordReset issues a reset token for a registered, verified
// account. The redirect URL becomes the root of the mailed reset link.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email, redirectURL string) error {
	email = strings.TrimSpace(email)

	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return repository.ErrUserNotFound
		}
		return fmt.Errorf("%w: checking for existing user: %v", ErrPersistFailure, err)
	}
	if !user.Verified {
		return ErrAccountNotVerified
	}
	return s.engine.IssueReset(ctx, user, redirectURL)
}

// ErrAccountNotVerified rejects password resets (and signins, as an outcome)
// for accounts that never completed email verification.
var ErrAccountNotVerified = errors.New("email has not been verified yet")

func parseDateOfBirth(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006/01/02", "01/02/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
