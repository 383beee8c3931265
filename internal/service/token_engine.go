package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Maulana-anjari/account-service/internal/domain"
	"github.com/Maulana-anjari/account-service/internal/repository"
	"github.com/Maulana-anjari/account-service/internal/security"

	"github.com/google/uuid"
)

// Infrastructure failure kinds. Callers branch on these with errors.Is to
// decide whether an operation is retryable; expected validation outcomes are
// TokenOutcome values, never errors.
var (
	ErrHashingFailure  = errors.New("hashing failure")
	ErrPersistFailure  = errors.New("persist failure")
	ErrDeliveryFailure = errors.New("delivery failure")
	// ErrFinalizeFailure means the token validated but the terminal mutation
	// and record deletion did not both complete.
	ErrFinalizeFailure = errors.New("finalization failed")
)

type TokenOutcome int

const (
	TokenValid TokenOutcome = iota
	TokenExpired
	TokenNotFound
	TokenMismatch
)

func (o TokenOutcome) String() string {
	switch o {
	case TokenValid:
		return "valid"
	case TokenExpired:
		return "expired"
	case TokenNotFound:
		return "not_found"
	case TokenMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// TokenEngine owns the one-time token lifecycle: it issues hashed token
// records, validates presented tokens, enforces expiry, and drives the
// terminal mutation exactly once per valid token.
type TokenEngine struct {
	users     repository.UserRepository
	tokens    repository.TokenRepository
	gateway   NotificationGateway
	logger    *slog.Logger
	baseURL   string
	verifyTTL time.Duration
	resetTTL  time.Duration
	now       func() time.Time
}

func NewTokenEngine(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	gateway NotificationGateway,
	logger *slog.Logger,
	baseURL string,
	verifyTTL, resetTTL time.Duration,
) *TokenEngine {
	return &TokenEngine{
		users:     users,
		tokens:    tokens,
		gateway:   gateway,
		logger:    logger,
		baseURL:   baseURL,
		verifyTTL: verifyTTL,
		resetTTL:  resetTTL,
		now:       time.Now,
	}
}

// newRawToken builds the user-presented secret: a random UUID concatenated
// with the decimal owner id. The shape is load-bearing for link
// compatibility with the previous generation of this service.
func newRawToken(ownerID uint) string {
	return uuid.NewString() + strconv.FormatUint(uint64(ownerID), 10)
}

// IssueVerification creates a verification token for a freshly signed-up
// user and mails the verification link. The stored record holds only the
// bcrypt hash of the raw token.
func (e *TokenEngine) IssueVerification(ctx context.Context, user *domain.User) error {
	raw := newRawToken(user.ID)
	link := fmt.Sprintf("%suser/verify/%d/%s", e.baseURL, user.ID, raw)
	body := fmt.Sprintf(`<p>Verify your email address to complete the signup and login into your account.</p>
<p>This link <b>expires in 6 hours</b></p>
<p>Press <a href=%s>here</a> to process.</p>`, link)

	return e.issue(ctx, user, domain.TokenKindVerification, raw, e.verifyTTL, Notification{
		To:       user.Email,
		Subject:  "[NO REPLY] Verify Your Email",
		HTMLBody: body,
	})
}

// IssueReset supersedes any outstanding reset tokens for the user, creates a
// fresh one, and mails the reset link rooted at the caller-supplied redirect
// URL.
func (e *TokenEngine) IssueReset(ctx context.Context, user *domain.User, redirectURL string) error {
	if err := e.tokens.DeleteByOwner(user.ID, domain.TokenKindReset); err != nil {
		return fmt.Errorf("%w: clearing existing reset records: %v", ErrPersistFailure, err)
	}

	raw := newRawToken(user.ID)
	link := fmt.Sprintf("%s/%d/%s", redirectURL, user.ID, raw)
	body := fmt.Sprintf(`<p>We heard that you lost the password.</p>
<p>Don't worry, use the link below to reset it.</p>
<p>This link <b>expires in 60 minute</b>.</p>
<p>Press <a href=%s>here</a> to process.</p>`, link)

	return e.issue(ctx, user, domain.TokenKindReset, raw, e.resetTTL, Notification{
		To:       user.Email,
		Subject:  "[NO REPLY] Reset Password",
		HTMLBody: body,
	})
}

func (e *TokenEngine) issue(ctx context.Context, user *domain.User, kind domain.TokenKind, raw string, ttl time.Duration, n Notification) error {
	hash, err := security.HashToken(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHashingFailure, err)
	}

	now := e.now().UTC()
	record := &domain.TokenRecord{
		UserID:    user.ID,
		Kind:      kind,
		TokenHash: hash,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := e.tokens.Create(record); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistFailure, err)
	}

	if err := e.gateway.Send(ctx, n); err != nil {
		// The record stays: a reset re-issue supersedes it, and a stale
		// verification record is cleaned up on its first expired validate.
		e.logger.ErrorContext(ctx, "token delivery failed",
			"user_id", user.ID, "kind", string(kind), "error", err)
		return fmt.Errorf("%w: %v", ErrDeliveryFailure, err)
	}
	return nil
}

// Validate checks a presented raw token against the newest stored record for
// (owner, kind). Expired records are deleted on sight; an expired
// verification token also removes the still-unverified user record
// (abandoned signup cleanup). A mismatch keeps the record so the user may
// retry.
func (e *TokenEngine) Validate(ctx context.Context, ownerID uint, kind domain.TokenKind, presented string) (TokenOutcome, error) {
	outcome, _, err := e.validate(ctx, ownerID, kind, presented)
	return outcome, err
}

func (e *TokenEngine) validate(ctx context.Context, ownerID uint, kind domain.TokenKind, presented string) (TokenOutcome, *domain.TokenRecord, error) {
	records, err := e.tokens.FindByOwner(ownerID, kind)
	if err != nil {
		return TokenNotFound, nil, fmt.Errorf("%w: %v", ErrPersistFailure, err)
	}
	if len(records) == 0 {
		return TokenNotFound, nil, nil
	}

	// Concurrent supersedes can race delete-then-insert; only the newest
	// record is canonical.
	record := records[0]

	if e.now().After(record.ExpiresAt) {
		if err := e.tokens.DeleteByID(record.ID); err != nil && !errors.Is(err, repository.ErrTokenRecordNotFound) {
			return TokenExpired, nil, fmt.Errorf("%w: clearing expired record: %v", ErrPersistFailure, err)
		}
		if kind == domain.TokenKindVerification {
			// Only an abandoned signup is swept. A stale record can
			// outlive a completed verification when the consume write
			// failed, and must not take the account with it.
			owner, err := e.users.FindByID(ownerID)
			switch {
			case errors.Is(err, repository.ErrUserNotFound):
			case err != nil:
				return TokenExpired, nil, fmt.Errorf("%w: loading owner of expired token: %v", ErrPersistFailure, err)
			case !owner.Verified:
				if err := e.users.DeleteByID(ownerID); err != nil {
					return TokenExpired, nil, fmt.Errorf("%w: clearing user with expired token: %v", ErrPersistFailure, err)
				}
			}
		}
		return TokenExpired, nil, nil
	}

	ok, err := security.CompareToken(record.TokenHash, presented)
	if err != nil {
		return TokenMismatch, nil, fmt.Errorf("%w: %v", ErrHashingFailure, err)
	}
	if !ok {
		return TokenMismatch, nil, nil
	}
	return TokenValid, &record, nil
}

// ConfirmVerification validates a verification token and, on success, marks
// the owner verified and consumes the record. Both writes must land or the
// call reports ErrFinalizeFailure.
func (e *TokenEngine) ConfirmVerification(ctx context.Context, ownerID uint, presented string) (TokenOutcome, error) {
	outcome, record, err := e.validate(ctx, ownerID, domain.TokenKindVerification, presented)
	if outcome != TokenValid || err != nil {
		return outcome, err
	}

	if err := e.users.MarkVerified(ownerID); err != nil {
		return TokenValid, fmt.Errorf("%w: marking user verified: %v", ErrFinalizeFailure, err)
	}
	if err := e.tokens.DeleteByID(record.ID); err != nil && !errors.Is(err, repository.ErrTokenRecordNotFound) {
		return TokenValid, fmt.Errorf("%w: consuming verification record: %v", ErrFinalizeFailure, err)
	}
	e.logger.InfoContext(ctx, "email verified", "user_id", ownerID)
	return TokenValid, nil
}

// CompleteReset validates a reset token and, on success, replaces the
// owner's credential and consumes the record.
func (e *TokenEngine) CompleteReset(ctx context.Context, ownerID uint, presented, newPassword string) (TokenOutcome, error) {
	outcome, record, err := e.validate(ctx, ownerID, domain.TokenKindReset, presented)
	if outcome != TokenValid || err != nil {
		return outcome, err
	}

	newHash, err := security.HashPassword(newPassword)
	if err != nil {
		return TokenValid, fmt.Errorf("%w: %v", ErrHashingFailure, err)
	}
	if err := e.users.UpdatePassword(ownerID, newHash); err != nil {
		return TokenValid, fmt.Errorf("%w: updating user password: %v", ErrFinalizeFailure, err)
	}
	if err := e.tokens.DeleteByID(record.ID); err != nil && !errors.Is(err, repository.ErrTokenRecordNotFound) {
		return TokenValid, fmt.Errorf("%w: consuming reset record: %v", ErrFinalizeFailure, err)
	}
	e.logger.InfoContext(ctx, "password reset completed", "user_id", ownerID)
	return TokenValid, nil
}
