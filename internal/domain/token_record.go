package domain

import "time"

type TokenKind string

const (
	TokenKindVerification TokenKind = "verification"
	TokenKindReset        TokenKind = "reset"
)

// TokenRecord holds the hash of an outstanding one-time token. The raw token
// is never stored; only the bcrypt hash is kept until the record is consumed
// or expires.
type TokenRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_token_records_owner_kind" json:"user_id"`
	Kind      TokenKind `gorm:"size:32;not null;index:idx_token_records_owner_kind" json:"kind"`
	TokenHash string    `gorm:"size:1024;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}
