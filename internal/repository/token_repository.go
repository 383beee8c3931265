package repository

import (
	"errors"

	"github.com/Maulana-anjari/account-service/internal/domain"

	"gorm.io/gorm"
)

var ErrTokenRecordNotFound = errors.New("token record not found")

type TokenRepository interface {
	Create(record *domain.TokenRecord) error
	// FindByOwner returns all records for (owner, kind), newest first.
	// Concurrent supersedes can briefly leave more than one; callers treat
	// the first entry as canonical.
	FindByOwner(userID uint, kind domain.TokenKind) ([]domain.TokenRecord, error)
	DeleteByOwner(userID uint, kind domain.TokenKind) error
	DeleteByID(id uint) error
}

type GormTokenRepository struct{ db *gorm.DB }

func NewTokenRepository(db *gorm.DB) TokenRepository { return &GormTokenRepository{db: db} }

func (r *GormTokenRepository) Create(record *domain.TokenRecord) error {
	return r.db.Create(record).Error
}

func (r *GormTokenRepository) FindByOwner(userID uint, kind domain.TokenKind) ([]domain.TokenRecord, error) {
	var records []domain.TokenRecord
	err := r.db.Where("user_id = ? AND kind = ?", userID, kind).
		Order("created_at DESC, id DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *GormTokenRepository) DeleteByOwner(userID uint, kind domain.TokenKind) error {
	return r.db.Where("user_id = ? AND kind = ?", userID, kind).
		Delete(&domain.TokenRecord{}).Error
}

func (r *GormTokenRepository) DeleteByID(id uint) error {
	res := r.db.Delete(&domain.TokenRecord{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTokenRecordNotFound
	}
	return nil
}
