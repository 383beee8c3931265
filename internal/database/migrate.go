package database

import (
	"github.com/Maulana-anjari/account-service/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.TokenRecord{},
	)
}
