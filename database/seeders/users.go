package seeders

import (
	"context"
	"errors"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/pkg/auth"
	"github.com/shashiranjanraj/stockroom/pkg/rbac"
	"gorm.io/gorm"
)

func init() {
	Register("admin-user", SeedAdmin)
}

// SeedAdmin creates the ADMIN account named by ADMIN_EMAIL / ADMIN_PASSWORD
// unless it already exists.
func SeedAdmin(ctx context.Context, db *gorm.DB) error {
	email := config.Get("ADMIN_EMAIL", "admin@stockroom.local")
	password := config.Get("ADMIN_PASSWORD", "")
	if password == "" {
		return errors.New("ADMIN_PASSWORD is not set")
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Create(&models.User{Email: email, Password: hash, Role: rbac.Admin}).Error
}
