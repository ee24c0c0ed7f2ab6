package migrations

import (
	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/migration"
	"gorm.io/gorm"
)

func init() {
	migration.Register("20250101000000_create_auth_tables", &CreateAuthTables{})
}

type CreateAuthTables struct{}

func (m *CreateAuthTables) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.RefreshToken{})
}

func (m *CreateAuthTables) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.RefreshToken{}, &models.User{})
}
