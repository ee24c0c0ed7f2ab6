package migrations

import (
	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/migration"
	"gorm.io/gorm"
)

func init() {
	migration.Register("20250101000100_create_catalogue_tables", &CreateCatalogueTables{})
}

type CreateCatalogueTables struct{}

func (m *CreateCatalogueTables) Up(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Product{},
		&models.ProductVariation{},
		&models.VariationAttribute{},
		&models.RawMaterial{},
		&models.BOM{},
	)
}

func (m *CreateCatalogueTables) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(
		&models.BOM{},
		&models.RawMaterial{},
		&models.VariationAttribute{},
		&models.ProductVariation{},
		&models.Product{},
	)
}
