package seeders

import (
	"context"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	Register("demo-catalogue", SeedCatalogue)
}

// SeedCatalogue inserts a small demo catalogue when the products table is
// empty.
func SeedCatalogue(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	cotton := models.RawMaterial{Name: "Cotton yarn", Unit: "kg", Quantity: 250}
	if err := db.WithContext(ctx).Create(&cotton).Error; err != nil {
		return err
	}

	category := "apparel"
	tee := models.Product{
		Name:     "Crew neck tee",
		Category: &category,
		Variations: []models.ProductVariation{
			{
				SKU: "TEE-BLK-M", Price: decimal.NewFromInt(499), Stock: 40,
				Attributes: []models.VariationAttribute{{Name: "colour", Value: "black"}, {Name: "size", Value: "M"}},
				BOM:        []models.BOM{{RawMaterialID: cotton.ID, QuantityRequired: 0.2}},
			},
			{
				SKU: "TEE-WHT-L", Price: decimal.NewFromInt(499), Stock: 25,
				Attributes: []models.VariationAttribute{{Name: "colour", Value: "white"}, {Name: "size", Value: "L"}},
				BOM:        []models.BOM{{RawMaterialID: cotton.ID, QuantityRequired: 0.22}},
			},
		},
	}
	return db.WithContext(ctx).Create(&tee).Error
}
