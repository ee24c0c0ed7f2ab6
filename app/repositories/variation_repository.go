package repositories

import (
	"context"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/orm"
	"gorm.io/gorm"
)

// VariationRepository reads and mutates variation stock.
type VariationRepository struct {
	db *gorm.DB
}

func NewVariationRepository(db *gorm.DB) *VariationRepository {
	return &VariationRepository{db: db}
}

// FindBySKU loads a variation without associations; nil when absent.
func (r *VariationRepository) FindBySKU(ctx context.Context, sku string) (*models.ProductVariation, error) {
	var v models.ProductVariation
	found, err := orm.New(ctx, r.db).Where("sku = ?", sku).First(&v)
	if err != nil || !found {
		return nil, err
	}
	return &v, nil
}

// FindBySKUWithProduct also loads the owning product and its variation tree.
func (r *VariationRepository) FindBySKUWithProduct(ctx context.Context, sku string) (*models.ProductVariation, error) {
	q := orm.New(ctx, r.db).Where("sku = ?", sku).Preload("Product")
	for _, p := range productPreloads {
		q = q.Preload("Product." + p)
	}
	var v models.ProductVariation
	found, err := q.First(&v)
	if err != nil || !found {
		return nil, err
	}
	return &v, nil
}

// Search returns up to limit variations whose SKU contains term.
func (r *VariationRepository) Search(ctx context.Context, term string, limit int) ([]models.ProductVariation, error) {
	var out []models.ProductVariation
	err := orm.New(ctx, r.db).
		WhereIf(term != "", "sku LIKE ?", "%"+term+"%").
		Order("sku").Limit(limit).Get(&out)
	return out, err
}

// DecrementStock subtracts qty only while stock stays non-negative. It
// returns false, leaving the row untouched, when stock is short.
func (r *VariationRepository) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.ProductVariation{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	return res.RowsAffected == 1, res.Error
}

// SetStock overwrites the stock of sku; false when no such SKU exists.
func (r *VariationRepository) SetStock(ctx context.Context, sku string, stock int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.ProductVariation{}).
		Where("sku = ?", sku).
		Updates(map[string]interface{}{"stock": stock})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	// MySQL reports zero rows when the value is unchanged.
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProductVariation{}).Where("sku = ?", sku).Count(&count).Error
	return count > 0, err
}

// UpdateBySKU applies fields to the variation; false when absent.
func (r *VariationRepository) UpdateBySKU(ctx context.Context, sku string, fields map[string]interface{}) (bool, error) {
	db := r.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.ProductVariation{}).Where("sku = ?", sku).Count(&count).Error; err != nil || count == 0 {
		return false, err
	}
	if len(fields) == 0 {
		return true, nil
	}
	return true, db.Model(&models.ProductVariation{}).Where("sku = ?", sku).Updates(fields).Error
}
