package repositories

import (
	"context"
	"strings"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/orm"
	"gorm.io/gorm"
)

// productPreloads loads a product's full variation tree.
var productPreloads = []string{"Variations.Attributes", "Variations.BOM.RawMaterial"}

// ProductFilter selects a page of products.
type ProductFilter struct {
	Page     int
	PerPage  int
	Search   string
	Category string
}

// ProductRepository handles database operations for Product.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts p with its nested variations, attributes and BOM rows.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// Paginate returns one page of products, newest first. Search matches name,
// description or any variation SKU, ignoring case.
func (r *ProductRepository) Paginate(ctx context.Context, f ProductFilter) ([]models.Product, orm.Meta, error) {
	q := orm.New(ctx, r.db).Model(&models.Product{}).
		WhereIf(f.Category != "", "category = ?", f.Category)

	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where(
			r.db.Where("LOWER(name) LIKE ?", like).
				Or("LOWER(description) LIKE ?", like).
				Or("id IN (?)", r.db.Model(&models.ProductVariation{}).
					Select("product_id").Where("LOWER(sku) LIKE ?", like)),
		)
	}

	var products []models.Product
	meta, err := q.Order("created_at DESC").Paginate(f.Page, f.PerPage, &products, productPreloads...)
	return products, meta, err
}

// FindByID loads a product with its variation tree; nil when absent.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	q := orm.New(ctx, r.db).Where("id = ?", id)
	for _, p := range productPreloads {
		q = q.Preload(p)
	}
	var p models.Product
	found, err := q.First(&p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

// Update applies fields to the product; false when it does not exist.
func (r *ProductRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (bool, error) {
	db := r.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil || count == 0 {
		return false, err
	}
	if len(fields) == 0 {
		return true, nil
	}
	return true, db.Model(&models.Product{}).Where("id = ?", id).Updates(fields).Error
}

// Delete removes a product and its variation tree; false when absent.
func (r *ProductRepository) Delete(ctx context.Context, id string) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		variations := func() *gorm.DB {
			return tx.Model(&models.ProductVariation{}).Select("id").Where("product_id = ?", id)
		}
		if err := tx.Where("variation_id IN (?)", variations()).Delete(&models.VariationAttribute{}).Error; err != nil {
			return err
		}
		if err := tx.Where("variation_id IN (?)", variations()).Delete(&models.BOM{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductVariation{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Product{})
		deleted = res.RowsAffected > 0
		return res.Error
	})
	return deleted, err
}
