package repositories

import (
	"context"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/orm"
	"gorm.io/gorm"
)

// CatalogueRepository handles the auxiliary catalogue records: variation
// attributes, raw materials and BOM lines.
type CatalogueRepository struct {
	db *gorm.DB
}

func NewCatalogueRepository(db *gorm.DB) *CatalogueRepository {
	return &CatalogueRepository{db: db}
}

// updateByID applies fields to the row of dest's type with id and reloads
// dest. It reports false when the row does not exist.
func (r *CatalogueRepository) updateByID(ctx context.Context, dest interface{}, id string, fields map[string]interface{}) (bool, error) {
	db := r.db.WithContext(ctx)
	found, err := orm.New(ctx, r.db).Where("id = ?", id).First(dest)
	if err != nil || !found {
		return false, err
	}
	if len(fields) > 0 {
		if err := db.Model(dest).Updates(fields).Error; err != nil {
			return true, err
		}
	}
	_, err = orm.New(ctx, r.db).Where("id = ?", id).First(dest)
	return true, err
}

// ── Variation attributes ─────────────────────────────────────────────────────

func (r *CatalogueRepository) CreateAttribute(ctx context.Context, a *models.VariationAttribute) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *CatalogueRepository) UpdateAttribute(ctx context.Context, id string, fields map[string]interface{}) (*models.VariationAttribute, error) {
	var a models.VariationAttribute
	found, err := r.updateByID(ctx, &a, id, fields)
	if err != nil || !found {
		return nil, err
	}
	return &a, nil
}

func (r *CatalogueRepository) DeleteAttribute(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.VariationAttribute{})
	return res.RowsAffected > 0, res.Error
}

// ── Raw materials ────────────────────────────────────────────────────────────

func (r *CatalogueRepository) CreateRawMaterial(ctx context.Context, m *models.RawMaterial) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *CatalogueRepository) ListRawMaterials(ctx context.Context) ([]models.RawMaterial, error) {
	out := []models.RawMaterial{}
	err := orm.New(ctx, r.db).Order("created_at DESC").Get(&out)
	return out, err
}

func (r *CatalogueRepository) FindRawMaterial(ctx context.Context, id string) (*models.RawMaterial, error) {
	var m models.RawMaterial
	found, err := orm.New(ctx, r.db).Where("id = ?", id).First(&m)
	if err != nil || !found {
		return nil, err
	}
	return &m, nil
}

func (r *CatalogueRepository) UpdateRawMaterial(ctx context.Context, id string, fields map[string]interface{}) (*models.RawMaterial, error) {
	var m models.RawMaterial
	found, err := r.updateByID(ctx, &m, id, fields)
	if err != nil || !found {
		return nil, err
	}
	return &m, nil
}

// ── BOM ──────────────────────────────────────────────────────────────────────

func (r *CatalogueRepository) CreateBOM(ctx context.Context, b *models.BOM) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *CatalogueRepository) ListBOM(ctx context.Context) ([]models.BOM, error) {
	out := []models.BOM{}
	err := orm.New(ctx, r.db).Preload("RawMaterial").Order("variation_id").Get(&out)
	return out, err
}

func (r *CatalogueRepository) UpdateBOM(ctx context.Context, id string, fields map[string]interface{}) (*models.BOM, error) {
	var b models.BOM
	found, err := r.updateByID(ctx, &b, id, fields)
	if err != nil || !found {
		return nil, err
	}
	return &b, nil
}

// Exists reports whether a row of model's table has id.
func (r *CatalogueRepository) Exists(ctx context.Context, model interface{}, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
