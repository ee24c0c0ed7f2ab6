package repositories

import (
	"context"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/orm"
	"gorm.io/gorm"
)

// WebhookRepository handles database operations for WebhookSubscription.
type WebhookRepository struct {
	db *gorm.DB
}

func NewWebhookRepository(db *gorm.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

func (r *WebhookRepository) Create(ctx context.Context, w *models.WebhookSubscription) error {
	return r.db.WithContext(ctx).Create(w).Error
}

// FindFor returns subscriptions whose threshold covers newStock and whose
// SKU filter is empty or equal to sku.
func (r *WebhookRepository) FindFor(ctx context.Context, sku string, newStock int) ([]models.WebhookSubscription, error) {
	subs := []models.WebhookSubscription{}
	err := orm.New(ctx, r.db).
		Where("min_stock >= ?", newStock).
		Where("sku IS NULL OR sku = ?", sku).
		Order("created_at").
		Get(&subs)
	return subs, err
}
