// Package repositories is the persistence gateway: one repository per
// aggregate, all sharing a *gorm.DB that may be a transaction.
package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Repositories bundles every repository over one connection or transaction.
type Repositories struct {
	db *gorm.DB

	Products   *ProductRepository
	Variations *VariationRepository
	Catalogue  *CatalogueRepository
	Orders     *OrderRepository
	Webhooks   *WebhookRepository
	Users      *UserRepository
	Tokens     *RefreshTokenRepository
}

// New builds the repositories over db.
func New(db *gorm.DB) *Repositories {
	return &Repositories{
		db:         db,
		Products:   NewProductRepository(db),
		Variations: NewVariationRepository(db),
		Catalogue:  NewCatalogueRepository(db),
		Orders:     NewOrderRepository(db),
		Webhooks:   NewWebhookRepository(db),
		Users:      NewUserRepository(db),
		Tokens:     NewRefreshTokenRepository(db),
	}
}

// Transaction runs fn with repositories bound to a single transaction. An
// error from fn rolls the transaction back.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// DB exposes the underlying handle.
func (r *Repositories) DB() *gorm.DB { return r.db }
