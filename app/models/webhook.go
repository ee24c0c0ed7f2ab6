package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WebhookSubscription asks for a POST to Endpoint whenever a matching SKU's
// stock falls to MinStock or below. A nil SKU matches every SKU.
type WebhookSubscription struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Endpoint  string    `gorm:"size:2048;not null" json:"endpoint"`
	SKU       *string   `gorm:"column:sku;size:100;index" json:"sku"`
	MinStock  int       `gorm:"not null;index" json:"minStock"`
	CreatedAt time.Time `json:"createdAt"`
}

func (w *WebhookSubscription) BeforeCreate(*gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// Matches reports whether the subscription wants an event for sku at newStock.
func (w WebhookSubscription) Matches(sku string, newStock int) bool {
	return w.MinStock >= newStock && (w.SKU == nil || *w.SKU == sku)
}
