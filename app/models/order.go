package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order statuses. An order only moves forward through them.
const (
	OrderPlaced     = "PLACED"
	OrderPaid       = "PAID"
	OrderDispatched = "DISPATCHED"
)

// Order is a placed order. TotalAmount is fixed at creation.
type Order struct {
	Base
	Status      string          `gorm:"size:20;not null;default:PLACED;index" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalAmount"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
}

// OrderItem records the quantity and unit price of one product at order time.
type OrderItem struct {
	ID        string          `gorm:"primaryKey;size:36" json:"id"`
	OrderID   string          `gorm:"size:36;not null;index" json:"orderId"`
	ProductID string          `gorm:"size:36;not null;index" json:"productId"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
