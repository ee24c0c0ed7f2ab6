package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalogue entry sold through one or more variations.
type Product struct {
	Base
	Name        string             `gorm:"size:255;not null;index" json:"name"`
	Description *string            `gorm:"type:text" json:"description"`
	Category    *string            `gorm:"size:100;index" json:"category"`
	Variations  []ProductVariation `gorm:"foreignKey:ProductID" json:"variations,omitempty"`
}

// ProductVariation is a sellable SKU with its own price and stock.
type ProductVariation struct {
	Base
	SKU        string               `gorm:"column:sku;size:100;uniqueIndex;not null" json:"sku"`
	Price      decimal.Decimal      `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock      int                  `gorm:"not null;default:0" json:"stock"`
	ProductID  string               `gorm:"size:36;not null;index" json:"productId"`
	Product    *Product             `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Attributes []VariationAttribute `gorm:"foreignKey:VariationID" json:"attributes,omitempty"`
	BOM        []BOM                `gorm:"foreignKey:VariationID" json:"bom,omitempty"`
}

// VariationAttribute is a name/value pair such as colour=red.
type VariationAttribute struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Value       string `gorm:"size:255;not null" json:"value"`
	VariationID string `gorm:"size:36;not null;index" json:"variationId"`
}

func (a *VariationAttribute) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// RawMaterial is an input consumed when producing variations.
type RawMaterial struct {
	Base
	Name        string  `gorm:"size:255;not null" json:"name"`
	Description *string `gorm:"type:text" json:"description"`
	Unit        string  `gorm:"size:50;not null" json:"unit"`
	Quantity    float64 `gorm:"not null;default:0" json:"quantity"`
	Supplier    *string `gorm:"size:255" json:"supplier"`
}

// BOM is one bill-of-materials line: how much of a raw material a
// variation needs.
type BOM struct {
	ID               string       `gorm:"primaryKey;size:36" json:"id"`
	VariationID      string       `gorm:"size:36;not null;index" json:"variationId"`
	RawMaterialID    string       `gorm:"size:36;not null;index" json:"rawMaterialId"`
	QuantityRequired float64      `gorm:"not null" json:"quantityRequired"`
	RawMaterial      *RawMaterial `gorm:"foreignKey:RawMaterialID" json:"rawMaterial,omitempty"`
}

func (BOM) TableName() string { return "boms" }

func (b *BOM) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
