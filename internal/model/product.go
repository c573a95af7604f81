package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StockLevelLow = "Low Stock"
	StockLevelOK  = "In Stock"
)

// Product is a catalog entry. Quantity is derived from the stock ledger and is
// only ever written through ProductRepository.AdjustQuantity.
type Product struct {
	BaseModel
	Name       string          `gorm:"type:varchar(100);not null" json:"name"`
	SKU        string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku"`
	Cost       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"cost"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	Quantity   int             `gorm:"not null;default:0" json:"quantity"`
	Threshold  int             `gorm:"not null;default:0" json:"threshold"`
	SupplierID uuid.UUID       `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier   *Supplier       `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}

// IsLowStock reports whether on-hand quantity is at or below the reorder threshold.
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.Threshold
}

// StockLevel returns the label shown in reports.
func (p *Product) StockLevel() string {
	if p.IsLowStock() {
		return StockLevelLow
	}
	return StockLevelOK
}

// UnitPriceFor returns the per-unit amount a movement in the given direction is valued at.
func (p *Product) UnitPriceFor(d Direction) decimal.Decimal {
	if d == DirectionIn {
		return p.Cost
	}
	return p.Price
}
