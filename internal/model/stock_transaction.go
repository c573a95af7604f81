package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	return d == DirectionIn || d == DirectionOut
}

// Sign returns +1 for inbound and -1 for outbound movements.
func (d Direction) Sign() int {
	if d == DirectionOut {
		return -1
	}
	return 1
}

// StockTransaction is an immutable ledger entry. It has no UpdatedAt or
// DeletedAt column: entries are inserted once and never changed.
type StockTransaction struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type      Direction       `gorm:"type:varchar(3);not null;index" json:"type"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Value     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"value"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_cost"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Reason    string          `gorm:"type:varchar(255);not null" json:"reason"`
	Notes     *string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time       `gorm:"not null;index" json:"created_at"`
}

func (StockTransaction) TableName() string {
	return "stock_transactions"
}

func (t *StockTransaction) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}

// BeforeUpdate keeps the ledger append-only even for callers that bypass the repository.
func (t *StockTransaction) BeforeUpdate(tx *gorm.DB) error {
	return ErrLedgerImmutable
}

// BeforeDelete rejects removal of committed entries.
func (t *StockTransaction) BeforeDelete(tx *gorm.DB) error {
	return ErrLedgerImmutable
}
