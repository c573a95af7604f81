package repository

import (
	"context"
	"time"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionRepository is the ledger store. It is insert-only: there is no
// update or delete method.
type TransactionRepository interface {
	Append(tx *gorm.DB, entry *model.StockTransaction) error
	FindAll(ctx context.Context, limit int) ([]model.StockTransaction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockTransaction, error)
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
	FindEntries(ctx context.Context, q LedgerQuery) ([]model.StockTransaction, error)

	// LatestAt returns the newest entry timestamp of a product inside tx,
	// or the zero time when it has none.
	LatestAt(tx *gorm.DB, productID uuid.UUID) (time.Time, error)

	WithTx(tx *gorm.DB) TransactionRepository
}

// LedgerQuery filters ledger entries. From is inclusive, To is exclusive.
// Entries of soft-deleted products are included.
type LedgerQuery struct {
	SupplierID *uuid.UUID
	ProductIDs []uuid.UUID
	Type       model.Direction
	From       *time.Time
	To         *time.Time
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) WithTx(tx *gorm.DB) TransactionRepository {
	return &transactionRepo{tx}
}

func (r *transactionRepo) Append(tx *gorm.DB, entry *model.StockTransaction) error {
	return tx.Create(entry).Error
}

func (r *transactionRepo) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Unscoped() })
}

// FindAll returns entries newest first; limit <= 0 means no limit.
func (r *transactionRepo) FindAll(ctx context.Context, limit int) ([]model.StockTransaction, error) {
	var entries []model.StockTransaction
	q := r.preloaded(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&entries).Error
	return entries, err
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockTransaction, error) {
	var entry model.StockTransaction
	if err := r.preloaded(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *transactionRepo) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.StockTransaction{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}

// FindEntries returns matching entries in commit order.
func (r *transactionRepo) FindEntries(ctx context.Context, q LedgerQuery) ([]model.StockTransaction, error) {
	query := r.db.WithContext(ctx).Model(&model.StockTransaction{})

	if q.SupplierID != nil {
		query = query.
			Joins("JOIN products ON products.id = stock_transactions.product_id").
			Where("products.supplier_id = ?", *q.SupplierID)
	}
	if len(q.ProductIDs) > 0 {
		query = query.Where("stock_transactions.product_id IN ?", q.ProductIDs)
	}
	if q.Type != "" {
		query = query.Where("stock_transactions.type = ?", q.Type)
	}
	if q.From != nil {
		query = query.Where("stock_transactions.created_at >= ?", *q.From)
	}
	if q.To != nil {
		query = query.Where("stock_transactions.created_at < ?", *q.To)
	}

	var entries []model.StockTransaction
	err := query.
		Select("stock_transactions.*").
		Order("stock_transactions.created_at ASC").
		Order("stock_transactions.id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *transactionRepo) LatestAt(tx *gorm.DB, productID uuid.UUID) (time.Time, error) {
	var latest []model.StockTransaction
	err := tx.Model(&model.StockTransaction{}).
		Select("created_at").
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(1).
		Find(&latest).Error
	if err != nil || len(latest) == 0 {
		return time.Time{}, err
	}
	return latest[0].CreatedAt, nil
}
