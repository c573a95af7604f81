package repository

import (
	"context"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context) ([]model.Product, error)
	FindTrashed(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDUnscoped(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	FindActive(ctx context.Context, supplierID *uuid.UUID) ([]model.Product, error)
	CountBySupplier(ctx context.Context, supplierID uuid.UUID, includeDeleted bool) (int64, error)
	Update(ctx context.Context, product *model.Product) error
	SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string) error
	Restore(ctx context.Context, id uuid.UUID) error
	ForceDelete(ctx context.Context, id uuid.UUID) error

	// FindForUpdate and AdjustQuantity run inside the ledger's DB transaction.
	FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	AdjustQuantity(tx *gorm.DB, id uuid.UUID, expected, delta int, updatedBy string) error

	// WithTx returns a repository whose reads run on tx.
	WithTx(tx *gorm.DB) ProductRepository
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{tx}
}

// withSupplier preloads the supplier even when it sits in the trash.
func withSupplier(db *gorm.DB) *gorm.DB {
	return db.Preload("Supplier", func(db *gorm.DB) *gorm.DB { return db.Unscoped() })
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := withSupplier(r.db.WithContext(ctx)).Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindTrashed(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := withSupplier(r.db.WithContext(ctx).Unscoped()).
		Where("deleted_at IS NOT NULL").
		Order("deleted_at DESC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := withSupplier(r.db.WithContext(ctx)).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByIDUnscoped(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Unscoped().First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySKU looks across live and trashed rows, matching the unique index.
func (r *productRepo) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Unscoped().First(&product, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindActive(ctx context.Context, supplierID *uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	q := r.db.WithContext(ctx).Model(&model.Product{})
	if supplierID != nil {
		q = q.Where("supplier_id = ?", *supplierID)
	}
	err := q.Order("name ASC").Order("sku ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) CountBySupplier(ctx context.Context, supplierID uuid.UUID, includeDeleted bool) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&model.Product{})
	if includeDeleted {
		q = q.Unscoped()
	}
	err := q.Where("supplier_id = ?", supplierID).Count(&count).Error
	return count, err
}

// Update writes master data only; quantity is never part of the column list.
func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).
		Model(product).
		Select("name", "sku", "cost", "price", "threshold", "supplier_id", "updated_by", "updated_at").
		Updates(product).Error
}

func (r *productRepo) SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Product{}).Where("id = ?", id).Update("updated_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Product{}, "id = ?", id).Error
	})
}

func (r *productRepo) Restore(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().
		Model(&model.Product{}).
		Where("id = ?", id).
		Update("deleted_at", nil).Error
}

func (r *productRepo) ForceDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&model.Product{}, "id = ?", id).Error
}

func (r *productRepo) FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := forUpdate(tx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// AdjustQuantity is the only write path for Product.Quantity. It applies
// delta only if the row still holds the expected quantity and returns
// ErrConcurrencyConflict otherwise.
func (r *productRepo) AdjustQuantity(tx *gorm.DB, id uuid.UUID, expected, delta int, updatedBy string) error {
	next := expected + delta
	if next < 0 {
		return ErrNegativeQuantity
	}

	res := tx.Model(&model.Product{}).
		Where("id = ? AND quantity = ?", id, expected).
		Updates(map[string]interface{}{
			"quantity":   next,
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrencyConflict
	}
	return nil
}
