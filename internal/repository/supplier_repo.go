package repository

import (
	"context"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupplierRepository interface {
	Create(ctx context.Context, supplier *model.Supplier) error
	FindAll(ctx context.Context) ([]model.Supplier, error)
	FindTrashed(ctx context.Context) ([]model.Supplier, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	FindByIDUnscoped(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	Update(ctx context.Context, supplier *model.Supplier) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	ForceDelete(ctx context.Context, id uuid.UUID) error
}

type supplierRepo struct {
	db *gorm.DB
}

func NewSupplierRepo(db *gorm.DB) SupplierRepository {
	return &supplierRepo{db}
}

func (r *supplierRepo) Create(ctx context.Context, supplier *model.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

func (r *supplierRepo) FindAll(ctx context.Context) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	err := r.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&suppliers).Error
	return suppliers, err
}

func (r *supplierRepo) FindTrashed(ctx context.Context) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	err := r.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL").
		Order("deleted_at DESC").
		Find(&suppliers).Error
	return suppliers, err
}

func (r *supplierRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepo) FindByIDUnscoped(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := r.db.WithContext(ctx).Unscoped().First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepo) Update(ctx context.Context, supplier *model.Supplier) error {
	return r.db.WithContext(ctx).
		Model(supplier).
		Select("name", "email", "phone", "address", "updated_by", "updated_at").
		Updates(supplier).Error
}

func (r *supplierRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Supplier{}, "id = ?", id).Error
}

func (r *supplierRepo) Restore(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().
		Model(&model.Supplier{}).
		Where("id = ?", id).
		Update("deleted_at", nil).Error
}

func (r *supplierRepo) ForceDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&model.Supplier{}, "id = ?", id).Error
}
