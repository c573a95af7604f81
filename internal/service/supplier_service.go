package service

import (
	"context"
	"fmt"
	"strings"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SupplierRequest struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Email   *string `json:"email" validate:"omitempty,email,max=255"`
	Phone   *string `json:"phone" validate:"omitempty,max=20"`
	Address *string `json:"address" validate:"omitempty,max=255"`
}

type SupplierService interface {
	CreateSupplier(ctx context.Context, req SupplierRequest, actor Actor) (*model.Supplier, error)
	UpdateSupplier(ctx context.Context, id uuid.UUID, req SupplierRequest, actor Actor) (*model.Supplier, error)
	GetSupplier(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	ListSuppliers(ctx context.Context) ([]model.Supplier, error)
	ListTrashedSuppliers(ctx context.Context) ([]model.Supplier, error)
	DeleteSupplier(ctx context.Context, id uuid.UUID) error
	RestoreSupplier(ctx context.Context, id uuid.UUID) error
	ForceDeleteSupplier(ctx context.Context, id uuid.UUID) error
}

type supplierService struct {
	supplierRepo repository.SupplierRepository
	productRepo  repository.ProductRepository
	log          *zap.Logger
}

func NewSupplierService(supplierRepo repository.SupplierRepository, productRepo repository.ProductRepository, log *zap.Logger) SupplierService {
	return &supplierService{
		supplierRepo: supplierRepo,
		productRepo:  productRepo,
		log:          log.Named("suppliers"),
	}
}

func (r *SupplierRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	for _, p := range []**string{&r.Email, &r.Phone, &r.Address} {
		if *p == nil {
			continue
		}
		v := strings.TrimSpace(**p)
		if v == "" {
			*p = nil
		} else {
			*p = &v
		}
	}
}

func (s *supplierService) CreateSupplier(ctx context.Context, req SupplierRequest, actor Actor) (*model.Supplier, error) {
	req.normalize()
	if fields := validator.ValidateStruct(&req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	supplier := &model.Supplier{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}
	supplier.CreatedBy = actor.ID.String()
	supplier.UpdatedBy = actor.ID.String()

	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		return nil, err
	}
	s.log.Info("supplier created", zap.Stringer("supplier_id", supplier.ID))
	return supplier, nil
}

func (s *supplierService) UpdateSupplier(ctx context.Context, id uuid.UUID, req SupplierRequest, actor Actor) (*model.Supplier, error) {
	supplier, err := s.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}

	req.normalize()
	if fields := validator.ValidateStruct(&req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	supplier.Name = req.Name
	supplier.Email = req.Email
	supplier.Phone = req.Phone
	supplier.Address = req.Address
	supplier.UpdatedBy = actor.ID.String()

	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return nil, err
	}
	return s.supplierRepo.FindByID(ctx, id)
}

func (s *supplierService) GetSupplier(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &NotFoundError{Resource: "supplier", ID: id}
		}
		return nil, err
	}
	return supplier, nil
}

func (s *supplierService) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	return s.supplierRepo.FindAll(ctx)
}

func (s *supplierService) ListTrashedSuppliers(ctx context.Context) ([]model.Supplier, error) {
	return s.supplierRepo.FindTrashed(ctx)
}

// DeleteSupplier trashes a supplier that no live product points at.
func (s *supplierService) DeleteSupplier(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetSupplier(ctx, id); err != nil {
		return err
	}
	if err := s.ensureUnreferenced(ctx, id, false); err != nil {
		return err
	}
	if err := s.supplierRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.log.Info("supplier moved to trash", zap.Stringer("supplier_id", id))
	return nil
}

func (s *supplierService) RestoreSupplier(ctx context.Context, id uuid.UUID) error {
	supplier, err := s.findAny(ctx, id)
	if err != nil {
		return err
	}
	if !supplier.IsDeleted() {
		return &ConflictError{Message: "supplier is not in the trash"}
	}
	return s.supplierRepo.Restore(ctx, id)
}

// ForceDeleteSupplier needs the supplier trashed and unreferenced by any
// product, trashed ones included, so ledger joins keep resolving.
func (s *supplierService) ForceDeleteSupplier(ctx context.Context, id uuid.UUID) error {
	supplier, err := s.findAny(ctx, id)
	if err != nil {
		return err
	}
	if !supplier.IsDeleted() {
		return &ConflictError{Message: "only trashed suppliers can be permanently deleted"}
	}
	if err := s.ensureUnreferenced(ctx, id, true); err != nil {
		return err
	}
	if err := s.supplierRepo.ForceDelete(ctx, id); err != nil {
		return err
	}
	s.log.Info("supplier permanently deleted", zap.Stringer("supplier_id", id))
	return nil
}

func (s *supplierService) ensureUnreferenced(ctx context.Context, id uuid.UUID, includeTrashed bool) error {
	n, err := s.productRepo.CountBySupplier(ctx, id, includeTrashed)
	if err != nil {
		return err
	}
	if n > 0 {
		return &ConflictError{Message: fmt.Sprintf("supplier is referenced by %d products", n)}
	}
	return nil
}

func (s *supplierService) findAny(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	supplier, err := s.supplierRepo.FindByIDUnscoped(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &NotFoundError{Resource: "supplier", ID: id}
		}
		return nil, err
	}
	return supplier, nil
}
