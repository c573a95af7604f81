package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const openingStockReason = "Opening stock"

type CreateProductRequest struct {
	Name            string          `json:"name" validate:"required,min=2,max=100"`
	SKU             string          `json:"sku" validate:"required,max=50"`
	Cost            decimal.Decimal `json:"cost"`
	Price           decimal.Decimal `json:"price"`
	Threshold       int             `json:"threshold" validate:"gte=0"`
	SupplierID      uuid.UUID       `json:"supplier_id" validate:"uuid_required"`
	OpeningQuantity int             `json:"opening_quantity" validate:"gte=0"`
}

// UpdateProductRequest edits master data. Quantity is accepted only so that
// a request carrying it can be rejected explicitly.
type UpdateProductRequest struct {
	Name       string          `json:"name" validate:"required,min=2,max=100"`
	SKU        string          `json:"sku" validate:"required,max=50"`
	Cost       decimal.Decimal `json:"cost"`
	Price      decimal.Decimal `json:"price"`
	Threshold  int             `json:"threshold" validate:"gte=0"`
	SupplierID uuid.UUID       `json:"supplier_id" validate:"uuid_required"`
	Quantity   *int            `json:"quantity,omitempty"`
}

type CatalogService interface {
	CreateProduct(ctx context.Context, req CreateProductRequest, actor Actor) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest, actor Actor) (*model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	ListTrashedProducts(ctx context.Context) ([]model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID, actor Actor) error
	RestoreProduct(ctx context.Context, id uuid.UUID) error
	ForceDeleteProduct(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	productRepo  repository.ProductRepository
	supplierRepo repository.SupplierRepository
	txRepo       repository.TransactionRepository
	ledger       LedgerService
	log          *zap.Logger
}

func NewCatalogService(
	productRepo repository.ProductRepository,
	supplierRepo repository.SupplierRepository,
	txRepo repository.TransactionRepository,
	ledger LedgerService,
	log *zap.Logger,
) CatalogService {
	return &catalogService{
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
		txRepo:       txRepo,
		ledger:       ledger,
		log:          log.Named("catalog"),
	}
}

// CreateProduct stores a product with zero stock. A positive opening quantity
// is then posted through the ledger so on-hand stock always equals the sum
// of ledger movements.
func (s *catalogService) CreateProduct(ctx context.Context, req CreateProductRequest, actor Actor) (*model.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.SKU = strings.TrimSpace(req.SKU)

	fields := validator.ValidateStruct(&req)
	fields = checkMoney(fields, req.Cost, req.Price)
	if err := s.checkMasterData(ctx, fields, uuid.Nil, req.SKU, req.SupplierID); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:       req.Name,
		SKU:        req.SKU,
		Cost:       req.Cost,
		Price:      req.Price,
		Threshold:  req.Threshold,
		SupplierID: req.SupplierID,
	}
	product.CreatedBy = actor.ID.String()
	product.UpdatedBy = actor.ID.String()

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewValidationError("sku", "The sku has already been taken.")
		}
		return nil, err
	}
	s.log.Info("product created", zap.Stringer("product_id", product.ID), zap.String("sku", product.SKU))

	if req.OpeningQuantity > 0 {
		res, err := s.ledger.RecordTransaction(ctx, RecordTransactionRequest{
			ProductID: product.ID,
			Direction: model.DirectionIn,
			Quantity:  req.OpeningQuantity,
			Reason:    openingStockReason,
		}, actor)
		if err != nil {
			return product, fmt.Errorf("product created but opening stock not recorded: %w", err)
		}
		product.Quantity = res.ProductQuantity
	}

	return s.productRepo.FindByID(ctx, product.ID)
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest, actor Actor) (*model.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.SKU = strings.TrimSpace(req.SKU)

	existing, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &NotFoundError{Resource: "product", ID: id}
		}
		return nil, err
	}

	fields := validator.ValidateStruct(&req)
	fields = checkMoney(fields, req.Cost, req.Price)
	if req.Quantity != nil {
		fields = addField(fields, "quantity", "The quantity field is derived from stock transactions and cannot be edited.")
	}
	if err := s.checkMasterData(ctx, fields, id, req.SKU, req.SupplierID); err != nil {
		return nil, err
	}

	existing.Name = req.Name
	existing.SKU = req.SKU
	existing.Cost = req.Cost
	existing.Price = req.Price
	existing.Threshold = req.Threshold
	existing.SupplierID = req.SupplierID
	existing.Supplier = nil
	existing.UpdatedBy = actor.ID.String()

	if err := s.productRepo.Update(ctx, existing); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewValidationError("sku", "The sku has already been taken.")
		}
		return nil, err
	}
	s.log.Info("product updated", zap.Stringer("product_id", id))

	return s.productRepo.FindByID(ctx, id)
}

// checkMasterData finishes validation with the checks that need the
// database: SKU uniqueness (ignoring the product itself) and the supplier.
func (s *catalogService) checkMasterData(ctx context.Context, fields map[string]string, self uuid.UUID, sku string, supplierID uuid.UUID) error {
	if _, bad := fields["sku"]; !bad && sku != "" {
		other, err := s.productRepo.FindBySKU(ctx, sku)
		switch {
		case err == nil && other.ID != self:
			fields = addField(fields, "sku", "The sku has already been taken.")
		case err != nil && !repository.IsNotFound(err):
			return err
		}
	}
	if _, bad := fields["supplier_id"]; !bad {
		if _, err := s.supplierRepo.FindByID(ctx, supplierID); err != nil {
			if !repository.IsNotFound(err) {
				return err
			}
			fields = addField(fields, "supplier_id", "The selected supplier_id is invalid.")
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &NotFoundError{Resource: "product", ID: id}
		}
		return nil, err
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.FindAll(ctx)
}

func (s *catalogService) ListTrashedProducts(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.FindTrashed(ctx)
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID, actor Actor) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	if err := s.productRepo.SoftDelete(ctx, id, actor.ID.String()); err != nil {
		return err
	}
	s.log.Info("product moved to trash", zap.Stringer("product_id", id))
	return nil
}

func (s *catalogService) RestoreProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.findAny(ctx, id)
	if err != nil {
		return err
	}
	if !product.IsDeleted() {
		return &ConflictError{Message: "product is not in the trash"}
	}
	if err := s.productRepo.Restore(ctx, id); err != nil {
		return err
	}
	s.log.Info("product restored", zap.Stringer("product_id", id))
	return nil
}

// ForceDeleteProduct removes a trashed product for good. Products with ledger
// history are kept, since ledger entries are never removed.
func (s *catalogService) ForceDeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.findAny(ctx, id)
	if err != nil {
		return err
	}
	if !product.IsDeleted() {
		return &ConflictError{Message: "only trashed products can be permanently deleted"}
	}

	entries, err := s.txRepo.CountByProduct(ctx, id)
	if err != nil {
		return err
	}
	if entries > 0 {
		return &ConflictError{Message: fmt.Sprintf("product has %d stock transactions and cannot be permanently deleted", entries)}
	}

	if err := s.productRepo.ForceDelete(ctx, id); err != nil {
		return err
	}
	s.log.Info("product permanently deleted", zap.Stringer("product_id", id))
	return nil
}

func (s *catalogService) findAny(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByIDUnscoped(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &NotFoundError{Resource: "product", ID: id}
		}
		return nil, err
	}
	return product, nil
}

func checkMoney(fields map[string]string, cost, price decimal.Decimal) map[string]string {
	for name, v := range map[string]decimal.Decimal{"cost": cost, "price": price} {
		switch {
		case v.IsNegative():
			fields = addField(fields, name, fmt.Sprintf("The %s field must be at least 0.", name))
		case !v.Equal(v.Round(2)):
			fields = addField(fields, name, fmt.Sprintf("The %s field must have at most 2 decimal places.", name))
		}
	}
	return fields
}

func addField(fields map[string]string, field, message string) map[string]string {
	if fields == nil {
		fields = make(map[string]string)
	}
	if _, ok := fields[field]; !ok {
		fields[field] = message
	}
	return fields
}
