package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go-inventory-ledger/internal/lock"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultMaxAttempts = 3

// maxEntryValue is the largest amount a decimal(12,2) value column holds.
var maxEntryValue = decimal.RequireFromString("9999999999.99")

// Actor is the authenticated user a ledger entry is attributed to.
type Actor struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// Notifier receives committed ledger events. The websocket hub implements it.
type Notifier interface {
	Publish(event interface{})
}

type RecordTransactionRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"uuid_required"`
	Direction model.Direction `json:"type" validate:"required,oneof=in out"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	Reason    string          `json:"reason" validate:"required,max=255"`
	Notes     *string         `json:"notes"`
}

// LedgerResult is a committed entry together with the product's new on-hand quantity.
type LedgerResult struct {
	Transaction     *model.StockTransaction `json:"transaction"`
	ProductQuantity int                     `json:"product_quantity"`
}

type LedgerService interface {
	RecordTransaction(ctx context.Context, req RecordTransactionRequest, actor Actor) (*LedgerResult, error)
	ListTransactions(ctx context.Context, limit int) ([]model.StockTransaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*model.StockTransaction, error)
}

type LedgerOption func(*ledgerService)

// WithMaxAttempts bounds how often a commit is retried after a concurrent write.
func WithMaxAttempts(n int) LedgerOption {
	return func(s *ledgerService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithClock replaces the wall clock used to stamp entries.
func WithClock(now func() time.Time) LedgerOption {
	return func(s *ledgerService) {
		s.clock.now = now
	}
}

type ledgerService struct {
	db          *gorm.DB
	productRepo repository.ProductRepository
	txRepo      repository.TransactionRepository
	locker      lock.Locker
	notifier    Notifier
	log         *zap.Logger
	clock       *ledgerClock
	maxAttempts int
}

func NewLedgerService(
	db *gorm.DB,
	productRepo repository.ProductRepository,
	txRepo repository.TransactionRepository,
	locker lock.Locker,
	notifier Notifier,
	log *zap.Logger,
	opts ...LedgerOption,
) LedgerService {
	s := &ledgerService{
		db:          db,
		productRepo: productRepo,
		txRepo:      txRepo,
		locker:      locker,
		notifier:    notifier,
		log:         log.Named("ledger"),
		clock:       &ledgerClock{now: time.Now},
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordTransaction validates and commits one stock movement. The quantity
// change and the ledger row are written in a single DB transaction while the
// product's lock is held; on any error nothing is written.
func (s *ledgerService) RecordTransaction(ctx context.Context, req RecordTransactionRequest, actor Actor) (*LedgerResult, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if fields := validator.ValidateStruct(&req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	release, err := s.locker.Obtain(ctx, req.ProductID.String())
	if err != nil {
		if errors.Is(err, lock.ErrNotObtained) {
			s.log.Warn("product lock not obtained", zap.Stringer("product_id", req.ProductID))
			return nil, ErrLedgerBusy
		}
		return nil, fmt.Errorf("lock product %s: %w", req.ProductID, err)
	}
	defer release()

	var result *LedgerResult
	for attempt := 1; ; attempt++ {
		result, err = s.commit(ctx, req, actor)
		if !errors.Is(err, repository.ErrConcurrencyConflict) {
			break
		}
		if attempt >= s.maxAttempts {
			s.log.Warn("giving up after concurrent modifications",
				zap.Stringer("product_id", req.ProductID),
				zap.Int("attempts", attempt))
			return nil, ErrLedgerBusy
		}
		s.log.Debug("retrying after concurrent modification",
			zap.Stringer("product_id", req.ProductID),
			zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, err
	}

	entry := result.Transaction
	s.log.Info("stock transaction recorded",
		zap.Stringer("transaction_id", entry.ID),
		zap.Stringer("product_id", entry.ProductID),
		zap.String("type", string(entry.Type)),
		zap.Int("quantity", entry.Quantity),
		zap.String("value", entry.Value.StringFixed(2)),
		zap.Int("on_hand", result.ProductQuantity))

	s.notifier.Publish(transactionEvent(result, actor))
	return result, nil
}

func (s *ledgerService) commit(ctx context.Context, req RecordTransactionRequest, actor Actor) (*LedgerResult, error) {
	var result LedgerResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := s.productRepo.FindForUpdate(tx, req.ProductID)
		if err != nil {
			if repository.IsNotFound(err) {
				return &NotFoundError{Resource: "product", ID: req.ProductID}
			}
			return err
		}

		if req.Direction == model.DirectionOut && req.Quantity > product.Quantity {
			return &InsufficientStockError{
				ProductID: product.ID,
				Available: product.Quantity,
				Requested: req.Quantity,
			}
		}

		unitPrice := product.UnitPriceFor(req.Direction)
		value := unitPrice.Mul(decimal.NewFromInt(int64(req.Quantity))).Round(2)
		if value.GreaterThan(maxEntryValue) {
			return NewValidationError("quantity", "The quantity is too large for the product's unit value.")
		}

		// Instances behind the Redis lock have their own clocks; never stamp
		// an entry at or before the product's latest one.
		at := s.clock.Next()
		latest, err := s.txRepo.LatestAt(tx, product.ID)
		if err != nil {
			return err
		}
		if !at.After(latest) {
			at = latest.Add(time.Microsecond)
		}

		delta := req.Direction.Sign() * req.Quantity
		if err := s.productRepo.AdjustQuantity(tx, product.ID, product.Quantity, delta, actor.ID.String()); err != nil {
			return err
		}

		entry := &model.StockTransaction{
			ProductID: product.ID,
			UserID:    actor.ID,
			Type:      req.Direction,
			Quantity:  req.Quantity,
			Value:     value,
			UnitCost:  product.Cost,
			UnitPrice: product.Price,
			Reason:    req.Reason,
			Notes:     req.Notes,
			CreatedAt: at,
		}
		if err := s.txRepo.Append(tx, entry); err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}

		product.Quantity += delta
		entry.Product = product
		result = LedgerResult{Transaction: entry, ProductQuantity: product.Quantity}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *ledgerService) ListTransactions(ctx context.Context, limit int) ([]model.StockTransaction, error) {
	return s.txRepo.FindAll(ctx, limit)
}

func (s *ledgerService) GetTransaction(ctx context.Context, id uuid.UUID) (*model.StockTransaction, error) {
	entry, err := s.txRepo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &NotFoundError{Resource: "transaction", ID: id}
		}
		return nil, err
	}
	return entry, nil
}

func transactionEvent(result *LedgerResult, actor Actor) map[string]interface{} {
	entry := result.Transaction
	verb := "added"
	if entry.Type == model.DirectionOut {
		verb = "removed"
	}

	return map[string]interface{}{
		"type":   "stock_update",
		"action": "transaction_created",
		"transaction": map[string]interface{}{
			"id":         entry.ID,
			"type":       entry.Type,
			"quantity":   entry.Quantity,
			"value":      entry.Value,
			"product_id": entry.ProductID,
			"product": map[string]interface{}{
				"name": entry.Product.Name,
				"sku":  entry.Product.SKU,
			},
			"new_quantity": result.ProductQuantity,
		},
		"user": map[string]interface{}{
			"id":    actor.ID,
			"name":  actor.Name,
			"email": actor.Email,
		},
		"message": fmt.Sprintf("%s %s %d units of '%s'", actor.Name, verb, entry.Quantity, entry.Product.Name),
	}
}

// ledgerClock hands out strictly increasing UTC timestamps at microsecond
// resolution, the finest precision Postgres stores.
type ledgerClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func (c *ledgerClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}
