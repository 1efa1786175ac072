package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/cafepos/backend/internal/domain/catalog"
	"github.com/cafepos/backend/internal/domain/inventory"
	"github.com/cafepos/backend/internal/domain/shared"
	"github.com/cafepos/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchService handles batch store operations and the per-product stock
// projection
type BatchService struct {
	batchRepo     inventory.BatchRepository
	catalog       catalog.ProductCatalog
	txScope       TransactionScope
	locker        shared.ProductLocker
	clock         shared.Clock
	ledgerMetrics *telemetry.LedgerMetrics
}

// NewBatchService creates a new BatchService
func NewBatchService(
	batchRepo inventory.BatchRepository,
	productCatalog catalog.ProductCatalog,
	txScope TransactionScope,
	locker shared.ProductLocker,
	clock shared.Clock,
) *BatchService {
	return &BatchService{
		batchRepo: batchRepo,
		catalog:   productCatalog,
		txScope:   txScope,
		locker:    locker,
		clock:     clock,
	}
}

// SetLedgerMetrics sets the ledger metrics collector
func (s *BatchService) SetLedgerMetrics(lm *telemetry.LedgerMetrics) {
	s.ledgerMetrics = lm
}

// CreateBatch records a new stock lot. The date defaults to today; explicit
// dates let migrations and corrections backfill older stock.
func (s *BatchService) CreateBatch(ctx context.Context, req CreateBatchRequest) (*BatchResponse, error) {
	today := s.clock.Today()

	dateAdded := today
	if req.DateAdded != "" {
		parsed, err := time.Parse(DateLayout, req.DateAdded)
		if err != nil {
			return nil, shared.NewDomainError(shared.CodeValidation, "Date added must be formatted as YYYY-MM-DD")
		}
		dateAdded = parsed
	}

	product, err := s.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Product not found")
	}

	batch, err := inventory.NewBatch(req.ProductID, req.Quantity, dateAdded, today)
	if err != nil {
		return nil, err
	}

	if err := s.batchRepo.Create(ctx, batch); err != nil {
		return nil, asTransactionFailure(err)
	}

	if s.ledgerMetrics != nil {
		s.ledgerMetrics.RecordBatchCreated(ctx, batch.CategoryOn(today).String())
	}

	response := ToBatchResponse(batch, today)
	return &response, nil
}

// GetBatch retrieves one batch by ID
func (s *BatchService) GetBatch(ctx context.Context, batchID uuid.UUID) (*BatchResponse, error) {
	batch, err := s.batchRepo.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Batch not found")
	}
	response := ToBatchResponse(batch, s.clock.Today())
	return &response, nil
}

// ListBatchesForProduct lists a product's active batches oldest first
func (s *BatchService) ListBatchesForProduct(ctx context.Context, productID uuid.UUID) ([]BatchResponse, error) {
	batches, err := s.batchRepo.FindActiveByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return ToBatchResponses(batches, s.clock.Today()), nil
}

// ListAllActiveBatches lists every active batch joined with its product's
// pricing snapshot, optionally narrowed to one age category. Age is derived
// from today's date, so the category filter is applied here rather than in
// the store.
func (s *BatchService) ListAllActiveBatches(ctx context.Context, filter BatchListFilter) ([]ActiveBatchResponse, error) {
	batches, err := s.batchRepo.FindAllActive(ctx)
	if err != nil {
		return nil, err
	}

	today := s.clock.Today()
	if filter.AgeCategory != "" {
		category, err := inventory.ParseAgeCategory(filter.AgeCategory)
		if err != nil {
			return nil, err
		}
		matched := make([]*inventory.Batch, 0, len(batches))
		for _, batch := range batches {
			if batch.CategoryOn(today) == category {
				matched = append(matched, batch)
			}
		}
		batches = matched
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * filter.PageSize
		if start >= len(batches) {
			batches = nil
		} else {
			end := start + filter.PageSize
			if end > len(batches) {
				end = len(batches)
			}
			batches = batches[start:end]
		}
	}

	// The pricing join covers only the page being returned
	productIDs := make([]uuid.UUID, 0, len(batches))
	seen := make(map[uuid.UUID]bool, len(batches))
	for _, batch := range batches {
		if !seen[batch.ProductID] {
			seen[batch.ProductID] = true
			productIDs = append(productIDs, batch.ProductID)
		}
	}
	products, err := s.catalog.GetProducts(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	responses := make([]ActiveBatchResponse, len(batches))
	for i, batch := range batches {
		responses[i] = ToActiveBatchResponse(batch, products[batch.ProductID], today)
	}
	return responses, nil
}

// SetQuantity overwrites a batch quantity under the product lock, so manual
// corrections cannot interleave with a running deduction or return.
func (s *BatchService) SetQuantity(ctx context.Context, batchID uuid.UUID, req SetQuantityRequest) (*BatchResponse, error) {
	batch, err := s.batchRepo.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Batch not found")
	}

	lock, err := s.locker.Acquire(ctx, []uuid.UUID{batch.ProductID})
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release(ctx) }()

	var updated *inventory.Batch
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		current, err := repos.BatchRepo().FindByID(ctx, batchID)
		if err != nil {
			return err
		}
		if current == nil {
			return shared.NewDomainError(shared.CodeNotFound, "Batch not found")
		}
		if err := current.SetQuantity(req.Quantity); err != nil {
			return err
		}
		if err := repos.BatchRepo().Save(ctx, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, asTransactionFailure(err)
	}

	response := ToBatchResponse(updated, s.clock.Today())
	return &response, nil
}

// DeleteBatch removes a batch row entirely
func (s *BatchService) DeleteBatch(ctx context.Context, batchID uuid.UUID) error {
	batch, err := s.batchRepo.FindByID(ctx, batchID)
	if err != nil {
		return err
	}
	if batch == nil {
		return shared.NewDomainError(shared.CodeNotFound, "Batch not found")
	}

	lock, err := s.locker.Acquire(ctx, []uuid.UUID{batch.ProductID})
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release(ctx) }()

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		current, err := repos.BatchRepo().FindByID(ctx, batchID)
		if err != nil {
			return err
		}
		if current == nil {
			return shared.NewDomainError(shared.CodeNotFound, "Batch not found")
		}
		return repos.BatchRepo().Delete(ctx, batchID)
	})
	if err != nil {
		return asTransactionFailure(err)
	}
	return nil
}

// CleanupRetired sweeps batch rows already drained to zero. Retired rows
// are invisible to every active-batch query, so the sweep can run at any
// time without a lock.
func (s *BatchService) CleanupRetired(ctx context.Context) (*CleanupResponse, error) {
	removed, err := s.batchRepo.DeleteRetired(ctx)
	if err != nil {
		return nil, asTransactionFailure(err)
	}
	return &CleanupResponse{BatchesRemoved: removed}, nil
}

// GetProductStock derives the stock projection for one product from its
// active batches. An unknown or empty product reports zero stock.
func (s *BatchService) GetProductStock(ctx context.Context, productID uuid.UUID) (*StockSummaryResponse, error) {
	batches, err := s.batchRepo.FindActiveByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	today := s.clock.Today()
	summary := &StockSummaryResponse{
		ProductID:      productID,
		TotalStock:     decimal.Zero,
		FreshQuantity:  decimal.Zero,
		MediumQuantity: decimal.Zero,
		OldQuantity:    decimal.Zero,
	}

	for _, batch := range batches {
		if !batch.IsActive() {
			continue
		}
		summary.TotalStock = summary.TotalStock.Add(batch.Quantity)
		summary.ActiveBatches++

		switch batch.CategoryOn(today) {
		case inventory.AgeCategoryFresh:
			summary.FreshQuantity = summary.FreshQuantity.Add(batch.Quantity)
		case inventory.AgeCategoryMedium:
			summary.MediumQuantity = summary.MediumQuantity.Add(batch.Quantity)
		case inventory.AgeCategoryOld:
			summary.OldQuantity = summary.OldQuantity.Add(batch.Quantity)
		}
	}

	return summary, nil
}

// asTransactionFailure classifies store-level failures. Domain errors pass
// through untouched so a NOT_FOUND raised inside a transaction keeps its
// code; anything else becomes the one retry-eligible class.
func asTransactionFailure(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return shared.NewDomainError(shared.CodeTransactionFailure, "Transaction failed: "+err.Error())
}
