package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/cafepos/backend/internal/domain/inventory"
	"github.com/cafepos/backend/internal/domain/shared"
	"github.com/cafepos/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConsumptionService executes FIFO stock deductions for sales
type ConsumptionService struct {
	batchRepo     inventory.BatchRepository
	txScope       TransactionScope
	locker        shared.ProductLocker
	ledgerMetrics *telemetry.LedgerMetrics
}

// NewConsumptionService creates a new ConsumptionService
func NewConsumptionService(
	batchRepo inventory.BatchRepository,
	txScope TransactionScope,
	locker shared.ProductLocker,
) *ConsumptionService {
	return &ConsumptionService{
		batchRepo: batchRepo,
		txScope:   txScope,
		locker:    locker,
	}
}

// SetLedgerMetrics sets the ledger metrics collector
func (s *ConsumptionService) SetLedgerMetrics(lm *telemetry.LedgerMetrics) {
	s.ledgerMetrics = lm
}

// DeductStock removes the requested quantity from a product's batches,
// oldest first. The whole deduction commits as one transaction under the
// product lock: either every batch update lands or none do.
func (s *ConsumptionService) DeductStock(ctx context.Context, req DeductStockRequest) (*DeductStockResponse, error) {
	if !req.Quantity.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Deduction quantity must be positive, got %s", req.Quantity.String()))
	}

	// Cheap rejection before taking the product lock. The authoritative
	// check runs again inside the transaction.
	available, err := s.batchRepo.SumActiveQuantity(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if available.LessThan(req.Quantity) {
		s.recordDeduction(ctx, telemetry.DeductionOutcomeInsufficient, req.Quantity)
		return nil, insufficientStock(req.ProductID, req.Quantity, available)
	}

	var response *DeductStockResponse
	var operationErr error
	telemetry.WithProfilingLabels(ctx, telemetry.LedgerOperationLabels(telemetry.OperationDeduct), func(c context.Context) {
		response, operationErr = s.deduct(c, req)
	})
	if operationErr != nil {
		if errors.Is(operationErr, shared.ErrInsufficientStock) {
			s.recordDeduction(ctx, telemetry.DeductionOutcomeInsufficient, req.Quantity)
		}
		return nil, operationErr
	}

	s.recordDeduction(ctx, telemetry.DeductionOutcomeApplied, response.TotalDeducted)
	return response, nil
}

func (s *ConsumptionService) deduct(ctx context.Context, req DeductStockRequest) (*DeductStockResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "consumption", "deduct_stock")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrProductID, req.ProductID,
		telemetry.SpanAttrQuantity, req.Quantity.InexactFloat64(),
	)

	lock, err := s.locker.Acquire(ctx, []uuid.UUID{req.ProductID})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer func() { _ = lock.Release(ctx) }()

	var response *DeductStockResponse
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		batches, err := repos.BatchRepo().FindActiveByProduct(ctx, req.ProductID)
		if err != nil {
			return err
		}

		plan, err := inventory.PlanConsumption(req.Quantity, batches)
		if err != nil {
			return err
		}
		if !plan.FullyFulfilled {
			return insufficientStock(req.ProductID, req.Quantity, inventory.TotalAvailable(batches))
		}
		telemetry.AddEvent(span, "consumption_planned",
			"batches", len(plan.Deductions),
			"exhausted", plan.BatchesExhausted,
		)

		if err := inventory.ApplyConsumption(batches, plan); err != nil {
			return err
		}

		byID := make(map[uuid.UUID]*inventory.Batch, len(batches))
		for _, batch := range batches {
			byID[batch.ID] = batch
		}
		touched := make([]*inventory.Batch, 0, len(plan.Deductions))
		for _, deduction := range plan.Deductions {
			touched = append(touched, byID[deduction.BatchID])
		}
		if err := repos.BatchRepo().SaveAll(ctx, touched); err != nil {
			return err
		}

		response = buildDeductResponse(req, plan, batches)
		return nil
	})
	if err != nil {
		err = asTransactionFailure(err)
		telemetry.RecordError(span, err)
		return nil, err
	}
	return response, nil
}

func (s *ConsumptionService) recordDeduction(ctx context.Context, outcome telemetry.DeductionOutcome, quantity decimal.Decimal) {
	if s.ledgerMetrics == nil {
		return
	}
	s.ledgerMetrics.RecordDeduction(ctx, outcome, quantity)
}

func buildDeductResponse(req DeductStockRequest, plan *inventory.ConsumptionPlan, batches []*inventory.Batch) *DeductStockResponse {
	deductions := make([]BatchDeductionResponse, len(plan.Deductions))
	for i, deduction := range plan.Deductions {
		deductions[i] = BatchDeductionResponse{
			BatchID:          deduction.BatchID,
			Deducted:         deduction.Deducted,
			RemainingInBatch: deduction.RemainingInBatch,
			FullyConsumed:    deduction.FullyConsumed,
		}
	}
	return &DeductStockResponse{
		ProductID:      req.ProductID,
		Requested:      req.Quantity,
		TotalDeducted:  plan.TotalDeducted,
		RemainingStock: inventory.TotalAvailable(batches),
		Deductions:     deductions,
	}
}

func insufficientStock(productID uuid.UUID, requested, available decimal.Decimal) error {
	return shared.NewDomainError(shared.CodeInsufficientStock,
		fmt.Sprintf("Insufficient stock for product %s: requested %s, available %s",
			productID, requested.String(), available.String()))
}
