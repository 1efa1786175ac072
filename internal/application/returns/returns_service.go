package returns

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/cafepos/backend/internal/domain/catalog"
	"github.com/cafepos/backend/internal/domain/inventory"
	"github.com/cafepos/backend/internal/domain/returns"
	"github.com/cafepos/backend/internal/domain/shared"
	"github.com/cafepos/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReturnsService commits return transactions, undoes them, and serves
// return queries
type ReturnsService struct {
	batchRepo      inventory.BatchRepository
	returnRepo     returns.ReturnRepository
	catalog        catalog.ProductCatalog
	txScope        TransactionScope
	locker         shared.ProductLocker
	clock          shared.Clock
	eventPublisher shared.EventPublisher
	notifier       Notifier
	ledgerMetrics  *telemetry.LedgerMetrics
}

// NewReturnsService creates a new ReturnsService
func NewReturnsService(
	batchRepo inventory.BatchRepository,
	returnRepo returns.ReturnRepository,
	productCatalog catalog.ProductCatalog,
	txScope TransactionScope,
	locker shared.ProductLocker,
	clock shared.Clock,
) *ReturnsService {
	return &ReturnsService{
		batchRepo:  batchRepo,
		returnRepo: returnRepo,
		catalog:    productCatalog,
		txScope:    txScope,
		locker:     locker,
		clock:      clock,
	}
}

// SetEventPublisher sets the event publisher for audit events
func (s *ReturnsService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetNotifier sets the best-effort notification sink
func (s *ReturnsService) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

// SetLedgerMetrics sets the ledger metrics recorder
func (s *ReturnsService) SetLedgerMetrics(lm *telemetry.LedgerMetrics) {
	s.ledgerMetrics = lm
}

// ProcessReturn partitions the caller's candidate batches into keep and
// return, values the returned ones, and commits the return record, its line
// items and the batch deletions as one transaction. Everything after the
// commit (audit events, notification) is best effort.
func (s *ReturnsService) ProcessReturn(ctx context.Context, req ProcessReturnRequest) (*ProcessReturnResponse, error) {
	toReturnIDs, err := partitionCandidates(req)
	if err != nil {
		return nil, err
	}

	// Resolve products up front from the caller's view of the batches.
	// Quantities are re-read inside the transaction; the reference data
	// does not need that protection.
	candidates, err := s.batchRepo.FindByIDs(ctx, toReturnIDs)
	if err != nil {
		return nil, err
	}
	if err := verifyReturnable(toReturnIDs, candidates); err != nil {
		return nil, err
	}

	productIDs := collectProductIDs(candidates)
	products, err := s.catalog.GetProducts(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range productIDs {
		if products[id] == nil {
			return nil, shared.NewDomainError(shared.CodeNotFound,
				fmt.Sprintf("Product %s not found", id))
		}
	}

	var response *ProcessReturnResponse
	var operationErr error
	telemetry.WithProfilingLabels(ctx, telemetry.LedgerOperationLabels(telemetry.OperationProcessReturn), func(c context.Context) {
		response, operationErr = s.processReturn(c, req, toReturnIDs, productIDs, products)
	})
	return response, operationErr
}

func (s *ReturnsService) processReturn(
	ctx context.Context,
	req ProcessReturnRequest,
	toReturnIDs []uuid.UUID,
	productIDs []uuid.UUID,
	products map[uuid.UUID]*catalog.Product,
) (*ProcessReturnResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "returns", "process_return")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrLineItems, len(toReturnIDs))

	lock, err := s.locker.Acquire(ctx, productIDs)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer func() { _ = lock.Release(ctx) }()

	today := s.clock.Today()
	var committed *returns.Return

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		batches, err := repos.BatchRepo().FindByIDs(ctx, toReturnIDs)
		if err != nil {
			return err
		}
		if err := verifyReturnable(toReturnIDs, batches); err != nil {
			return err
		}

		lineItems := make([]returns.ReturnLineItem, 0, len(batches))
		for _, batch := range batches {
			item, err := returns.BuildLineItem(batch, products[batch.ProductID], overrideFor(req, batch.ID), today)
			if err != nil {
				return err
			}
			lineItems = append(lineItems, item)
		}

		ret, err := returns.NewReturn(actorName(ctx), lineItems, s.clock.Now())
		if err != nil {
			return err
		}

		if err := repos.ReturnRepo().Create(ctx, ret); err != nil {
			return err
		}
		if err := repos.BatchRepo().DeleteByIDs(ctx, toReturnIDs); err != nil {
			return err
		}

		committed = ret
		return nil
	})
	if err != nil {
		err = asTransactionFailure(err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrReturnID, committed.ID,
		telemetry.SpanAttrReturnValue, committed.TotalValue.InexactFloat64(),
	)
	if s.ledgerMetrics != nil {
		s.ledgerMetrics.RecordReturnProcessed(ctx, committed.TotalBatches, committed.TotalValue)
	}

	s.publishEvents(ctx, committed)
	warning := s.notifyProcessed(ctx, committed, products)

	return &ProcessReturnResponse{
		Return:  ToReturnResponse(committed),
		Warning: warning,
	}, nil
}

// UndoReturn reverses a committed return: the record and its line items are
// removed and a fresh batch is recreated per line item, dated so its age
// category survives the round trip. Undoing the same return twice fails
// with NOT_FOUND because the first undo removed the record.
func (s *ReturnsService) UndoReturn(ctx context.Context, returnID uuid.UUID) (*UndoReturnResponse, error) {
	existing, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Return not found")
	}

	var response *UndoReturnResponse
	var operationErr error
	telemetry.WithProfilingLabels(ctx, telemetry.LedgerOperationLabels(telemetry.OperationUndoReturn), func(c context.Context) {
		response, operationErr = s.undoReturn(c, returnID, existing)
	})
	return response, operationErr
}

func (s *ReturnsService) undoReturn(ctx context.Context, returnID uuid.UUID, existing *returns.Return) (*UndoReturnResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "returns", "undo_return")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrReturnID, returnID)

	productIDs := collectLineProductIDs(existing.LineItems)

	lock, err := s.locker.Acquire(ctx, productIDs)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer func() { _ = lock.Release(ctx) }()

	today := s.clock.Today()
	var undone *returns.Return
	var recreated []*inventory.Batch

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		current, err := repos.ReturnRepo().FindByID(ctx, returnID)
		if err != nil {
			return err
		}
		if current == nil {
			return shared.NewDomainError(shared.CodeNotFound, "Return not found")
		}
		if err := current.Validate(); err != nil {
			return err
		}

		batches := make([]*inventory.Batch, 0, len(current.LineItems))
		for _, item := range current.LineItems {
			batch, err := item.RebuildBatch(today)
			if err != nil {
				return err
			}
			batches = append(batches, batch)
		}

		if err := repos.BatchRepo().CreateAll(ctx, batches); err != nil {
			return err
		}
		if err := repos.ReturnRepo().Delete(ctx, returnID); err != nil {
			return err
		}

		undone = current
		recreated = batches
		return nil
	})
	if err != nil {
		err = asTransactionFailure(err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.ledgerMetrics != nil {
		s.ledgerMetrics.RecordReturnUndone(ctx, len(recreated))
	}

	undoneBy := actorName(ctx)
	undone.MarkUndone(undoneBy)
	s.publishEvents(ctx, undone)
	warning := s.notifyUndone(ctx, undone, undoneBy)

	batchIDs := make([]uuid.UUID, len(recreated))
	for i, batch := range recreated {
		batchIDs[i] = batch.ID
	}

	return &UndoReturnResponse{
		ReturnID:          returnID,
		UndoneBy:          undoneBy,
		BatchesRecreated:  len(recreated),
		RecreatedBatchIDs: batchIDs,
		TotalQuantity:     undone.TotalQuantity,
		Warning:           warning,
	}, nil
}

// GetReturn retrieves one return with its line items
func (s *ReturnsService) GetReturn(ctx context.Context, returnID uuid.UUID) (*ReturnResponse, error) {
	ret, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Return not found")
	}
	response := ToReturnResponse(ret)
	return &response, nil
}

// ListReturns lists returns newest first
func (s *ReturnsService) ListReturns(ctx context.Context, filter ReturnListFilter) (*ReturnListResponse, error) {
	pageFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		pageFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		pageFilter.PageSize = filter.PageSize
	}

	rets, err := s.returnRepo.FindAll(ctx, pageFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.returnRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]ReturnResponse, len(rets))
	for i := range rets {
		responses[i] = ToReturnResponse(&rets[i])
	}

	return &ReturnListResponse{
		Returns:  responses,
		Total:    total,
		Page:     pageFilter.Page,
		PageSize: pageFilter.PageSize,
	}, nil
}

// partitionCandidates derives the set of batches actually coming back:
// candidates minus the ones marked keep. Override keys must reference
// candidate batches; an override for a kept batch is simply ignored.
func partitionCandidates(req ProcessReturnRequest) ([]uuid.UUID, error) {
	if len(req.CandidateBatchIDs) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Candidate batch list is empty")
	}

	candidates := make(map[uuid.UUID]bool, len(req.CandidateBatchIDs))
	for _, id := range req.CandidateBatchIDs {
		candidates[id] = true
	}

	for id := range req.PercentageOverrides {
		if !candidates[id] {
			return nil, shared.NewDomainError(shared.CodeValidation,
				fmt.Sprintf("Percentage override references unknown batch %s", id))
		}
	}

	keep := make(map[uuid.UUID]bool, len(req.KeepBatchIDs))
	for _, id := range req.KeepBatchIDs {
		keep[id] = true
	}

	toReturn := make([]uuid.UUID, 0, len(req.CandidateBatchIDs))
	seen := make(map[uuid.UUID]bool, len(req.CandidateBatchIDs))
	for _, id := range req.CandidateBatchIDs {
		if keep[id] || seen[id] {
			continue
		}
		seen[id] = true
		toReturn = append(toReturn, id)
	}

	if len(toReturn) == 0 {
		return nil, shared.NewDomainError(shared.CodeNothingToReturn,
			"All candidate batches are marked keep; nothing to return")
	}
	return toReturn, nil
}

// verifyReturnable checks that every requested batch still exists and still
// holds stock. A batch consumed or deleted since the caller's read fails
// the whole return.
func verifyReturnable(requested []uuid.UUID, found []*inventory.Batch) error {
	byID := make(map[uuid.UUID]*inventory.Batch, len(found))
	for _, batch := range found {
		byID[batch.ID] = batch
	}
	for _, id := range requested {
		batch, ok := byID[id]
		if !ok || !batch.IsActive() {
			return shared.NewDomainError(shared.CodeNotFound,
				fmt.Sprintf("Batch %s is no longer available for return", id))
		}
	}
	return nil
}

func overrideFor(req ProcessReturnRequest, batchID uuid.UUID) *decimal.Decimal {
	if value, ok := req.PercentageOverrides[batchID]; ok {
		return &value
	}
	return nil
}

// asTransactionFailure classifies store-level failures. Domain errors pass
// through so a NOT_FOUND raised inside the transaction keeps its code;
// anything else becomes the one retry-eligible class.
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

func collectProductIDs(batches []*inventory.Batch) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(batches))
	ids := make([]uuid.UUID, 0, len(batches))
	for _, batch := range batches {
		if !seen[batch.ProductID] {
			seen[batch.ProductID] = true
			ids = append(ids, batch.ProductID)
		}
	}
	sortUUIDs(ids)
	return ids
}

func collectLineProductIDs(items []returns.ReturnLineItem) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}
	sortUUIDs(ids)
	return ids
}

// sortUUIDs orders product ids so concurrent operations lock them in the
// same sequence
func sortUUIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
}

func actorName(ctx context.Context) string {
	actor := shared.ActorFromContext(ctx)
	if actor.Name != "" {
		return actor.Name
	}
	if actor.ID != "" {
		return actor.ID
	}
	return "system"
}

func (s *ReturnsService) publishEvents(ctx context.Context, ret *returns.Return) {
	if s.eventPublisher == nil {
		return
	}
	events := ret.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	ret.ClearDomainEvents()
}

func (s *ReturnsService) notifyProcessed(ctx context.Context, ret *returns.Return, products map[uuid.UUID]*catalog.Product) string {
	if s.notifier == nil {
		return ""
	}
	if err := s.notifier.NotifyReturnProcessed(ctx, buildNotification(ret, ret.ProcessedBy, products)); err != nil {
		return fmt.Sprintf("Return committed but notification delivery failed: %v", err)
	}
	return ""
}

func (s *ReturnsService) notifyUndone(ctx context.Context, ret *returns.Return, undoneBy string) string {
	if s.notifier == nil {
		return ""
	}
	// Product flags are cosmetic here; a catalog hiccup must not fail the
	// undo after it committed.
	products, err := s.catalog.GetProducts(ctx, collectLineProductIDs(ret.LineItems))
	if err != nil {
		products = nil
	}
	if err := s.notifier.NotifyReturnUndone(ctx, buildNotification(ret, undoneBy, products)); err != nil {
		return fmt.Sprintf("Undo committed but notification delivery failed: %v", err)
	}
	return ""
}

func buildNotification(ret *returns.Return, actor string, products map[uuid.UUID]*catalog.Product) ReturnNotification {
	lines := make([]ReturnNotificationLine, len(ret.LineItems))
	for i, item := range ret.LineItems {
		weightBased := false
		if product := products[item.ProductID]; product != nil {
			weightBased = product.IsWeightBased
		}
		lines[i] = ReturnNotificationLine{
			ProductName:   item.ProductName,
			Quantity:      item.Quantity,
			IsWeightBased: weightBased,
			Value:         item.TotalReturnValue,
		}
	}
	return ReturnNotification{
		ReturnID:      ret.ID,
		Actor:         actor,
		TotalBatches:  ret.TotalBatches,
		TotalQuantity: ret.TotalQuantity,
		TotalValue:    ret.TotalValue,
		Lines:         lines,
	}
}
