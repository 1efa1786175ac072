package inventory

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/cafepos/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchDeduction records how much a single batch contributes to a
// consumption plan
type BatchDeduction struct {
	BatchID          uuid.UUID       `json:"batch_id"`
	Deducted         decimal.Decimal `json:"deducted"`
	RemainingInBatch decimal.Decimal `json:"remaining_in_batch"`
	FullyConsumed    bool            `json:"fully_consumed"`
}

// ConsumptionPlan is the outcome of planning a deduction across the active
// batches of one product. The plan is a pure computation: nothing is mutated
// until ApplyConsumption runs, so an unfulfillable request leaves every
// batch untouched.
type ConsumptionPlan struct {
	Deductions       []BatchDeduction `json:"deductions"`
	TotalDeducted    decimal.Decimal  `json:"total_deducted"`
	Shortfall        decimal.Decimal  `json:"shortfall"`
	FullyFulfilled   bool             `json:"fully_fulfilled"`
	BatchesExhausted []uuid.UUID      `json:"batches_exhausted"`
	BatchesPartial   []uuid.UUID      `json:"batches_partial"`
}

// SortFIFO returns the batches ordered oldest first by date added, ties
// broken by batch ID ascending so concurrent planners always walk the same
// sequence. The input slice is not modified.
func SortFIFO(batches []*Batch) []*Batch {
	sorted := make([]*Batch, len(batches))
	copy(sorted, batches)

	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].DateAdded.Equal(sorted[j].DateAdded) {
			return sorted[i].DateAdded.Before(sorted[j].DateAdded)
		}
		return bytes.Compare(sorted[i].ID[:], sorted[j].ID[:]) < 0
	})

	return sorted
}

// TotalAvailable sums the quantity across active batches
func TotalAvailable(batches []*Batch) decimal.Decimal {
	total := decimal.Zero
	for _, batch := range batches {
		if batch.IsActive() {
			total = total.Add(batch.Quantity)
		}
	}
	return total
}

// PlanConsumption walks the active batches oldest first and plans deductions
// until the requested quantity is covered. A batch that cannot cover the
// remainder is split: its full quantity is planned and the walk continues.
// When stock runs out the plan reports the shortfall instead of failing, so
// the caller decides whether partial fulfillment is an error.
func PlanConsumption(requested decimal.Decimal, batches []*Batch) (*ConsumptionPlan, error) {
	if !requested.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Requested quantity must be positive, got %s", requested.String()))
	}

	plan := &ConsumptionPlan{
		Deductions:       make([]BatchDeduction, 0),
		TotalDeducted:    decimal.Zero,
		Shortfall:        decimal.Zero,
		BatchesExhausted: make([]uuid.UUID, 0),
		BatchesPartial:   make([]uuid.UUID, 0),
	}

	remaining := requested
	for _, batch := range SortFIFO(batches) {
		if remaining.IsZero() {
			break
		}
		if !batch.IsActive() {
			continue
		}

		deducted := decimal.Min(remaining, batch.Quantity)
		remainingInBatch := batch.Quantity.Sub(deducted)
		fullyConsumed := remainingInBatch.IsZero()

		plan.Deductions = append(plan.Deductions, BatchDeduction{
			BatchID:          batch.ID,
			Deducted:         deducted,
			RemainingInBatch: remainingInBatch,
			FullyConsumed:    fullyConsumed,
		})

		if fullyConsumed {
			plan.BatchesExhausted = append(plan.BatchesExhausted, batch.ID)
		} else {
			plan.BatchesPartial = append(plan.BatchesPartial, batch.ID)
		}

		plan.TotalDeducted = plan.TotalDeducted.Add(deducted)
		remaining = remaining.Sub(deducted)
	}

	plan.Shortfall = remaining
	plan.FullyFulfilled = remaining.IsZero()
	return plan, nil
}

// ApplyConsumption mutates the batches according to a fully fulfilled plan.
// Batches drained to zero stay in the slice as retired rows; whether they
// are kept or swept is the repository's concern.
func ApplyConsumption(batches []*Batch, plan *ConsumptionPlan) error {
	if plan == nil {
		return shared.NewDomainError(shared.CodeValidation, "Consumption plan is required")
	}
	if !plan.FullyFulfilled {
		return shared.NewDomainError(shared.CodeInsufficientStock,
			fmt.Sprintf("Cannot apply a plan short by %s", plan.Shortfall.String()))
	}

	byID := make(map[uuid.UUID]*Batch, len(batches))
	for _, batch := range batches {
		byID[batch.ID] = batch
	}

	for _, deduction := range plan.Deductions {
		batch, ok := byID[deduction.BatchID]
		if !ok {
			return shared.NewDomainError(shared.CodeNotFound,
				fmt.Sprintf("Batch %s from plan not found", deduction.BatchID))
		}
		actual := batch.Deduct(deduction.Deducted)
		if !actual.Equal(deduction.Deducted) {
			return shared.NewDomainError(shared.CodeInsufficientStock,
				fmt.Sprintf("Batch %s changed under the plan: wanted %s, took %s",
					deduction.BatchID, deduction.Deducted.String(), actual.String()))
		}
	}

	return nil
}
