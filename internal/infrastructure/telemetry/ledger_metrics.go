// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// LedgerMetrics provides business metrics for the batch inventory ledger.
// It tracks batch intake, FIFO deductions, and returns activity, and keeps
// point-in-time gauges of how old the stock on hand is.
type LedgerMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	batchCreatedTotal    *Counter
	deductionTotal       *Counter
	deductionQuantity    *Counter
	returnProcessedTotal *Counter
	returnBatchesTotal   *Counter
	returnValueTotal     *Counter
	returnUndoneTotal    *Counter
	batchRecreatedTotal  *Counter

	// Gauge metrics (point-in-time values)
	stockQuantity *FloatGauge
	activeBatches *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	stockProvider StockMetricsProvider
}

// StockMetricsProvider provides aggregated stock data for periodic metrics
// collection. The interface lets the telemetry layer query batch state
// without depending on the inventory domain directly.
type StockMetricsProvider interface {
	// GetStockAgeProfile returns active batch counts and quantities per age
	// category. Implementations must return a row for every category, zero
	// filled when no batches fall in it.
	GetStockAgeProfile(ctx context.Context) ([]AgeBandStats, error)
}

// AgeBandStats is one row of the stock age profile.
type AgeBandStats struct {
	Category string
	Batches  int64
	Quantity decimal.Decimal
}

// LedgerMetricsConfig holds configuration for ledger metrics.
type LedgerMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	StockProvider   StockMetricsProvider
}

// NewLedgerMetrics creates a new LedgerMetrics instance.
func NewLedgerMetrics(cfg LedgerMetricsConfig) (*LedgerMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	lm := &LedgerMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		stockProvider: cfg.StockProvider,
	}

	var err error

	lm.batchCreatedTotal, err = NewCounter(
		cfg.Meter,
		"cafepos_batch_created_total",
		"Total number of stock batches registered",
		"{batches}",
	)
	if err != nil {
		return nil, err
	}

	lm.deductionTotal, err = NewCounter(
		cfg.Meter,
		"cafepos_deduction_total",
		"Total number of FIFO stock deduction attempts",
		"{deductions}",
	)
	if err != nil {
		return nil, err
	}

	lm.deductionQuantity, err = NewCounter(
		cfg.Meter,
		"cafepos_deduction_quantity_total",
		"Total quantity deducted, in thousandths of a unit",
		"{milliunits}",
	)
	if err != nil {
		return nil, err
	}

	lm.returnProcessedTotal, err = NewCounter(
		cfg.Meter,
		"cafepos_return_processed_total",
		"Total number of supplier returns processed",
		"{returns}",
	)
	if err != nil {
		return nil, err
	}

	lm.returnBatchesTotal, err = NewCounter(
		cfg.Meter,
		"cafepos_return_batches_total",
		"Total number of batches sent back in processed returns",
		"{batches}",
	)
	if err != nil {
		return nil, err
	}

	lm.returnValueTotal, err = NewCounter(
		cfg.Meter,
		"cafepos_return_value_total",
		"Total refund value of processed returns, in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	lm.returnUndoneTotal, err = NewCounter(
		cfg.Meter,
		"cafepos_return_undone_total",
		"Total number of returns reversed",
		"{returns}",
	)
	if err != nil {
		return nil, err
	}

	lm.batchRecreatedTotal, err = NewCounter(
		cfg.Meter,
		"cafepos_batch_recreated_total",
		"Total number of batches recreated by return reversals",
		"{batches}",
	)
	if err != nil {
		return nil, err
	}

	lm.stockQuantity, err = NewFloatGauge(
		cfg.Meter,
		"cafepos_stock_quantity",
		"Current active stock quantity by age category",
		"{units}",
	)
	if err != nil {
		return nil, err
	}

	lm.activeBatches, err = NewGauge(
		cfg.Meter,
		"cafepos_active_batches",
		"Current number of active batches by age category",
		"{batches}",
	)
	if err != nil {
		return nil, err
	}

	return lm, nil
}

// =============================================================================
// Batch Metrics
// =============================================================================

// RecordBatchCreated records a batch registration.
// ageCategory is the category the batch falls in on its creation day, which
// is only ever not fresh for backdated deliveries.
func (lm *LedgerMetrics) RecordBatchCreated(ctx context.Context, ageCategory string) {
	lm.batchCreatedTotal.Inc(ctx,
		AttrAgeCategory.String(ageCategory),
	)
}

// =============================================================================
// Deduction Metrics
// =============================================================================

// DeductionOutcome represents the result of a deduction attempt for metrics labeling.
type DeductionOutcome string

const (
	DeductionOutcomeApplied      DeductionOutcome = "applied"
	DeductionOutcomeInsufficient DeductionOutcome = "insufficient_stock"
)

// RecordDeduction records a FIFO deduction attempt.
// Quantity is only added for applied deductions, converted to thousandths of
// a unit so fractional weights survive the integer counter.
func (lm *LedgerMetrics) RecordDeduction(ctx context.Context, outcome DeductionOutcome, quantity decimal.Decimal) {
	lm.deductionTotal.Inc(ctx,
		AttrOutcome.String(string(outcome)),
	)

	if outcome != DeductionOutcomeApplied {
		return
	}

	milliunits := quantity.Mul(decimal.NewFromInt(1000)).IntPart()
	lm.deductionQuantity.Add(ctx, milliunits,
		AttrOutcome.String(string(outcome)),
	)
}

// =============================================================================
// Returns Metrics
// =============================================================================

// RecordReturnProcessed records a processed return with its refund value.
// Value should be the total refund amount; it is stored in cents.
func (lm *LedgerMetrics) RecordReturnProcessed(ctx context.Context, batches int, value decimal.Decimal) {
	lm.returnProcessedTotal.Inc(ctx)
	lm.returnBatchesTotal.Add(ctx, int64(batches))

	valueCents := value.Mul(decimal.NewFromInt(100)).IntPart()
	lm.returnValueTotal.Add(ctx, valueCents)
}

// RecordReturnUndone records a reversed return and the batches it restored.
func (lm *LedgerMetrics) RecordReturnUndone(ctx context.Context, batchesRecreated int) {
	lm.returnUndoneTotal.Inc(ctx)
	lm.batchRecreatedTotal.Add(ctx, int64(batchesRecreated))
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of the stock age gauges.
// It is non-blocking; use Stop() to stop collection.
func (lm *LedgerMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	lm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go lm.runPeriodicCollection(ctx, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (lm *LedgerMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	lm.collectStockMetrics(ctx)

	for {
		select {
		case <-lm.stopChan:
			lm.logger.Info("Stopping periodic ledger metrics collection")
			return
		case <-ctx.Done():
			lm.logger.Info("Context cancelled, stopping periodic ledger metrics collection")
			return
		case <-ticker.C:
			lm.collectStockMetrics(ctx)
		}
	}
}

// collectStockMetrics collects the stock age profile gauges.
func (lm *LedgerMetrics) collectStockMetrics(ctx context.Context) {
	if lm.stockProvider == nil {
		lm.logger.Debug("No stock provider configured, skipping stock metrics collection")
		return
	}

	profile, err := lm.stockProvider.GetStockAgeProfile(ctx)
	if err != nil {
		lm.logger.Error("Failed to collect stock age profile", zap.Error(err))
		return
	}

	for _, band := range profile {
		qty, _ := band.Quantity.Float64()
		lm.stockQuantity.Record(ctx, qty,
			AttrAgeCategory.String(band.Category),
		)
		lm.activeBatches.Record(ctx, band.Batches,
			AttrAgeCategory.String(band.Category),
		)
	}
}

// Stop stops the periodic collection.
func (lm *LedgerMetrics) Stop() {
	lm.stopOnce.Do(func() {
		close(lm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewLedgerMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
