// Package notification delivers return summaries to staff channels.
// Delivery is best effort: the services treat a failure here as a
// warning on the response, never as a reason to roll anything back.
package notification

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	appret "github.com/cafepos/backend/internal/application/returns"
)

// ProcessedSummary renders the staff-facing line for a committed return
func ProcessedSummary(n appret.ReturnNotification) string {
	return fmt.Sprintf("Return processed by %s: %d batches, value %s (%s)",
		n.Actor, n.TotalBatches, n.TotalValue.StringFixed(2), summarizeLines(n.Lines))
}

// UndoneSummary renders the staff-facing line for an undone return
func UndoneSummary(n appret.ReturnNotification) string {
	return fmt.Sprintf("Return undone by %s: %d batches back in stock, value %s (%s)",
		n.Actor, n.TotalBatches, n.TotalValue.StringFixed(2), summarizeLines(n.Lines))
}

func summarizeLines(lines []appret.ReturnNotificationLine) string {
	// A Caser is stateful, so build one per call instead of sharing.
	caser := cases.Title(language.English)

	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, fmt.Sprintf("%s %s",
			caser.String(line.ProductName),
			formatQuantity(line.Quantity, line.IsWeightBased),
		))
	}
	return strings.Join(parts, ", ")
}

// formatQuantity renders a line quantity with its unit. Weight-based
// products sell by the kilogram; everything else counts pieces.
func formatQuantity(quantity decimal.Decimal, weightBased bool) string {
	if weightBased {
		return quantity.StringFixed(3) + " kg"
	}
	return quantity.String() + " pcs"
}
