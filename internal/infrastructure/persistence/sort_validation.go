package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
// Caller-supplied sort fields travel into ORDER BY verbatim, so the whitelist is
// what stands between the query string and the SQL.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// BatchSortFields contains allowed sort fields for batches
var BatchSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"product_id": true,
	"quantity":   true,
	"date_added": true,
}

// ReturnSortFields contains allowed sort fields for returns
var ReturnSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"return_date":    true,
	"processed_by":   true,
	"processed_at":   true,
	"total_batches":  true,
	"total_quantity": true,
	"total_value":    true,
}
