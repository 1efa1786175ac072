package shared

// Filter carries pagination and ordering options for listing queries
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// DefaultFilter returns the listing defaults, newest first
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "processed_at",
		OrderDir: "desc",
	}
}

// Offset converts the one-based page number to a row offset
func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}
