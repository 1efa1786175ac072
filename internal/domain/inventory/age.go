package inventory

import (
	"fmt"

	"github.com/cafepos/backend/internal/domain/shared"
)

// AgeCategory buckets a batch by how many days it has been on the shelf
type AgeCategory string

const (
	// AgeCategoryFresh covers batches 0 to 2 days old
	AgeCategoryFresh AgeCategory = "fresh"
	// AgeCategoryMedium covers batches 3 to 7 days old
	AgeCategoryMedium AgeCategory = "medium"
	// AgeCategoryOld covers batches 8 or more days old
	AgeCategoryOld AgeCategory = "old"
)

const (
	freshMaxAgeDays  = 2
	mediumMaxAgeDays = 7
)

// IsValid checks if the age category is valid
func (c AgeCategory) IsValid() bool {
	switch c {
	case AgeCategoryFresh, AgeCategoryMedium, AgeCategoryOld:
		return true
	}
	return false
}

func (c AgeCategory) String() string {
	return string(c)
}

// ParseAgeCategory converts an external string into an AgeCategory
func ParseAgeCategory(value string) (AgeCategory, error) {
	category := AgeCategory(value)
	if !category.IsValid() {
		return "", shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Unknown age category %q", value))
	}
	return category, nil
}

// CategoryForAge maps an age in whole days to its category. Boundaries are
// inclusive: day 2 is still fresh, day 7 is still medium.
func CategoryForAge(days int) AgeCategory {
	switch {
	case days <= freshMaxAgeDays:
		return AgeCategoryFresh
	case days <= mediumMaxAgeDays:
		return AgeCategoryMedium
	default:
		return AgeCategoryOld
	}
}
