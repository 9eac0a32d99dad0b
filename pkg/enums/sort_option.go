package enums

import "fmt"

// SortOption selects how a product listing is ordered for display.
type SortOption string

const (
	SortOptionName      SortOption = "name"
	SortOptionPriceLow  SortOption = "price-low"
	SortOptionPriceHigh SortOption = "price-high"
)

var validSortOptions = []SortOption{
	SortOptionName,
	SortOptionPriceLow,
	SortOptionPriceHigh,
}

// String implements fmt.Stringer.
func (s SortOption) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SortOption.
func (s SortOption) IsValid() bool {
	for _, candidate := range validSortOptions {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSortOption converts raw input into a SortOption.
func ParseSortOption(value string) (SortOption, error) {
	for _, candidate := range validSortOptions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort option %q", value)
}
