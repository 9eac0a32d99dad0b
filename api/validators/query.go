package validators

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// ParseCategory reads the optional category filter. Empty and "all" mean no filter.
func ParseCategory(r *http.Request) (enums.ProductCategory, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("category"))
	if raw == "" || raw == "all" {
		return "", nil
	}
	category, err := enums.ParseProductCategory(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category").
			WithDetails(map[string]any{"field": "category", "allowed": enums.ProductCategories()})
	}
	return category, nil
}

// ParseSort reads the optional sort option. Empty keeps newest-first order.
func ParseSort(r *http.Request) (enums.SortOption, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("sort"))
	if raw == "" {
		return "", nil
	}
	option, err := enums.ParseSortOption(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort option").
			WithDetails(map[string]any{"field": "sort"})
	}
	return option, nil
}
