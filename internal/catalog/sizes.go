package catalog

import "github.com/angelmondragon/storefront-backend/pkg/enums"

var sizesByType = map[enums.ProductType][]string{
	enums.ProductTypeShirt:    {"PP", "P", "M", "G", "GG"},
	enums.ProductTypeFootwear: {"36", "37", "38", "39", "40", "41", "42", "43", "44"},
	enums.ProductTypeShorts:   {"P", "M", "G", "GG", "34", "36", "38", "40", "42", "44"},
}

// SizesForType returns the sizes offered for a product type. Accessories and
// unknown types are single-size and get an empty list.
func SizesForType(productType enums.ProductType) []string {
	sizes := sizesByType[productType]
	out := make([]string, len(sizes))
	copy(out, sizes)
	return out
}
