package enums

import "fmt"

// ProductCategory is the storefront section a product is listed under.
type ProductCategory string

const (
	ProductCategoryShirts      ProductCategory = "shirts"
	ProductCategoryFootwear    ProductCategory = "footwear"
	ProductCategoryShorts      ProductCategory = "shorts"
	ProductCategoryAccessories ProductCategory = "accessories"
)

var validProductCategories = []ProductCategory{
	ProductCategoryShirts,
	ProductCategoryFootwear,
	ProductCategoryShorts,
	ProductCategoryAccessories,
}

// ProductCategories lists every known category in display order.
func ProductCategories() []ProductCategory {
	out := make([]ProductCategory, len(validProductCategories))
	copy(out, validProductCategories)
	return out
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}

// ProductType drives the size grid offered for a product.
type ProductType string

const (
	ProductTypeShirt     ProductType = "shirt"
	ProductTypeFootwear  ProductType = "footwear"
	ProductTypeShorts    ProductType = "shorts"
	ProductTypeAccessory ProductType = "accessory"
)

var validProductTypes = []ProductType{
	ProductTypeShirt,
	ProductTypeFootwear,
	ProductTypeShorts,
	ProductTypeAccessory,
}

// String implements fmt.Stringer.
func (t ProductType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ProductType.
func (t ProductType) IsValid() bool {
	for _, candidate := range validProductTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseProductType converts raw input into a ProductType.
func ParseProductType(value string) (ProductType, error) {
	for _, candidate := range validProductTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product type %q", value)
}
