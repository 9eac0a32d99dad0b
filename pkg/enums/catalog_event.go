package enums

import "fmt"

// CatalogEventType names the product change broadcast to downstream consumers.
type CatalogEventType string

const (
	CatalogEventProductCreated CatalogEventType = "product_created"
	CatalogEventProductUpdated CatalogEventType = "product_updated"
	CatalogEventProductDeleted CatalogEventType = "product_deleted"
	CatalogEventSeeded         CatalogEventType = "catalog_seeded"
)

var validCatalogEventTypes = []CatalogEventType{
	CatalogEventProductCreated,
	CatalogEventProductUpdated,
	CatalogEventProductDeleted,
	CatalogEventSeeded,
}

// String implements fmt.Stringer.
func (e CatalogEventType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known CatalogEventType.
func (e CatalogEventType) IsValid() bool {
	for _, candidate := range validCatalogEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseCatalogEventType converts raw input into a CatalogEventType.
func ParseCatalogEventType(value string) (CatalogEventType, error) {
	for _, candidate := range validCatalogEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid catalog event type %q", value)
}
