package catalog

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry as held by the remote store.
type Product struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Price       decimal.Decimal       `json:"price"`
	Category    enums.ProductCategory `json:"category"`
	Type        enums.ProductType     `json:"type"`
	Sizes       []string              `json:"sizes"`
	Stock       int                   `json:"stock"`
	ImageURL    string                `json:"image_url"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// HasSizes reports whether a size must be picked when buying the product.
func (p Product) HasSizes() bool {
	return len(p.Sizes) > 0
}

func (p Product) clone() Product {
	if p.Sizes != nil {
		p.Sizes = append([]string(nil), p.Sizes...)
	}
	return p
}

// Draft holds the writable fields of a product document.
type Draft struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    enums.ProductCategory
	Type        enums.ProductType
	Sizes       []string
	Stock       int
	ImageURL    string
}

// ImageUpload is an image file to store alongside a product.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProductInput is the admin payload for create and update.
type ProductInput struct {
	Name        string                `json:"name" validate:"required,max=200"`
	Description string                `json:"description" validate:"max=2000"`
	Price       *decimal.Decimal      `json:"price" validate:"required"`
	Category    enums.ProductCategory `json:"category" validate:"required"`
	Type        enums.ProductType     `json:"type" validate:"required"`
	Stock       *int                  `json:"stock" validate:"required,min=0"`
	ImageURL    string                `json:"image_url" validate:"omitempty,url"`
	// Sizes is ignored; the offered sizes always come from Type.
	Sizes []string     `json:"sizes"`
	Image *ImageUpload `json:"-"`
}

// RawProductInput carries untyped form values, as submitted by the admin form
// or the command line.
type RawProductInput struct {
	Name        string
	Description string
	Price       string
	Category    string
	Type        string
	Stock       string
	ImageURL    string
	Image       *ImageUpload
}

// ParseProductInput converts form values into a ProductInput. Missing values
// are left empty so that validation reports them; malformed numbers fail here.
func ParseProductInput(raw RawProductInput) (ProductInput, error) {
	input := ProductInput{
		Name:        strings.TrimSpace(raw.Name),
		Description: strings.TrimSpace(raw.Description),
		Category:    enums.ProductCategory(strings.TrimSpace(raw.Category)),
		Type:        enums.ProductType(strings.TrimSpace(raw.Type)),
		ImageURL:    strings.TrimSpace(raw.ImageURL),
		Image:       raw.Image,
	}
	malformed := map[string]string{}

	if price := strings.TrimSpace(raw.Price); price != "" {
		value, err := decimal.NewFromString(strings.Replace(price, ",", ".", 1))
		if err != nil {
			malformed["price"] = "must be a number"
		} else {
			input.Price = &value
		}
	}
	if stock := strings.TrimSpace(raw.Stock); stock != "" {
		value, err := strconv.Atoi(stock)
		if err != nil {
			malformed["stock"] = "must be a whole number"
		} else {
			input.Stock = &value
		}
	}

	if len(malformed) > 0 {
		return ProductInput{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(malformed)
	}
	return input, nil
}

// DeleteResult reports the outcome of a product delete that succeeded.
type DeleteResult struct {
	// Warning is set when the product image could not be removed.
	Warning string `json:"warning,omitempty"`
}

// Stats summarizes the loaded catalog.
type Stats struct {
	Count        int             `json:"count"`
	AveragePrice decimal.Decimal `json:"average_price"`
	Categories   int             `json:"categories"`
	TotalStock   int             `json:"total_stock"`
}

func cloneProducts(products []Product) []Product {
	out := make([]Product, len(products))
	for i, p := range products {
		out[i] = p.clone()
	}
	return out
}

// sortNewestFirst orders by creation time, newest first.
func sortNewestFirst(products []Product) {
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
}

func sortByID(products []Product) {
	sort.Slice(products, func(i, j int) bool {
		return products[i].ID < products[j].ID
	})
}
