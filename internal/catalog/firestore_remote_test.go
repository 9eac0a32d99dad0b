package catalog

import (
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewFirestoreRemoteValidatesArguments(t *testing.T) {
	_, err := NewFirestoreRemote(nil, "products")
	assert.Error(t, err)
	_, err = NewFirestoreRemote(&firestore.Client{}, " ")
	assert.Error(t, err)
}

func TestDecodeProductDataAcceptsMixedNumberTypes(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := decodeProductData("abc", map[string]any{
		"name":        "Camisa",
		"description": "Leve",
		"price":       129.9,
		"category":    "shirts",
		"type":        "shirt",
		"image":       "https://example.com/a.png",
		"sizes":       []any{"P", "M"},
		"stock":       int64(50),
		"createdAt":   created,
	})

	assert.Equal(t, "abc", p.ID)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("129.90")))
	assert.Equal(t, enums.ProductCategoryShirts, p.Category)
	assert.Equal(t, []string{"P", "M"}, p.Sizes)
	assert.Equal(t, 50, p.Stock)
	assert.Equal(t, created, p.CreatedAt)
	assert.True(t, p.UpdatedAt.IsZero())

	other := decodeProductData("def", map[string]any{"price": int64(99), "stock": 3.0})
	assert.True(t, other.Price.Equal(decimal.NewFromInt(99)))
	assert.Equal(t, 3, other.Stock)
	assert.Equal(t, []string{}, other.Sizes)
}

func TestDraftFields(t *testing.T) {
	draft := Draft{
		Name:     "Mochila",
		Price:    decimal.RequireFromString("229.90"),
		Category: enums.ProductCategoryAccessories,
		Type:     enums.ProductTypeAccessory,
		Stock:    20,
	}

	created := draftFields(draft, true)
	assert.Equal(t, 229.9, created["price"])
	assert.Equal(t, int64(20), created["stock"])
	assert.Equal(t, []string{}, created["sizes"])
	assert.Equal(t, firestore.ServerTimestamp, created["createdAt"])
	assert.Equal(t, firestore.ServerTimestamp, created["updatedAt"])

	updated := draftFields(draft, false)
	_, hasCreated := updated["createdAt"]
	assert.False(t, hasCreated, "updates must not touch the creation timestamp")
}
