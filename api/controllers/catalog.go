package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const maxSearchLen = 100

type catalogReader interface {
	Products() []catalog.Product
	ProductByID(id string) (catalog.Product, bool)
	ByCategory(category enums.ProductCategory) []catalog.Product
	Search(term string) []catalog.Product
}

// CatalogList returns the loaded products, optionally filtered by category
// and sorted.
func CatalogList(store catalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category, err := validators.ParseCategory(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		option, err := validators.ParseSort(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var products []catalog.Product
		if category != "" {
			products = store.ByCategory(category)
		} else {
			products = store.Products()
		}
		if option != "" {
			products = catalog.Sort(products, option)
		}
		responses.WriteList(w, products)
	}
}

func CatalogProduct(store catalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		product, ok := store.ProductByID(id)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]string{"id": id}))
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func CatalogSearch(store catalogReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		term := validators.SanitizeString(r.URL.Query().Get("q"), maxSearchLen)
		responses.WriteList(w, store.Search(term))
	}
}

// CatalogSizes lists the size grid offered for a product type.
func CatalogSizes(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productType, err := enums.ParseProductType(chi.URLParam(r, "type"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product type"))
			return
		}
		responses.WriteList(w, catalog.SizesForType(productType))
	}
}
