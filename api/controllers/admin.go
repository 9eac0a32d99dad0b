package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type catalogAdmin interface {
	Submitting() bool
	Stats() catalog.Stats
	FetchAll(ctx context.Context) ([]catalog.Product, error)
	CreateProduct(ctx context.Context, input catalog.ProductInput) (catalog.Product, error)
	UpdateProduct(ctx context.Context, id string, input catalog.ProductInput) (catalog.Product, error)
	DeleteProduct(ctx context.Context, id string) (catalog.DeleteResult, error)
}

func AdminStats(store catalogAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, store.Stats())
	}
}

// AdminCreateProduct accepts a product form with an optional image file.
func AdminCreateProduct(store catalogAdmin, maxImageBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := productInputFromForm(r, store, maxImageBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := store.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		logAdminAction(r.Context(), logg, "product created", product.ID)
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminUpdateProduct(store catalogAdmin, maxImageBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := productInputFromForm(r, store, maxImageBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := store.UpdateProduct(r.Context(), chi.URLParam(r, "id"), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		logAdminAction(r.Context(), logg, "product updated", product.ID)
		responses.WriteSuccess(w, product)
	}
}

// AdminDeleteProduct removes a product. A failed image cleanup is reported
// as a warning on a successful response.
func AdminDeleteProduct(store catalogAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store.Submitting() {
			responses.WriteError(r.Context(), logg, w, errCatalogBusy())
			return
		}
		id := chi.URLParam(r, "id")
		result, err := store.DeleteProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		logAdminAction(r.Context(), logg, "product deleted", id)
		responses.WriteSuccess(w, result)
	}
}

// AdminRefresh reloads the catalog from the remote store.
func AdminRefresh(store catalogAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := store.FetchAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, products)
	}
}

func productInputFromForm(r *http.Request, store catalogAdmin, maxImageBytes int64) (catalog.ProductInput, error) {
	if store.Submitting() {
		return catalog.ProductInput{}, errCatalogBusy()
	}
	raw, err := validators.ParseProductForm(r, maxImageBytes)
	if err != nil {
		return catalog.ProductInput{}, err
	}
	return catalog.ParseProductInput(raw)
}

func errCatalogBusy() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "another catalog change is in progress")
}

func logAdminAction(ctx context.Context, logg *logger.Logger, msg, productID string) {
	if logg == nil {
		return
	}
	ctx = logg.WithProductID(ctx, productID)
	if principal, ok := middleware.PrincipalFromContext(ctx); ok {
		ctx = logg.WithField(ctx, "admin_email", principal.Email)
	}
	logg.Info(ctx, msg)
}
