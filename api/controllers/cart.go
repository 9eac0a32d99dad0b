package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// CartCookieName carries the visitor's cart key.
const CartCookieName = "sf_cart"

type cartOpener interface {
	Open(ctx context.Context, key string) (*cart.Store, error)
}

type productLookup interface {
	ProductByID(id string) (catalog.Product, bool)
}

// CartOptions configures the cart cookie and the checkout hand-off.
type CartOptions struct {
	CookieTTL    time.Duration
	SecureCookie bool
	Phone        string
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Size      string `json:"size"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type cartItemResponse struct {
	Item   cart.LineItem `json:"item"`
	Notice string        `json:"notice"`
	Cart   cart.Snapshot `json:"cart"`
}

type checkoutResponse struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

func CartGet(carts cartOpener, opts CartOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := existingCart(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshotOf(store))
	}
}

// CartAddItem adds one unit of a catalog product to the visitor's cart.
// It is the only route that issues a cart cookie.
func CartAddItem(carts cartOpener, products productLookup, opts CartOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, ok := products.ProductByID(body.ProductID)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]string{"product_id": body.ProductID}))
			return
		}

		store, err := openCart(w, r, carts, opts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := store.AddToCart(r.Context(), cartProduct(product), body.Size)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind := enums.CartNoticeItemAdded
		status := http.StatusCreated
		if line.Quantity > 1 {
			kind = enums.CartNoticeQuantityUpdated
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, cartItemResponse{
			Item:   line,
			Notice: cart.Notice{Kind: kind, Line: &line}.Message(),
			Cart:   store.Snapshot(),
		})
	}
}

// CartUpdateItem sets a line's quantity. Zero removes it.
func CartUpdateItem(carts cartOpener, opts CartOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body updateItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := existingCart(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if store == nil {
			responses.WriteSuccess(w, snapshotOf(nil))
			return
		}
		if err := store.UpdateQuantity(r.Context(), chi.URLParam(r, "key"), *body.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.Snapshot())
	}
}

func CartRemoveItem(carts cartOpener, opts CartOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := existingCart(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if store == nil {
			responses.WriteSuccess(w, snapshotOf(nil))
			return
		}
		if err := store.RemoveFromCart(r.Context(), chi.URLParam(r, "key")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.Snapshot())
	}
}

func CartClear(carts cartOpener, opts CartOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := existingCart(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if store == nil {
			responses.WriteSuccess(w, snapshotOf(nil))
			return
		}
		if err := store.ClearCart(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.Snapshot())
	}
}

// CartCheckout renders the order message and the chat link for it.
func CartCheckout(carts cartOpener, opts CartOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := existingCart(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if store == nil || store.TotalItems() == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty"))
			return
		}
		url := store.CheckoutURL(opts.Phone)
		if url == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "checkout phone not configured"))
			return
		}
		responses.WriteSuccess(w, checkoutResponse{Message: store.CheckoutText(), URL: url})
	}
}

func cartKey(r *http.Request) string {
	c, err := r.Cookie(CartCookieName)
	if err != nil || cart.ValidateKey(c.Value) != nil {
		return ""
	}
	return c.Value
}

// existingCart opens the cart named by the request cookie. A request without
// a usable cookie has no cart yet and gets a nil store, so browsing never
// allocates one.
func existingCart(r *http.Request, carts cartOpener) (*cart.Store, error) {
	key := cartKey(r)
	if key == "" {
		return nil, nil
	}
	return carts.Open(r.Context(), key)
}

// openCart resolves the visitor's cart from the cookie, issuing a new key
// when the cookie is missing or malformed.
func openCart(w http.ResponseWriter, r *http.Request, carts cartOpener, opts CartOptions) (*cart.Store, error) {
	key := cartKey(r)
	if key == "" {
		key = uuid.NewString()
		cookie := &http.Cookie{
			Name:     CartCookieName,
			Value:    key,
			Path:     "/",
			HttpOnly: true,
			Secure:   opts.SecureCookie,
			SameSite: http.SameSiteLaxMode,
		}
		if opts.CookieTTL > 0 {
			cookie.MaxAge = int(opts.CookieTTL.Seconds())
		}
		http.SetCookie(w, cookie)
	}
	return carts.Open(r.Context(), key)
}

func snapshotOf(store *cart.Store) cart.Snapshot {
	if store == nil {
		return cart.Snapshot{Lines: []cart.LineItem{}}
	}
	return store.Snapshot()
}

func cartProduct(p catalog.Product) cart.Product {
	return cart.Product{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		ImageURL: p.ImageURL,
		Category: p.Category,
		Sizes:    p.Sizes,
	}
}
