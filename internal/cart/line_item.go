package cart

import (
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Product is the catalog data the cart snapshots when a line is created.
type Product struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	ImageURL string
	Category enums.ProductCategory
	// Sizes lists the sizes on offer. Empty means the product is unsized.
	Sizes []string
}

// LineItem is one (product, size) entry in the cart. Price and display data
// are frozen at add time and not refreshed from the catalog.
type LineItem struct {
	Key       string                `json:"key"`
	ProductID string                `json:"product_id"`
	Name      string                `json:"name"`
	Price     decimal.Decimal       `json:"price"`
	ImageURL  string                `json:"image_url,omitempty"`
	Category  enums.ProductCategory `json:"category,omitempty"`
	Quantity  int                   `json:"quantity"`
	Size      string                `json:"size,omitempty"`
}

// Subtotal is price times quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineKey composes the identity of a cart line.
func LineKey(productID, size string) string {
	if size == "" {
		return productID
	}
	return productID + "-" + size
}

// Snapshot is the full cart state handed to subscribers.
type Snapshot struct {
	Lines      []LineItem      `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Notice is a user-visible notification raised by a mutation.
type Notice struct {
	Kind enums.CartNotice
	// Line is the affected line; nil for cart-wide notices.
	Line *LineItem
}

// Message renders the storefront toast text for the notice.
func (n Notice) Message() string {
	switch n.Kind {
	case enums.CartNoticeItemAdded:
		return n.describeLine() + " foi adicionado ao carrinho!"
	case enums.CartNoticeQuantityUpdated:
		return n.describeLine() + " já estava no carrinho. Quantidade aumentada!"
	case enums.CartNoticeRemoved:
		return "Item removido do carrinho com sucesso!"
	case enums.CartNoticeCleared:
		return "Todos os itens foram removidos do carrinho."
	default:
		return ""
	}
}

func (n Notice) describeLine() string {
	if n.Line == nil {
		return "Produto"
	}
	size := n.Line.Size
	if size == "" {
		size = "Único"
	}
	return fmt.Sprintf("%s (Tamanho: %s)", n.Line.Name, size)
}

func totals(lines []LineItem) (int, decimal.Decimal) {
	items := 0
	price := decimal.Zero
	for _, line := range lines {
		items += line.Quantity
		price = price.Add(line.Subtotal())
	}
	return items, price
}

func cloneLines(lines []LineItem) []LineItem {
	out := make([]LineItem, len(lines))
	copy(out, lines)
	return out
}

func indexOf(lines []LineItem, key string) int {
	for i, line := range lines {
		if line.Key == key {
			return i
		}
	}
	return -1
}
