package enums

// CartNotice is the user-visible notification raised by a cart mutation.
type CartNotice string

const (
	CartNoticeItemAdded       CartNotice = "item_added"
	CartNoticeQuantityUpdated CartNotice = "quantity_updated"
	CartNoticeRemoved         CartNotice = "item_removed"
	CartNoticeCleared         CartNotice = "cart_cleared"
)

// String implements fmt.Stringer.
func (n CartNotice) String() string {
	return string(n)
}
