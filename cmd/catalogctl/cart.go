package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func cartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the local shopping cart",
	}
	cmd.AddCommand(
		cartShowCmd(a),
		cartAddCmd(a),
		cartRemoveCmd(a),
		cartSetCmd(a),
		cartClearCmd(a),
		cartCheckoutCmd(a),
	)
	return cmd
}

// openCart returns the selected cart with its notices echoed to stderr.
func (a *app) openCart(cmd *cobra.Command) (*cart.Store, func(), error) {
	store, err := a.c.Carts.Open(cmd.Context(), a.cartKey)
	if err != nil {
		return nil, nil, err
	}
	errOut := cmd.ErrOrStderr()
	cancel := store.OnNotice(func(n cart.Notice) {
		if msg := n.Message(); msg != "" {
			fmt.Fprintln(errOut, msg)
		}
	})
	return store, cancel, nil
}

func cartShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := a.openCart(cmd)
			if err != nil {
				return err
			}
			defer done()
			return a.printCart(cmd.OutOrStdout(), store.Snapshot())
		},
	}
}

func cartAddCmd(a *app) *cobra.Command {
	var size string
	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add one unit of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			product, ok := a.c.Catalog.ProductByID(args[0])
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			store, done, err := a.openCart(cmd)
			if err != nil {
				return err
			}
			defer done()
			if _, err := store.AddToCart(cmd.Context(), toCartProduct(product), size); err != nil {
				return err
			}
			return a.printCart(cmd.OutOrStdout(), store.Snapshot())
		},
	}
	cmd.Flags().StringVar(&size, "size", "", "size to add (required for sized products)")
	return cmd
}

func cartRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <line-key>",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := a.openCart(cmd)
			if err != nil {
				return err
			}
			defer done()
			if err := store.RemoveFromCart(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.printCart(cmd.OutOrStdout(), store.Snapshot())
		},
	}
}

func cartSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <line-key> <quantity>",
		Short: "Set the quantity of a line; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "quantity must be a whole number")
			}
			store, done, err := a.openCart(cmd)
			if err != nil {
				return err
			}
			defer done()
			if err := store.UpdateQuantity(cmd.Context(), args[0], quantity); err != nil {
				return err
			}
			return a.printCart(cmd.OutOrStdout(), store.Snapshot())
		},
	}
}

func cartClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := a.openCart(cmd)
			if err != nil {
				return err
			}
			defer done()
			return store.ClearCart(cmd.Context())
		},
	}
}

func cartCheckoutCmd(a *app) *cobra.Command {
	var phone string
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Print the order message and chat link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := a.openCart(cmd)
			if err != nil {
				return err
			}
			defer done()
			if store.TotalItems() == 0 {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
			}
			if phone == "" {
				phone = a.c.Config.Checkout.Phone
			}
			url := store.CheckoutURL(phone)
			if url == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "checkout phone has no digits")
			}
			out := cmd.OutOrStdout()
			if a.asJSON {
				return a.printJSON(out, map[string]string{"message": store.CheckoutText(), "url": url})
			}
			fmt.Fprintln(out, store.CheckoutText())
			fmt.Fprintln(out)
			fmt.Fprintln(out, url)
			return nil
		},
	}
	cmd.Flags().StringVar(&phone, "phone", "", "destination phone (defaults to STOREFRONT_CHECKOUT_PHONE)")
	return cmd
}

func (a *app) printCart(out io.Writer, snap cart.Snapshot) error {
	if a.asJSON {
		return a.printJSON(out, snap)
	}
	if len(snap.Lines) == 0 {
		fmt.Fprintln(out, "cart is empty")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tSIZE\tQTY\tSUBTOTAL")
	for _, line := range snap.Lines {
		size := line.Size
		if size == "" {
			size = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\tR$ %s\n", line.Key, line.Name, size, line.Quantity, line.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(tw, "\t\t\t%d\tR$ %s\n", snap.TotalItems, snap.TotalPrice.StringFixed(2))
	return tw.Flush()
}

func toCartProduct(p catalog.Product) cart.Product {
	return cart.Product{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		ImageURL: p.ImageURL,
		Category: p.Category,
		Sizes:    p.Sizes,
	}
}
