package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func productsCmd(a *app) *cobra.Command {
	var category, sortBy string
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List catalog products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			products := a.c.Catalog.Products()
			if category != "" && category != "all" {
				parsed, err := enums.ParseProductCategory(category)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
				}
				products = a.c.Catalog.ByCategory(parsed)
			}
			if sortBy != "" {
				option, err := enums.ParseSortOption(sortBy)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort")
				}
				products = catalog.Sort(products, option)
			}
			return a.printProducts(cmd.OutOrStdout(), products)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "filter by category (shirts, footwear, shorts, accessories)")
	cmd.Flags().StringVarP(&sortBy, "sort", "s", "", "sort by name, price-low or price-high")
	return cmd
}

func productCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := a.c.Catalog.ProductByID(args[0])
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			out := cmd.OutOrStdout()
			if a.asJSON {
				return a.printJSON(out, p)
			}
			fmt.Fprintf(out, "%s\n", p.Name)
			fmt.Fprintf(out, "  id:       %s\n", p.ID)
			fmt.Fprintf(out, "  price:    R$ %s\n", p.Price.StringFixed(2))
			fmt.Fprintf(out, "  category: %s (%s)\n", p.Category, p.Type)
			fmt.Fprintf(out, "  stock:    %d\n", p.Stock)
			if p.HasSizes() {
				fmt.Fprintf(out, "  sizes:    %s\n", strings.Join(p.Sizes, ", "))
			}
			if p.Description != "" {
				fmt.Fprintf(out, "  %s\n", p.Description)
			}
			return nil
		},
	}
}

func searchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Search products by name or description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printProducts(cmd.OutOrStdout(), a.c.Catalog.Search(strings.Join(args, " ")))
		},
	}
}

func sizesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sizes <type>",
		Short: "List the sizes offered for a product type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productType, err := enums.ParseProductType(args[0])
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product type")
			}
			sizes := catalog.SizesForType(productType)
			if a.asJSON {
				return a.printJSON(cmd.OutOrStdout(), sizes)
			}
			if len(sizes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Único")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(sizes, " "))
			return nil
		},
	}
}

func statsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats := a.c.Catalog.Stats()
			if a.asJSON {
				return a.printJSON(cmd.OutOrStdout(), stats)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "products:      %d\n", stats.Count)
			fmt.Fprintf(out, "average price: R$ %s\n", stats.AveragePrice.StringFixed(2))
			fmt.Fprintf(out, "categories:    %d\n", stats.Categories)
			fmt.Fprintf(out, "total stock:   %d\n", stats.TotalStock)
			return nil
		},
	}
}

func watchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the catalog every time it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			updates := make(chan []catalog.Product, 8)
			cancel, err := a.c.Catalog.Subscribe(ctx, func(products []catalog.Product) {
				select {
				case updates <- products:
				case <-ctx.Done():
				}
			})
			if err != nil {
				return err
			}
			defer cancel()

			for {
				select {
				case <-ctx.Done():
					return nil
				case products := <-updates:
					fmt.Fprintf(out, "-- %d products\n", len(products))
					if err := a.printProducts(out, products); err != nil {
						return err
					}
				}
			}
		},
	}
}

func (a *app) printProducts(out io.Writer, products []catalog.Product) error {
	if a.asJSON {
		if products == nil {
			products = []catalog.Product{}
		}
		return a.printJSON(out, products)
	}
	if len(products) == 0 {
		fmt.Fprintln(out, "no products")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\tR$ %s\t%d\n", p.ID, p.Name, p.Category, p.Price.StringFixed(2), p.Stock)
	}
	return tw.Flush()
}
