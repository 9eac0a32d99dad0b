package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func loginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as a catalog administrator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, err := a.gate(ctx)
			if err != nil {
				return err
			}
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read password")
				}
				password = strings.TrimRight(line, "\r\n")
			}
			principal, err := g.Login(ctx, email, password)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(cmd.OutOrStdout(), principal)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", principal.Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "administrator e-mail")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (read from stdin when omitted)")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the stored administrator session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.gate(cmd.Context())
			if err != nil {
				return err
			}
			if err := g.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored administrator session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.gate(cmd.Context())
			if err != nil {
				return err
			}
			status := g.Status()
			if a.asJSON {
				return a.printJSON(cmd.OutOrStdout(), status)
			}
			out := cmd.OutOrStdout()
			if status.State != enums.AuthStateAuthenticated || status.Principal == nil {
				fmt.Fprintln(out, "not signed in")
				return nil
			}
			fmt.Fprintf(out, "%s (%s)\n", status.Principal.Email, status.Principal.UID)
			if !status.Principal.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "session expires %s\n", status.Principal.ExpiresAt.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}

type productFlags struct {
	raw       catalog.RawProductInput
	imagePath string
}

func (f *productFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.raw.Name, "name", "", "product name")
	fs.StringVar(&f.raw.Description, "description", "", "product description")
	fs.StringVar(&f.raw.Price, "price", "", "price, e.g. 129.90")
	fs.StringVar(&f.raw.Category, "category", "", "shirts, footwear, shorts or accessories")
	fs.StringVar(&f.raw.Type, "type", "", "shirt, footwear, shorts or accessory")
	fs.StringVar(&f.raw.Stock, "stock", "", "units in stock")
	fs.StringVar(&f.raw.ImageURL, "image-url", "", "existing image URL")
	fs.StringVar(&f.imagePath, "image", "", "image file to upload")
}

func (f *productFlags) input() (catalog.ProductInput, error) {
	raw := f.raw
	if f.imagePath != "" {
		data, err := os.ReadFile(f.imagePath)
		if err != nil {
			return catalog.ProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read image")
		}
		raw.Image = &catalog.ImageUpload{
			Filename:    filepath.Base(f.imagePath),
			ContentType: mimetype.Detect(data).String(),
			Data:        data,
		}
	}
	return catalog.ParseProductInput(raw)
}

func createCmd(a *app) *cobra.Command {
	flags := &productFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.admin(ctx); err != nil {
				return err
			}
			input, err := flags.input()
			if err != nil {
				return err
			}
			product, err := a.c.Catalog.CreateProduct(ctx, input)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(cmd.OutOrStdout(), product)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", product.Name, product.ID)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func updateCmd(a *app) *cobra.Command {
	flags := &productFlags{}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a product's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.admin(ctx); err != nil {
				return err
			}
			input, err := flags.input()
			if err != nil {
				return err
			}
			product, err := a.c.Catalog.UpdateProduct(ctx, args[0], input)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(cmd.OutOrStdout(), product)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s (%s)\n", product.Name, product.ID)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func deleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product and its stored image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.admin(ctx); err != nil {
				return err
			}
			result, err := a.c.Catalog.DeleteProduct(ctx, args[0])
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			if result.Warning != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", result.Warning)
			}
			return nil
		},
	}
}
