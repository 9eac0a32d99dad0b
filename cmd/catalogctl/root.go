package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/internal/bootstrap"
	"github.com/angelmondragon/storefront-backend/internal/identity"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type containerLoader func(ctx context.Context, envFile string) (*bootstrap.Container, error)

// app is the state shared by every subcommand of one invocation.
type app struct {
	load    containerLoader
	envFile string
	asJSON  bool
	cartKey string

	c        *bootstrap.Container
	stopGate func()
}

// execute runs one invocation and always releases the opened clients.
func execute(ctx context.Context, load containerLoader, args []string, out, errOut io.Writer) error {
	root, a := newRootCmd(load)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	err := root.ExecuteContext(ctx)
	return multierr.Append(err, a.close())
}

func newRootCmd(load containerLoader) (*cobra.Command, *app) {
	a := &app{load: load}

	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Browse and manage the storefront catalog and cart",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading config")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print JSON instead of text")
	root.PersistentFlags().StringVar(&a.cartKey, "cart", "", "cart key (defaults to STOREFRONT_CART_DEFAULT_ID)")

	root.AddCommand(
		productsCmd(a),
		productCmd(a),
		searchCmd(a),
		sizesCmd(a),
		statsCmd(a),
		watchCmd(a),
		loginCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		createCmd(a),
		updateCmd(a),
		deleteCmd(a),
		cartCmd(a),
	)
	return root, a
}

func (a *app) open(ctx context.Context) error {
	c, err := a.load(ctx, a.envFile)
	if err != nil {
		return err
	}
	a.c = c
	if a.cartKey == "" {
		a.cartKey = c.Config.Cart.DefaultID
	}
	if _, err := c.Catalog.FetchAll(ctx); err != nil {
		return err
	}
	return nil
}

func (a *app) close() error {
	if a.stopGate != nil {
		a.stopGate()
		a.stopGate = nil
	}
	if a.c == nil {
		return nil
	}
	err := a.c.Close()
	a.c = nil
	return err
}

// gate starts the admin session gate and waits for the stored session to
// resolve.
func (a *app) gate(ctx context.Context) (*identity.Gate, error) {
	if a.c.Gate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "admin sign-in is not configured (set STOREFRONT_GCP_PROJECT_ID)")
	}
	if a.stopGate == nil {
		stop, err := a.c.Gate.Start(ctx)
		if err != nil {
			return nil, err
		}
		a.stopGate = stop
	}
	if _, err := a.c.Gate.WaitReady(ctx); err != nil {
		return nil, err
	}
	return a.c.Gate, nil
}

// admin requires a live admin session.
func (a *app) admin(ctx context.Context) (identity.Principal, error) {
	g, err := a.gate(ctx)
	if err != nil {
		return identity.Principal{}, err
	}
	return g.Authorize()
}

func (a *app) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderError prefers the user-facing message of typed errors.
func renderError(err error) string {
	if le, ok := identity.AsLoginError(err); ok {
		return le.Message
	}
	var typed *pkgerrors.Error
	if errors.As(err, &typed) {
		msg := typed.Message()
		if details, ok := typed.Details().(map[string]string); ok && len(details) > 0 {
			keys := make([]string, 0, len(details))
			for k := range details {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			parts := make([]string, 0, len(keys))
			for _, k := range keys {
				parts = append(parts, k+": "+details[k])
			}
			msg += " (" + strings.Join(parts, ", ") + ")"
		}
		return fmt.Sprintf("error: %s", msg)
	}
	return fmt.Sprintf("error: %v", err)
}
