package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/bootstrap"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/identity"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// testLoader builds a fresh container per invocation over one shared catalog
// and cart directory, like repeated runs against the same backends.
func testLoader(t *testing.T) (containerLoader, *catalog.Store) {
	t.Helper()
	dir := t.TempDir()
	shared, err := catalog.NewStore(catalog.NewMemoryRemote(), logger.Nop(), catalog.Options{})
	require.NoError(t, err)

	load := func(ctx context.Context, envFile string) (*bootstrap.Container, error) {
		cfg := &config.Config{
			App:      config.AppConfig{Env: config.AppEnvDev},
			Catalog:  config.CatalogConfig{Backend: config.BackendMemory, Collection: "products", SeedMode: config.SeedModeAuto},
			GCS:      config.GCSConfig{URLStyle: config.URLStyleFirebase},
			Cart:     config.CartConfig{Backend: config.BackendFile, Dir: filepath.Join(dir, "carts"), DefaultID: "cart"},
			Session:  config.SessionConfig{Backend: config.BackendFile, Path: filepath.Join(dir, "session.json")},
			Checkout: config.CheckoutConfig{Phone: "5511999999999"},
		}
		c, err := bootstrap.Build(ctx, cfg, logger.Nop(), bootstrap.Options{})
		if err != nil {
			return nil, err
		}
		c.Catalog = shared
		return c, nil
	}
	return load, shared
}

func run(t *testing.T, load containerLoader, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := execute(context.Background(), load, append([]string{"--env-file", ""}, args...), &out, &errOut)
	return out.String(), errOut.String(), err
}

func findProduct(t *testing.T, store *catalog.Store, name string) catalog.Product {
	t.Helper()
	for _, p := range store.Products() {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("product %q missing", name)
	return catalog.Product{}
}

func TestProductsCommands(t *testing.T) {
	load, _ := testLoader(t)

	out, _, err := run(t, load, "--json", "products")
	require.NoError(t, err)
	var products []catalog.Product
	require.NoError(t, json.Unmarshal([]byte(out), &products))
	assert.Len(t, products, 4)

	out, _, err = run(t, load, "products", "--category", "footwear")
	require.NoError(t, err)
	assert.Contains(t, out, "Tênis de Corrida UltraBoost")
	assert.NotContains(t, out, "Mochila")

	out, _, err = run(t, load, "products", "--sort", "price-high")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "Tênis"), strings.Index(out, "Bermuda"))

	_, _, err = run(t, load, "products", "--category", "hats")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	out, _, err = run(t, load, "search", "mochila")
	require.NoError(t, err)
	assert.Contains(t, out, "Mochila Esportiva Adventure")

	out, _, err = run(t, load, "sizes", "shirt")
	require.NoError(t, err)
	assert.Equal(t, "PP P M G GG\n", out)

	out, _, err = run(t, load, "sizes", "accessory")
	require.NoError(t, err)
	assert.Equal(t, "Único\n", out)

	out, _, err = run(t, load, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "products:      4")
}

func TestCartCommands(t *testing.T) {
	load, store := testLoader(t)
	_, _, err := run(t, load, "stats")
	require.NoError(t, err)
	shirt := findProduct(t, store, "Camisa Esportiva Performance")

	_, stderr, err := run(t, load, "cart", "add", shirt.ID, "--size", "G")
	require.NoError(t, err)
	assert.Contains(t, stderr, "foi adicionado ao carrinho!")

	_, stderr, err = run(t, load, "cart", "add", shirt.ID, "--size", "G")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Quantidade aumentada!")

	out, _, err := run(t, load, "--json", "cart", "show")
	require.NoError(t, err)
	var snap cart.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 2, snap.TotalItems)
	key := snap.Lines[0].Key

	_, _, err = run(t, load, "cart", "set", key, "3")
	require.NoError(t, err)

	out, _, err = run(t, load, "cart", "checkout")
	require.NoError(t, err)
	assert.Contains(t, out, "Camisa Esportiva Performance (Tamanho: G) (3x) - R$ 389.70")
	assert.Contains(t, out, "https://wa.me/5511999999999?text=")

	_, _, err = run(t, load, "--cart", "other", "cart", "checkout")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, _, err = run(t, load, "cart", "set", key, "many")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, stderr, err = run(t, load, "cart", "clear")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Todos os itens foram removidos do carrinho.")

	out, _, err = run(t, load, "cart", "show")
	require.NoError(t, err)
	assert.Equal(t, "cart is empty\n", out)
}

func TestAdminCommandsNeedIdentity(t *testing.T) {
	load, store := testLoader(t)

	_, _, err := run(t, load, "create", "--name", "Boné", "--price", "59.90", "--category", "accessories", "--type", "accessory", "--stock", "3")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Contains(t, renderError(err), "admin sign-in is not configured")
	assert.Len(t, store.Products(), 4)

	_, _, err = run(t, load, "whoami")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestRenderError(t *testing.T) {
	err := pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
		WithDetails(map[string]string{"stock": "must be a whole number", "price": "must be a number"})
	assert.Equal(t, "error: validation failed (price: must be a number, stock: must be a whole number)", renderError(err))

	le := &identity.LoginError{Message: "E-mail ou senha incorretos."}
	assert.Equal(t, "E-mail ou senha incorretos.", renderError(le))

	assert.Equal(t, "error: boom", renderError(assertErr("boom")))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
