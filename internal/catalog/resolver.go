// Package catalog presents the two product tables as one catalog. The
// primary products table and the legacy productos table have different
// column names but identical semantics and do not share an id space, so
// every lookup tries the primary table first and the legacy table second;
// the first row found wins. Prices are always read live — never from values
// cached in a cart.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pyc-restobar/api/internal/database"
	"github.com/pyc-restobar/api/internal/enum"
	"github.com/shopspring/decimal"
)

// ErrNotFound means neither table has a matching row.
var ErrNotFound = errors.New("product not found")

// Product is a catalog row normalized across both tables.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
	Category    string
	Legacy      bool
}

// Store defines the database methods the resolver needs.
// Satisfied by *database.Queries; narrow interface for testability.
type Store interface {
	GetProduct(ctx context.Context, id int64) (database.Product, error)
	GetProductByName(ctx context.Context, name string) (database.Product, error)
	ListProducts(ctx context.Context) ([]database.Product, error)
	ListProductsByCategory(ctx context.Context, category string) ([]database.Product, error)
	GetProducto(ctx context.Context, id int64) (database.Producto, error)
	GetProductoByNombre(ctx context.Context, nombre string) (database.Producto, error)
	ListProductos(ctx context.Context) ([]database.Producto, error)
	ListProductosByCategoria(ctx context.Context, categoria string) ([]database.Producto, error)
}

// Resolver answers product lookups against the merged catalog.
type Resolver struct {
	store Store
}

// NewResolver creates a Resolver over store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// FindByID resolves a numeric product reference: primary table first, then
// legacy, first match wins.
func (r *Resolver) FindByID(ctx context.Context, id int64) (Product, error) {
	p, err := r.store.GetProduct(ctx, id)
	if err == nil {
		return fromProduct(p), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("get product %d: %w", id, err)
	}

	lp, err := r.store.GetProducto(ctx, id)
	if err == nil {
		return fromProducto(lp), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("get producto %d: %w", id, err)
	}
	return Product{}, ErrNotFound
}

// FindByName resolves a temporary entry's name against the catalog, same
// table order as FindByID.
func (r *Resolver) FindByName(ctx context.Context, name string) (Product, error) {
	p, err := r.store.GetProductByName(ctx, name)
	if err == nil {
		return fromProduct(p), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("get product by name: %w", err)
	}

	lp, err := r.store.GetProductoByNombre(ctx, name)
	if err == nil {
		return fromProducto(lp), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("get producto by nombre: %w", err)
	}
	return Product{}, ErrNotFound
}

// ListAll returns the merged catalog, primary rows first. Legacy rows are
// distinct menu entries even when their id collides with a primary id.
func (r *Resolver) ListAll(ctx context.Context) ([]Product, error) {
	primary, err := r.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	legacy, err := r.store.ListProductos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list productos: %w", err)
	}
	return merge(primary, legacy), nil
}

// ListByCategory returns the merged catalog filtered by category.
func (r *Resolver) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	primary, err := r.store.ListProductsByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list products by category: %w", err)
	}
	legacy, err := r.store.ListProductosByCategoria(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list productos by categoria: %w", err)
	}
	return merge(primary, legacy), nil
}

// GroupByCategory arranges the merged catalog for the landing page: known
// categories in display order, uncategorized rows under "general".
func (r *Resolver) GroupByCategory(ctx context.Context) (map[string][]Product, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	groups := make(map[string][]Product, len(enum.Categories))
	for _, p := range all {
		cat := p.Category
		if cat == "" {
			cat = enum.CategoryGeneral
		}
		groups[cat] = append(groups[cat], p)
	}
	return groups, nil
}

// --- Helpers ---

func merge(primary []database.Product, legacy []database.Producto) []Product {
	out := make([]Product, 0, len(primary)+len(legacy))
	for _, p := range primary {
		out = append(out, fromProduct(p))
	}
	for _, p := range legacy {
		out = append(out, fromProducto(p))
	}
	return out
}

func fromProduct(p database.Product) Product {
	return Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: textOrEmpty(p.Description),
		Price:       numericToDecimal(p.Price),
		Image:       textOrEmpty(p.Image),
		Category:    textOrEmpty(p.Category),
	}
}

func fromProducto(p database.Producto) Product {
	return Product{
		ID:          p.ID,
		Name:        p.Nombre,
		Description: textOrEmpty(p.Descripcion),
		Price:       numericToDecimal(p.Precio),
		Image:       textOrEmpty(p.Imagen),
		Category:    textOrEmpty(p.Categoria),
		Legacy:      true,
	}
}

func textOrEmpty(t pgtype.Text) string {
	if t.Valid {
		return t.String
	}
	return ""
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}
