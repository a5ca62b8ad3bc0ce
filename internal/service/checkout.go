// Package service holds the checkout pipeline: it turns a session cart into
// a persisted order inside one transaction, resolving every price against
// the catalog at checkout time.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pyc-restobar/api/internal/cart"
	"github.com/pyc-restobar/api/internal/catalog"
	"github.com/pyc-restobar/api/internal/database"
	"github.com/shopspring/decimal"
)

// Errors returned by the checkout service.
var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrMissingMesa     = errors.New("mesa is required")
	ErrMissingCliente  = errors.New("cliente is required")
	ErrNothingResolved = errors.New("no cart entry matches the catalog")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CheckoutStore defines the DB methods needed to persist an order. It
// includes the catalog lookups so prices are resolved on the same
// transaction that writes the order.
// Satisfied by *database.Queries (and its WithTx variant).
type CheckoutStore interface {
	catalog.Store
	CreatePedido(ctx context.Context, arg database.CreatePedidoParams) (database.Pedido, error)
	CreatePedidoItem(ctx context.Context, arg database.CreatePedidoItemParams) (database.PedidoItem, error)
}

// NewCheckoutStore creates a CheckoutStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewCheckoutStore func(db database.DBTX) CheckoutStore

// CheckoutRequest is the input for converting a cart into an order. Mesa and
// Cliente submitted with the checkout form win over values remembered in the
// cart.
type CheckoutRequest struct {
	Cart      *cart.Cart
	Mesa      string
	Cliente   string
	UsuarioID pgtype.Int8 // set when the session is authenticated
}

// CheckoutResult is the persisted order with its line items. Skipped lists
// cart entries that no longer matched any catalog row and were left out of
// the order; the caller decides how loudly to report them.
type CheckoutResult struct {
	Pedido  database.Pedido
	Items   []database.PedidoItem
	Skipped []string
	Total   decimal.Decimal
}

// CheckoutService converts carts into orders.
type CheckoutService struct {
	pool     TxBeginner
	newStore NewCheckoutStore
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(pool TxBeginner, newStore NewCheckoutStore) *CheckoutService {
	return &CheckoutService{pool: pool, newStore: newStore}
}

// resolvedLine is a cart entry priced against the catalog, ready to insert.
type resolvedLine struct {
	params database.CreatePedidoItemParams
	price  decimal.Decimal
	qty    int32
}

// Checkout validates the request, resolves every cart entry against the
// catalog, and writes the order header plus line items in one transaction.
// Entries that no longer match any catalog row are skipped, not fatal; a
// cart where nothing resolves fails with ErrNothingResolved and persists
// nothing.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.Cart == nil || req.Cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	mesa := req.Mesa
	if mesa == "" {
		mesa = req.Cart.Mesa
	}
	if mesa == "" {
		return nil, ErrMissingMesa
	}
	cliente := req.Cliente
	if cliente == "" {
		cliente = req.Cart.Cliente
	}
	if cliente == "" {
		return nil, ErrMissingCliente
	}

	// --- Begin transaction ---
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	resolver := catalog.NewResolver(store)

	// --- Resolve entries: catalog lookup + price snapshot ---
	var lines []resolvedLine
	var skipped []string
	total := decimal.Zero

	for _, ref := range sortedRefs(req.Cart) {
		e := req.Cart.Entries[ref]
		if e == nil {
			skipped = append(skipped, ref)
			continue
		}

		p, err := s.resolveEntry(ctx, resolver, ref, e)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				skipped = append(skipped, displayRef(ref, e))
				continue
			}
			return nil, err
		}

		qty := int32(e.Quantity)
		if qty < 1 {
			qty = 1
		}

		notes := pgtype.Text{}
		if e.Notes != "" {
			notes = pgtype.Text{String: e.Notes, Valid: true}
		}

		lines = append(lines, resolvedLine{
			params: database.CreatePedidoItemParams{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    qty,
				UnitPrice:   decimalToNumeric(p.Price),
				Notes:       notes,
			},
			price: p.Price,
			qty:   qty,
		})
		total = total.Add(p.Price.Mul(decimal.NewFromInt32(qty)))
	}

	if len(lines) == 0 {
		return nil, ErrNothingResolved
	}

	// --- Insert order header ---
	pedido, err := store.CreatePedido(ctx, database.CreatePedidoParams{
		UsuarioID: req.UsuarioID,
		Mesa:      mesa,
		Cliente:   cliente,
	})
	if err != nil {
		return nil, fmt.Errorf("create pedido: %w", err)
	}

	// --- Insert items ---
	var items []database.PedidoItem
	for _, line := range lines {
		line.params.PedidoID = pedido.ID
		item, err := store.CreatePedidoItem(ctx, line.params)
		if err != nil {
			return nil, fmt.Errorf("create pedido item: %w", err)
		}
		items = append(items, item)
	}

	// --- Commit ---
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CheckoutResult{
		Pedido:  pedido,
		Items:   items,
		Skipped: skipped,
		Total:   total,
	}, nil
}

// resolveEntry finds the catalog row for one cart entry. Temporary entries
// resolve by name; regular entries parse their ref as a product id. The
// price stored on a temporary entry is display-only and never trusted here.
func (s *CheckoutService) resolveEntry(ctx context.Context, resolver *catalog.Resolver, ref string, e *cart.Entry) (catalog.Product, error) {
	if e.Temporary {
		if e.Name == "" {
			return catalog.Product{}, catalog.ErrNotFound
		}
		return resolver.FindByName(ctx, e.Name)
	}
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return resolver.FindByID(ctx, id)
}

// sortedRefs returns the cart's refs in a stable order so line items insert
// deterministically.
func sortedRefs(c *cart.Cart) []string {
	refs := make([]string, 0, len(c.Entries))
	for ref := range c.Entries {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// displayRef prefers the entry's name over its opaque key when reporting a
// skipped entry.
func displayRef(ref string, e *cart.Entry) string {
	if e != nil && e.Name != "" {
		return e.Name
	}
	return ref
}

// --- Helpers ---

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
