package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pyc-restobar/api/internal/cart"
	"github.com/pyc-restobar/api/internal/database"
	"github.com/shopspring/decimal"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr  error
	committed  bool
	rolledBack bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed = true
	return nil
}
func (m *mockTx) Rollback(ctx context.Context) error {
	m.rolledBack = true
	return nil
}
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner.
type mockTxBeginner struct {
	tx  pgx.Tx
	err error
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.tx, m.err
}

// mockCheckoutStore implements CheckoutStore with configurable behavior.
// Every catalog lookup defaults to pgx.ErrNoRows.
type mockCheckoutStore struct {
	getProductFn          func(ctx context.Context, id int64) (database.Product, error)
	getProductByNameFn    func(ctx context.Context, name string) (database.Product, error)
	getProductoFn         func(ctx context.Context, id int64) (database.Producto, error)
	getProductoByNombreFn func(ctx context.Context, nombre string) (database.Producto, error)
	createPedidoFn        func(ctx context.Context, arg database.CreatePedidoParams) (database.Pedido, error)
	createPedidoItemFn    func(ctx context.Context, arg database.CreatePedidoItemParams) (database.PedidoItem, error)
}

func (m *mockCheckoutStore) GetProduct(ctx context.Context, id int64) (database.Product, error) {
	if m.getProductFn == nil {
		return database.Product{}, pgx.ErrNoRows
	}
	return m.getProductFn(ctx, id)
}
func (m *mockCheckoutStore) GetProductByName(ctx context.Context, name string) (database.Product, error) {
	if m.getProductByNameFn == nil {
		return database.Product{}, pgx.ErrNoRows
	}
	return m.getProductByNameFn(ctx, name)
}
func (m *mockCheckoutStore) ListProducts(ctx context.Context) ([]database.Product, error) {
	panic("not implemented")
}
func (m *mockCheckoutStore) ListProductsByCategory(ctx context.Context, category string) ([]database.Product, error) {
	panic("not implemented")
}
func (m *mockCheckoutStore) GetProducto(ctx context.Context, id int64) (database.Producto, error) {
	if m.getProductoFn == nil {
		return database.Producto{}, pgx.ErrNoRows
	}
	return m.getProductoFn(ctx, id)
}
func (m *mockCheckoutStore) GetProductoByNombre(ctx context.Context, nombre string) (database.Producto, error) {
	if m.getProductoByNombreFn == nil {
		return database.Producto{}, pgx.ErrNoRows
	}
	return m.getProductoByNombreFn(ctx, nombre)
}
func (m *mockCheckoutStore) ListProductos(ctx context.Context) ([]database.Producto, error) {
	panic("not implemented")
}
func (m *mockCheckoutStore) ListProductosByCategoria(ctx context.Context, categoria string) ([]database.Producto, error) {
	panic("not implemented")
}
func (m *mockCheckoutStore) CreatePedido(ctx context.Context, arg database.CreatePedidoParams) (database.Pedido, error) {
	return m.createPedidoFn(ctx, arg)
}
func (m *mockCheckoutStore) CreatePedidoItem(ctx context.Context, arg database.CreatePedidoItemParams) (database.PedidoItem, error) {
	return m.createPedidoItemFn(ctx, arg)
}

// --- Test helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	d := numericToDecimal(n)
	exp, _ := decimal.NewFromString(expected)
	return d.Equal(exp)
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

// newTestService creates a CheckoutService with mocked dependencies.
func newTestService(store *mockCheckoutStore) (*CheckoutService, *mockTx) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	newStore := func(db database.DBTX) CheckoutStore { return store }
	return NewCheckoutService(pool, newStore), tx
}

// defaultStore knows two primary products (ids 3 and 5) and one legacy dish
// reachable by id 1 or by name. Inserts record their params for assertions.
func defaultStore() *mockCheckoutStore {
	var nextItemID int64
	m := &mockCheckoutStore{
		getProductFn: func(ctx context.Context, id int64) (database.Product, error) {
			switch id {
			case 3:
				return database.Product{ID: 3, Name: "Hamburguesa", Price: makeNumeric("12000.00")}, nil
			case 5:
				return database.Product{ID: 5, Name: "Limonada", Price: makeNumeric("2500.00")}, nil
			}
			return database.Product{}, pgx.ErrNoRows
		},
		getProductoFn: func(ctx context.Context, id int64) (database.Producto, error) {
			if id == 1 {
				return database.Producto{ID: 1, Nombre: "Milanesa con papas fritas", Precio: makeNumeric("10000.00")}, nil
			}
			return database.Producto{}, pgx.ErrNoRows
		},
		getProductoByNombreFn: func(ctx context.Context, nombre string) (database.Producto, error) {
			if nombre == "Milanesa con papas fritas" {
				return database.Producto{ID: 1, Nombre: nombre, Precio: makeNumeric("10000.00")}, nil
			}
			return database.Producto{}, pgx.ErrNoRows
		},
		createPedidoFn: func(ctx context.Context, arg database.CreatePedidoParams) (database.Pedido, error) {
			return database.Pedido{
				ID:        42,
				UsuarioID: arg.UsuarioID,
				Status:    "pending",
				Mesa:      arg.Mesa,
				Cliente:   arg.Cliente,
			}, nil
		},
	}
	m.createPedidoItemFn = func(ctx context.Context, arg database.CreatePedidoItemParams) (database.PedidoItem, error) {
		nextItemID++
		return database.PedidoItem{
			ID:          nextItemID,
			PedidoID:    arg.PedidoID,
			ProductID:   arg.ProductID,
			ProductName: arg.ProductName,
			Quantity:    arg.Quantity,
			UnitPrice:   arg.UnitPrice,
			Notes:       arg.Notes,
		}, nil
	}
	return m
}

func cartWith(refs map[string]int) *cart.Cart {
	c := cart.New()
	for ref, qty := range refs {
		c.Add(ref, qty, "")
	}
	return c
}

// =====================
// Validation tests
// =====================

func TestCheckout_EmptyCart(t *testing.T) {
	svc, _ := newTestService(defaultStore())

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		Cart: cart.New(), Mesa: "7", Cliente: "Ana",
	})
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got: %v", err)
	}

	_, err = svc.Checkout(context.Background(), CheckoutRequest{Mesa: "7", Cliente: "Ana"})
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("nil cart: expected ErrEmptyCart, got: %v", err)
	}
}

func TestCheckout_MissingMesa(t *testing.T) {
	svc, _ := newTestService(defaultStore())

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		Cart: cartWith(map[string]int{"3": 1}), Cliente: "Ana",
	})
	if !errors.Is(err, ErrMissingMesa) {
		t.Fatalf("expected ErrMissingMesa, got: %v", err)
	}
}

func TestCheckout_MissingCliente(t *testing.T) {
	svc, _ := newTestService(defaultStore())

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		Cart: cartWith(map[string]int{"3": 1}), Mesa: "7",
	})
	if !errors.Is(err, ErrMissingCliente) {
		t.Fatalf("expected ErrMissingCliente, got: %v", err)
	}
}

func TestCheckout_MetadataFallsBackToCart(t *testing.T) {
	svc, tx := newTestService(defaultStore())

	c := cartWith(map[string]int{"3": 1})
	c.Mesa = "12"
	c.Cliente = "Bruno"

	res, err := svc.Checkout(context.Background(), CheckoutRequest{Cart: c})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Pedido.Mesa != "12" || res.Pedido.Cliente != "Bruno" {
		t.Errorf("metadata: got mesa=%q cliente=%q", res.Pedido.Mesa, res.Pedido.Cliente)
	}
	if !tx.committed {
		t.Error("transaction not committed")
	}
}

func TestCheckout_FormFieldsWinOverCartMetadata(t *testing.T) {
	svc, _ := newTestService(defaultStore())

	c := cartWith(map[string]int{"3": 1})
	c.Mesa = "12"
	c.Cliente = "Bruno"

	res, err := svc.Checkout(context.Background(), CheckoutRequest{
		Cart: c, Mesa: "4", Cliente: "Carla",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Pedido.Mesa != "4" || res.Pedido.Cliente != "Carla" {
		t.Errorf("metadata: got mesa=%q cliente=%q", res.Pedido.Mesa, res.Pedido.Cliente)
	}
}

// =====================
// Resolution tests
// =====================

func TestCheckout_PricesResolvedLive(t *testing.T) {
	svc, _ := newTestService(defaultStore())

	res, err := svc.Checkout(context.Background(), CheckoutRequest{
		Cart: cartWith(map[string]int{"3": 2, "5": 1}), Mesa: "7", Cliente: "Ana",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("items: got %d, want 2", len(res.Items))
	}
	// sortedRefs orders "3" before "5".
	if res.Items[0].ProductName != "Hamburguesa" || !numericEquals(res.Items[0].UnitPrice, "12000.00") {
		t.Errorf("item 0: %+v", res.Items[0])
	}
	if res.Items[1].ProductName != "Limonada" || !numericEquals(res.Items[1].UnitPrice, "2500.00") {
		t.Errorf("item 1: %+v", res.Items[1])
	}
	want := decimal.RequireFromString("26500.00")
	if !res.Total.Equal(want) {
		t.Errorf("total: got %s, want %s", res.Total, want)
	}
}

func TestCheckout_LegacyTableFallback(t *testing.T) {
	svc, _ := newTestService(defaultStore())

	res, err := svc.Checkout(context.Background(), CheckoutRequest{
		Cart: cartWith(map[string]int{"1": 1}), Mesa: "7", Cliente: "Ana",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Items[0].ProductName != "Milanesa con papas fritas" {
		t.Errorf("item: %+v", res.Items[0])
	}
	if !numericEquals(res.Items[0].UnitPrice, "10000.00") {
		t.Errorf("price snapshot: %+v", res.Items[0].UnitPrice)
	}
}

func TestCheckout_TemporaryEntryResolvedByName(t *testing.T) {
	svc, _ := newTestService(defaultStore())

	c := cart.New()
	// Stale display price on the temp entry must not leak into the order.
	c.AddTemporary("Milanesa con papas fritas", decimal.RequireFromString("1.00"), 2, "")

	res, err := svc.Checkout(context.Background(), CheckoutRequest{
		Cart: c, Mesa: "7", Cliente: "Ana",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !numericEquals(res.Items[0].UnitPrice, "10000.00") {
		t.Errorf("temp entry priced from cart, not catalog: %+v", res.Items[0].UnitPrice)
	}
	if res.Items[0].Quantity != 2 {
		t.Errorf("quantity: got %d, want 2", res.Items[0].Quantity)
	}
}

func TestCheckout_UnresolvedEntriesSkipped(t *testing.T) {
	svc, tx := newTestService(defaultStore())

	res, err := svc.Checkout(context.Background(), CheckoutRequest{
		Cart: cartWith(map[string]int{"3": 1, "99": 2, "garbage": 1}), Mesa: "7", Cliente: "Ana",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("items: got %d, want 1", len(res.Items))
	}
	if len(res.Skipped) != 2 {
		t.Errorf("skipped: got %v, want 2 refs", res.Skipped)
	}
	if !tx.committed {
		t.Error("order with at least one resolved entry must commit")
	}
}

func TestCheckout_NothingResolves(t *testing.T) {
	svc, tx := newTestService(defaultStore())

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		Cart: cartWith(map[string]int{"99": 1, "100": 2}), Mesa: "7", Cliente: "Ana",
	})
	if !errors.Is(err, ErrNothingResolved) {
		t.Fatalf("expected ErrNothingResolved, got: %v", err)
	}
	if tx.committed {
		t.Error("nothing-resolved checkout must not commit")
	}
	if !tx.rolledBack {
		t.Error("transaction not rolled back")
	}
}

func TestCheckout_CatalogFailureAborts(t *testing.T) {
	boom := errors.New("connection reset")
	store := defaultStore()
	store.getProductFn = func(ctx context.Context, id int64) (database.Product, error) {
		return database.Product{}, boom
	}
	svc, tx := newTestService(store)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		Cart: cartWith(map[string]int{"3": 1}), Mesa: "7", Cliente: "Ana",
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected query error, got: %v", err)
	}
	if tx.committed {
		t.Error("failed checkout must not commit")
	}
}

// =====================
// Persistence tests
// =====================

func TestCheckout_NotesAndUsuarioPersisted(t *testing.T) {
	var gotPedido database.CreatePedidoParams
	var gotItem database.CreatePedidoItemParams
	store := defaultStore()
	inner := store.createPedidoFn
	store.createPedidoFn = func(ctx context.Context, arg database.CreatePedidoParams) (database.Pedido, error) {
		gotPedido = arg
		return inner(ctx, arg)
	}
	innerItem := store.createPedidoItemFn
	store.createPedidoItemFn = func(ctx context.Context, arg database.CreatePedidoItemParams) (database.PedidoItem, error) {
		gotItem = arg
		return innerItem(ctx, arg)
	}
	svc, _ := newTestService(store)

	c := cart.New()
	c.Add("3", 1, "sin cebolla")
	usuario := pgtype.Int8{Int64: 9, Valid: true}

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		Cart: c, Mesa: "7", Cliente: "Ana", UsuarioID: usuario,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPedido.UsuarioID != usuario {
		t.Errorf("usuario: got %+v", gotPedido.UsuarioID)
	}
	if !gotItem.Notes.Valid || gotItem.Notes.String != "sin cebolla" {
		t.Errorf("notes: got %+v", gotItem.Notes)
	}
}

func TestCheckout_InsertFailureRollsBack(t *testing.T) {
	store := defaultStore()
	store.createPedidoItemFn = func(ctx context.Context, arg database.CreatePedidoItemParams) (database.PedidoItem, error) {
		return database.PedidoItem{}, errors.New("disk full")
	}
	svc, tx := newTestService(store)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		Cart: cartWith(map[string]int{"3": 1}), Mesa: "7", Cliente: "Ana",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if tx.committed {
		t.Error("failed insert must not commit")
	}
	if !tx.rolledBack {
		t.Error("transaction not rolled back")
	}
}

func TestCheckout_MalformedQuantityClampedToOne(t *testing.T) {
	svc, _ := newTestService(defaultStore())

	c := cart.New()
	c.Add("3", 1, "")
	c.Entries["3"].Quantity = -2 // tampered session payload

	res, err := svc.Checkout(context.Background(), CheckoutRequest{
		Cart: c, Mesa: "7", Cliente: "Ana",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Items[0].Quantity != 1 {
		t.Errorf("quantity: got %d, want 1", res.Items[0].Quantity)
	}
}
