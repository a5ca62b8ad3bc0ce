package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Product is a row of the primary catalog table.
type Product struct {
	ID          int64
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	Image       pgtype.Text
	Category    pgtype.Text
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Producto is a row of the legacy catalog table. Same semantics as Product;
// the id space is not shared with products.
type Producto struct {
	ID          int64
	Nombre      string
	Descripcion pgtype.Text
	Precio      pgtype.Numeric
	Imagen      pgtype.Text
	Categoria   pgtype.Text
}

// Usuario is a registered user (customer or staff).
type Usuario struct {
	ID             int64
	Nombre         string
	Email          string
	HashedPassword string
	Role           string
	CreatedAt      time.Time
}

// Pedido is an order header.
type Pedido struct {
	ID        int64
	UsuarioID pgtype.Int8
	Status    string
	Mesa      string
	Cliente   string
	CreatedAt time.Time
}

// PedidoItem is one order line. UnitPrice and ProductName are snapshots taken
// at checkout; they never change when the catalog does.
type PedidoItem struct {
	ID          int64
	PedidoID    int64
	ProductID   int64
	ProductName string
	Quantity    int32
	UnitPrice   pgtype.Numeric
	Notes       pgtype.Text
}
