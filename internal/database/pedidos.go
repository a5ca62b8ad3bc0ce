package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type CreatePedidoParams struct {
	UsuarioID pgtype.Int8
	Mesa      string
	Cliente   string
}

const createPedido = `
INSERT INTO pedidos (usuario_id, status, mesa, cliente)
VALUES ($1, 'pending', $2, $3)
RETURNING id, usuario_id, status, mesa, cliente, created_at
`

func (q *Queries) CreatePedido(ctx context.Context, arg CreatePedidoParams) (Pedido, error) {
	var p Pedido
	err := q.db.QueryRow(ctx, createPedido, arg.UsuarioID, arg.Mesa, arg.Cliente).
		Scan(&p.ID, &p.UsuarioID, &p.Status, &p.Mesa, &p.Cliente, &p.CreatedAt)
	return p, err
}

type CreatePedidoItemParams struct {
	PedidoID    int64
	ProductID   int64
	ProductName string
	Quantity    int32
	UnitPrice   pgtype.Numeric
	Notes       pgtype.Text
}

const createPedidoItem = `
INSERT INTO pedido_items (pedido_id, product_id, product_name, quantity, unit_price, notes)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, pedido_id, product_id, product_name, quantity, unit_price, notes
`

func (q *Queries) CreatePedidoItem(ctx context.Context, arg CreatePedidoItemParams) (PedidoItem, error) {
	var it PedidoItem
	err := q.db.QueryRow(ctx, createPedidoItem,
		arg.PedidoID, arg.ProductID, arg.ProductName, arg.Quantity, arg.UnitPrice, arg.Notes).
		Scan(&it.ID, &it.PedidoID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.Notes)
	return it, err
}

const getPedido = `
SELECT id, usuario_id, status, mesa, cliente, created_at
FROM pedidos
WHERE id = $1
`

func (q *Queries) GetPedido(ctx context.Context, id int64) (Pedido, error) {
	var p Pedido
	err := q.db.QueryRow(ctx, getPedido, id).
		Scan(&p.ID, &p.UsuarioID, &p.Status, &p.Mesa, &p.Cliente, &p.CreatedAt)
	return p, err
}

type ListPedidosParams struct {
	Status string // empty = all
	Limit  int32
	Offset int32
}

const listPedidos = `
SELECT id, usuario_id, status, mesa, cliente, created_at
FROM pedidos
WHERE ($1 = '' OR status = $1::order_status)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

func (q *Queries) ListPedidos(ctx context.Context, arg ListPedidosParams) ([]Pedido, error) {
	rows, err := q.db.Query(ctx, listPedidos, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Pedido
	for rows.Next() {
		var p Pedido
		if err := rows.Scan(&p.ID, &p.UsuarioID, &p.Status, &p.Mesa, &p.Cliente, &p.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const listPedidoItemsByPedido = `
SELECT id, pedido_id, product_id, product_name, quantity, unit_price, notes
FROM pedido_items
WHERE pedido_id = $1
ORDER BY id
`

func (q *Queries) ListPedidoItemsByPedido(ctx context.Context, pedidoID int64) ([]PedidoItem, error) {
	rows, err := q.db.Query(ctx, listPedidoItemsByPedido, pedidoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PedidoItem
	for rows.Next() {
		var it PedidoItem
		if err := rows.Scan(&it.ID, &it.PedidoID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.Notes); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type UpdatePedidoStatusParams struct {
	ID     int64
	Status string
}

const updatePedidoStatus = `
UPDATE pedidos
SET status = $2::order_status
WHERE id = $1
RETURNING id, usuario_id, status, mesa, cliente, created_at
`

func (q *Queries) UpdatePedidoStatus(ctx context.Context, arg UpdatePedidoStatusParams) (Pedido, error) {
	var p Pedido
	err := q.db.QueryRow(ctx, updatePedidoStatus, arg.ID, arg.Status).
		Scan(&p.ID, &p.UsuarioID, &p.Status, &p.Mesa, &p.Cliente, &p.CreatedAt)
	return p, err
}

// DeletePedido removes an order only when its status allows deletion. The
// precondition is enforced in the statement itself so a concurrent status
// change cannot slip through between read and delete. Line items go with the
// header via ON DELETE CASCADE. Returns pgx.ErrNoRows when the order does not
// exist or is not deletable.
const deletePedido = `
DELETE FROM pedidos
WHERE id = $1 AND status IN ('delivered', 'cancelled')
RETURNING id
`

func (q *Queries) DeletePedido(ctx context.Context, id int64) (int64, error) {
	var deleted int64
	err := q.db.QueryRow(ctx, deletePedido, id).Scan(&deleted)
	return deleted, err
}
