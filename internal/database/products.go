package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const listProducts = `
SELECT id, name, description, price, image, category, created_at, updated_at
FROM products
ORDER BY category NULLS LAST, name
`

func (q *Queries) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx, listProducts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Image, &p.Category, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const listProductsByCategory = `
SELECT id, name, description, price, image, category, created_at, updated_at
FROM products
WHERE category = $1
ORDER BY name
`

func (q *Queries) ListProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	rows, err := q.db.Query(ctx, listProductsByCategory, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Image, &p.Category, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const getProduct = `
SELECT id, name, description, price, image, category, created_at, updated_at
FROM products
WHERE id = $1
`

func (q *Queries) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := q.db.QueryRow(ctx, getProduct, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Image, &p.Category, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const getProductByName = `
SELECT id, name, description, price, image, category, created_at, updated_at
FROM products
WHERE name = $1
ORDER BY id
LIMIT 1
`

func (q *Queries) GetProductByName(ctx context.Context, name string) (Product, error) {
	var p Product
	err := q.db.QueryRow(ctx, getProductByName, name).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Image, &p.Category, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

type CreateProductParams struct {
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	Image       pgtype.Text
	Category    pgtype.Text
}

const createProduct = `
INSERT INTO products (name, description, price, image, category)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, name, description, price, image, category, created_at, updated_at
`

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	var p Product
	err := q.db.QueryRow(ctx, createProduct,
		arg.Name, arg.Description, arg.Price, arg.Image, arg.Category).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Image, &p.Category, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

type UpdateProductParams struct {
	ID          int64
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	Image       pgtype.Text
	Category    pgtype.Text
}

const updateProduct = `
UPDATE products
SET name = $2, description = $3, price = $4, image = $5, category = $6,
    updated_at = now()
WHERE id = $1
RETURNING id, name, description, price, image, category, created_at, updated_at
`

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	var p Product
	err := q.db.QueryRow(ctx, updateProduct,
		arg.ID, arg.Name, arg.Description, arg.Price, arg.Image, arg.Category).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Image, &p.Category, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const deleteProduct = `
DELETE FROM products WHERE id = $1 RETURNING id
`

func (q *Queries) DeleteProduct(ctx context.Context, id int64) (int64, error) {
	var deleted int64
	err := q.db.QueryRow(ctx, deleteProduct, id).Scan(&deleted)
	return deleted, err
}

// --- Legacy productos table ---

const listProductos = `
SELECT id, nombre, descripcion, precio, imagen, categoria
FROM productos
ORDER BY categoria NULLS LAST, nombre
`

func (q *Queries) ListProductos(ctx context.Context) ([]Producto, error) {
	rows, err := q.db.Query(ctx, listProductos)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Producto
	for rows.Next() {
		var p Producto
		if err := rows.Scan(&p.ID, &p.Nombre, &p.Descripcion, &p.Precio, &p.Imagen, &p.Categoria); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const listProductosByCategoria = `
SELECT id, nombre, descripcion, precio, imagen, categoria
FROM productos
WHERE categoria = $1
ORDER BY nombre
`

func (q *Queries) ListProductosByCategoria(ctx context.Context, categoria string) ([]Producto, error) {
	rows, err := q.db.Query(ctx, listProductosByCategoria, categoria)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Producto
	for rows.Next() {
		var p Producto
		if err := rows.Scan(&p.ID, &p.Nombre, &p.Descripcion, &p.Precio, &p.Imagen, &p.Categoria); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const getProducto = `
SELECT id, nombre, descripcion, precio, imagen, categoria
FROM productos
WHERE id = $1
`

func (q *Queries) GetProducto(ctx context.Context, id int64) (Producto, error) {
	var p Producto
	err := q.db.QueryRow(ctx, getProducto, id).
		Scan(&p.ID, &p.Nombre, &p.Descripcion, &p.Precio, &p.Imagen, &p.Categoria)
	return p, err
}

const getProductoByNombre = `
SELECT id, nombre, descripcion, precio, imagen, categoria
FROM productos
WHERE nombre = $1
ORDER BY id
LIMIT 1
`

func (q *Queries) GetProductoByNombre(ctx context.Context, nombre string) (Producto, error) {
	var p Producto
	err := q.db.QueryRow(ctx, getProductoByNombre, nombre).
		Scan(&p.ID, &p.Nombre, &p.Descripcion, &p.Precio, &p.Imagen, &p.Categoria)
	return p, err
}

type CreateProductoParams struct {
	Nombre      string
	Descripcion pgtype.Text
	Precio      pgtype.Numeric
	Imagen      pgtype.Text
	Categoria   pgtype.Text
}

const createProducto = `
INSERT INTO productos (nombre, descripcion, precio, imagen, categoria)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, nombre, descripcion, precio, imagen, categoria
`

func (q *Queries) CreateProducto(ctx context.Context, arg CreateProductoParams) (Producto, error) {
	var p Producto
	err := q.db.QueryRow(ctx, createProducto,
		arg.Nombre, arg.Descripcion, arg.Precio, arg.Imagen, arg.Categoria).
		Scan(&p.ID, &p.Nombre, &p.Descripcion, &p.Precio, &p.Imagen, &p.Categoria)
	return p, err
}

type UpdateProductoParams struct {
	ID          int64
	Nombre      string
	Descripcion pgtype.Text
	Precio      pgtype.Numeric
	Imagen      pgtype.Text
	Categoria   pgtype.Text
}

const updateProducto = `
UPDATE productos
SET nombre = $2, descripcion = $3, precio = $4, imagen = $5, categoria = $6
WHERE id = $1
RETURNING id, nombre, descripcion, precio, imagen, categoria
`

func (q *Queries) UpdateProducto(ctx context.Context, arg UpdateProductoParams) (Producto, error) {
	var p Producto
	err := q.db.QueryRow(ctx, updateProducto,
		arg.ID, arg.Nombre, arg.Descripcion, arg.Precio, arg.Imagen, arg.Categoria).
		Scan(&p.ID, &p.Nombre, &p.Descripcion, &p.Precio, &p.Imagen, &p.Categoria)
	return p, err
}

const deleteProducto = `
DELETE FROM productos WHERE id = $1 RETURNING id
`

func (q *Queries) DeleteProducto(ctx context.Context, id int64) (int64, error) {
	var deleted int64
	err := q.db.QueryRow(ctx, deleteProducto, id).Scan(&deleted)
	return deleted, err
}
