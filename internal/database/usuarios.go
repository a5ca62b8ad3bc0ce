package database

import "context"

type CreateUsuarioParams struct {
	Nombre         string
	Email          string
	HashedPassword string
	Role           string
}

const createUsuario = `
INSERT INTO usuarios (nombre, email, hashed_password, role)
VALUES ($1, $2, $3, $4)
RETURNING id, nombre, email, hashed_password, role, created_at
`

func (q *Queries) CreateUsuario(ctx context.Context, arg CreateUsuarioParams) (Usuario, error) {
	var u Usuario
	err := q.db.QueryRow(ctx, createUsuario,
		arg.Nombre, arg.Email, arg.HashedPassword, arg.Role).
		Scan(&u.ID, &u.Nombre, &u.Email, &u.HashedPassword, &u.Role, &u.CreatedAt)
	return u, err
}

const getUsuarioByEmail = `
SELECT id, nombre, email, hashed_password, role, created_at
FROM usuarios
WHERE email = $1
`

func (q *Queries) GetUsuarioByEmail(ctx context.Context, email string) (Usuario, error) {
	var u Usuario
	err := q.db.QueryRow(ctx, getUsuarioByEmail, email).
		Scan(&u.ID, &u.Nombre, &u.Email, &u.HashedPassword, &u.Role, &u.CreatedAt)
	return u, err
}

const getUsuarioByID = `
SELECT id, nombre, email, hashed_password, role, created_at
FROM usuarios
WHERE id = $1
`

func (q *Queries) GetUsuarioByID(ctx context.Context, id int64) (Usuario, error) {
	var u Usuario
	err := q.db.QueryRow(ctx, getUsuarioByID, id).
		Scan(&u.ID, &u.Nombre, &u.Email, &u.HashedPassword, &u.Role, &u.CreatedAt)
	return u, err
}
