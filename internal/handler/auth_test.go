package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pyc-restobar/api/internal/auth"
	"github.com/pyc-restobar/api/internal/database"
	"github.com/pyc-restobar/api/internal/handler"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret"

type mockAuthStore struct {
	createUsuarioFn     func(ctx context.Context, arg database.CreateUsuarioParams) (database.Usuario, error)
	getUsuarioByEmailFn func(ctx context.Context, email string) (database.Usuario, error)
}

func (m *mockAuthStore) CreateUsuario(ctx context.Context, arg database.CreateUsuarioParams) (database.Usuario, error) {
	if m.createUsuarioFn != nil {
		return m.createUsuarioFn(ctx, arg)
	}
	return database.Usuario{}, pgx.ErrNoRows
}

func (m *mockAuthStore) GetUsuarioByEmail(ctx context.Context, email string) (database.Usuario, error) {
	if m.getUsuarioByEmailFn != nil {
		return m.getUsuarioByEmailFn(ctx, email)
	}
	return database.Usuario{}, pgx.ErrNoRows
}

func authRouter(store *mockAuthStore) chi.Router {
	r := chi.NewRouter()
	h := handler.NewAuthHandler(store, testJWTSecret)
	h.RegisterRoutes(r)
	return r
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRegistro(t *testing.T) {
	var created database.CreateUsuarioParams
	store := &mockAuthStore{
		createUsuarioFn: func(ctx context.Context, arg database.CreateUsuarioParams) (database.Usuario, error) {
			created = arg
			return database.Usuario{
				ID:             1,
				Nombre:         arg.Nombre,
				Email:          arg.Email,
				HashedPassword: arg.HashedPassword,
				Role:           arg.Role,
			}, nil
		},
	}
	r := authRouter(store)

	req := jsonRequest(http.MethodPost, "/auth/registro",
		`{"nombre":"Ana","email":"ana@example.com","password":"secreta123"}`)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID     int64  `json:"id"`
			Nombre string `json:"nombre"`
			Email  string `json:"email"`
			Role   string `json:"role"`
		} `json:"user"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.User.Role != "CLIENTE" {
		t.Errorf("role: got %s, want CLIENTE", body.User.Role)
	}
	if created.Role != "CLIENTE" {
		t.Errorf("stored role: got %s, want CLIENTE", created.Role)
	}
	if created.HashedPassword == "secreta123" {
		t.Error("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.HashedPassword), []byte("secreta123")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}

	claims, err := auth.ValidateToken(testJWTSecret, body.AccessToken)
	if err != nil {
		t.Fatalf("returned token does not validate: %v", err)
	}
	if claims.UserID != 1 {
		t.Errorf("token user id: got %d, want 1", claims.UserID)
	}
}

func TestRegistroMissingFields(t *testing.T) {
	r := authRouter(&mockAuthStore{})

	req := jsonRequest(http.MethodPost, "/auth/registro",
		`{"nombre":"Ana","email":"ana@example.com"}`)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestRegistroDuplicateEmail(t *testing.T) {
	store := &mockAuthStore{
		createUsuarioFn: func(ctx context.Context, arg database.CreateUsuarioParams) (database.Usuario, error) {
			return database.Usuario{}, &pgconn.PgError{Code: "23505"}
		},
	}
	r := authRouter(store)

	req := jsonRequest(http.MethodPost, "/auth/registro",
		`{"nombre":"Ana","email":"ana@example.com","password":"secreta123"}`)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("secreta123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	store := &mockAuthStore{
		getUsuarioByEmailFn: func(ctx context.Context, email string) (database.Usuario, error) {
			if email != "ana@example.com" {
				return database.Usuario{}, pgx.ErrNoRows
			}
			return database.Usuario{
				ID:             1,
				Nombre:         "Ana",
				Email:          email,
				HashedPassword: string(hashed),
				Role:           "CLIENTE",
			}, nil
		},
	}
	r := authRouter(store)

	req := jsonRequest(http.MethodPost, "/auth/login",
		`{"email":"ana@example.com","password":"secreta123"}`)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := auth.ValidateToken(testJWTSecret, body.AccessToken); err != nil {
		t.Errorf("returned token does not validate: %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("secreta123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	store := &mockAuthStore{
		getUsuarioByEmailFn: func(ctx context.Context, email string) (database.Usuario, error) {
			return database.Usuario{ID: 1, Email: email, HashedPassword: string(hashed)}, nil
		},
	}
	r := authRouter(store)

	req := jsonRequest(http.MethodPost, "/auth/login",
		`{"email":"ana@example.com","password":"wrong"}`)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rec.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	r := authRouter(&mockAuthStore{})

	req := jsonRequest(http.MethodPost, "/auth/login",
		`{"email":"nobody@example.com","password":"whatever"}`)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rec.Code)
	}
}
