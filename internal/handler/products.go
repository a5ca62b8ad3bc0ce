package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pyc-restobar/api/internal/database"
	"github.com/pyc-restobar/api/internal/enum"
	"github.com/shopspring/decimal"
)

// ProductStore defines the database methods needed by the admin catalog
// handlers. Satisfied by *database.Queries; narrow interface for testability.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]database.Product, error)
	CreateProduct(ctx context.Context, arg database.CreateProductParams) (database.Product, error)
	UpdateProduct(ctx context.Context, arg database.UpdateProductParams) (database.Product, error)
	DeleteProduct(ctx context.Context, id int64) (int64, error)
	ListProductos(ctx context.Context) ([]database.Producto, error)
	CreateProducto(ctx context.Context, arg database.CreateProductoParams) (database.Producto, error)
	UpdateProducto(ctx context.Context, arg database.UpdateProductoParams) (database.Producto, error)
	DeleteProducto(ctx context.Context, id int64) (int64, error)
}

// ProductHandler handles admin CRUD over both catalog tables.
type ProductHandler struct {
	store ProductStore
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(store ProductStore) *ProductHandler {
	return &ProductHandler{store: store}
}

// RegisterRoutes registers the admin catalog endpoints on the given Chi
// router. Expected to be mounted inside the admin-role group.
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/productos", h.List)
	r.Post("/productos", h.Create)
	r.Put("/productos/{id}", h.Update)
	r.Delete("/productos/{id}", h.Delete)

	// Legacy table. New dishes belong in the primary table; these exist so
	// the rows migrated from the old app stay editable.
	r.Get("/productos/legacy", h.ListLegacy)
	r.Post("/productos/legacy", h.CreateLegacy)
	r.Put("/productos/legacy/{id}", h.UpdateLegacy)
	r.Delete("/productos/legacy/{id}", h.DeleteLegacy)
}

// --- Request types ---

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Image       string `json:"image"`
	Category    string `json:"category"`
}

// validate checks the shared invariants of both tables. Returns the parsed
// price on success.
func (req *productRequest) validate() (decimal.Decimal, string) {
	if req.Name == "" {
		return decimal.Zero, "name is required"
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return decimal.Zero, "invalid price"
	}
	if price.IsNegative() {
		return decimal.Zero, "price must be >= 0"
	}
	if !enum.IsValidCategory(req.Category) {
		return decimal.Zero, "invalid category"
	}
	return price, ""
}

type adminProductResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	Image       string `json:"image,omitempty"`
	Category    string `json:"category,omitempty"`
	Legacy      bool   `json:"legacy,omitempty"`
}

// --- Primary table handlers ---

// List handles GET /admin/productos.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		log.Printf("ERROR: list products: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	resp := make([]adminProductResponse, len(products))
	for i, p := range products {
		resp[i] = dbProductToResponse(p)
	}
	writeJSON(w, http.StatusOK, map[string][]adminProductResponse{"productos": resp})
}

// Create handles POST /admin/productos.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, price, ok := h.decodeAndValidate(w, r)
	if !ok {
		return
	}

	p, err := h.store.CreateProduct(r.Context(), database.CreateProductParams{
		Name:        req.Name,
		Description: optionalText(req.Description),
		Price:       decimalToNumeric(price),
		Image:       optionalText(req.Image),
		Category:    optionalText(req.Category),
	})
	if err != nil {
		log.Printf("ERROR: create product: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, dbProductToResponse(p))
}

// Update handles PUT /admin/productos/{id}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product ID")
		return
	}
	req, price, ok := h.decodeAndValidate(w, r)
	if !ok {
		return
	}

	p, err := h.store.UpdateProduct(r.Context(), database.UpdateProductParams{
		ID:          id,
		Name:        req.Name,
		Description: optionalText(req.Description),
		Price:       decimalToNumeric(price),
		Image:       optionalText(req.Image),
		Category:    optionalText(req.Category),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		log.Printf("ERROR: update product: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, dbProductToResponse(p))
}

// Delete handles DELETE /admin/productos/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if _, err := h.store.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		log.Printf("ERROR: delete product: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": id})
}

// --- Legacy table handlers ---

// ListLegacy handles GET /admin/productos/legacy.
func (h *ProductHandler) ListLegacy(w http.ResponseWriter, r *http.Request) {
	productos, err := h.store.ListProductos(r.Context())
	if err != nil {
		log.Printf("ERROR: list productos: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	resp := make([]adminProductResponse, len(productos))
	for i, p := range productos {
		resp[i] = dbProductoToResponse(p)
	}
	writeJSON(w, http.StatusOK, map[string][]adminProductResponse{"productos": resp})
}

// CreateLegacy handles POST /admin/productos/legacy.
func (h *ProductHandler) CreateLegacy(w http.ResponseWriter, r *http.Request) {
	req, price, ok := h.decodeAndValidate(w, r)
	if !ok {
		return
	}

	p, err := h.store.CreateProducto(r.Context(), database.CreateProductoParams{
		Nombre:      req.Name,
		Descripcion: optionalText(req.Description),
		Precio:      decimalToNumeric(price),
		Imagen:      optionalText(req.Image),
		Categoria:   optionalText(req.Category),
	})
	if err != nil {
		log.Printf("ERROR: create producto: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, dbProductoToResponse(p))
}

// UpdateLegacy handles PUT /admin/productos/legacy/{id}.
func (h *ProductHandler) UpdateLegacy(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product ID")
		return
	}
	req, price, ok := h.decodeAndValidate(w, r)
	if !ok {
		return
	}

	p, err := h.store.UpdateProducto(r.Context(), database.UpdateProductoParams{
		ID:          id,
		Nombre:      req.Name,
		Descripcion: optionalText(req.Description),
		Precio:      decimalToNumeric(price),
		Imagen:      optionalText(req.Image),
		Categoria:   optionalText(req.Category),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "producto not found")
			return
		}
		log.Printf("ERROR: update producto: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, dbProductoToResponse(p))
}

// DeleteLegacy handles DELETE /admin/productos/legacy/{id}.
func (h *ProductHandler) DeleteLegacy(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if _, err := h.store.DeleteProducto(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "producto not found")
			return
		}
		log.Printf("ERROR: delete producto: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": id})
}

// --- Helpers ---

func (h *ProductHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request) (productRequest, decimal.Decimal, bool) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, decimal.Zero, false
	}
	price, msg := req.validate()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return req, decimal.Zero, false
	}
	return req, price, true
}

func optionalText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

func dbProductToResponse(p database.Product) adminProductResponse {
	resp := adminProductResponse{
		ID:    p.ID,
		Name:  p.Name,
		Price: numericToString(p.Price),
	}
	if p.Description.Valid {
		resp.Description = p.Description.String
	}
	if p.Image.Valid {
		resp.Image = p.Image.String
	}
	if p.Category.Valid {
		resp.Category = p.Category.String
	}
	return resp
}

func dbProductoToResponse(p database.Producto) adminProductResponse {
	resp := adminProductResponse{
		ID:     p.ID,
		Name:   p.Nombre,
		Price:  numericToString(p.Precio),
		Legacy: true,
	}
	if p.Descripcion.Valid {
		resp.Description = p.Descripcion.String
	}
	if p.Imagen.Valid {
		resp.Image = p.Imagen.String
	}
	if p.Categoria.Valid {
		resp.Category = p.Categoria.String
	}
	return resp
}
