package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pyc-restobar/api/internal/catalog"
	"github.com/pyc-restobar/api/internal/enum"
)

// CatalogReader defines the resolver methods needed by the menu endpoints.
// Satisfied by *catalog.Resolver; narrow interface for testability.
type CatalogReader interface {
	ListAll(ctx context.Context) ([]catalog.Product, error)
	ListByCategory(ctx context.Context, category string) ([]catalog.Product, error)
	GroupByCategory(ctx context.Context) (map[string][]catalog.Product, error)
}

// CatalogHandler serves the public menu.
type CatalogHandler struct {
	resolver CatalogReader
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(resolver CatalogReader) *CatalogHandler {
	return &CatalogHandler{resolver: resolver}
}

// RegisterRoutes registers the public menu endpoints on the given Chi router.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/menu", h.Menu)
	r.Get("/categoria/{categoria}", h.Categoria)
}

type productResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	Image       string `json:"image,omitempty"`
	Category    string `json:"category,omitempty"`
	Legacy      bool   `json:"legacy,omitempty"`
}

// Home handles GET /. The landing page: the whole menu grouped by category.
func (h *CatalogHandler) Home(w http.ResponseWriter, r *http.Request) {
	groups, err := h.resolver.GroupByCategory(r.Context())
	if err != nil {
		log.Printf("ERROR: group catalog: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make(map[string][]productResponse, len(groups))
	for cat, products := range groups {
		resp[cat] = toProductResponses(products)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categorias": enum.Categories,
		"productos":  resp,
	})
}

// Menu handles GET /menu: the flat catalog, both tables merged.
func (h *CatalogHandler) Menu(w http.ResponseWriter, r *http.Request) {
	products, err := h.resolver.ListAll(r.Context())
	if err != nil {
		log.Printf("ERROR: list catalog: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]productResponse{
		"productos": toProductResponses(products),
	})
}

// Categoria handles GET /categoria/{categoria}.
func (h *CatalogHandler) Categoria(w http.ResponseWriter, r *http.Request) {
	categoria := chi.URLParam(r, "categoria")
	if !enum.IsValidCategory(categoria) {
		writeError(w, http.StatusNotFound, "categoria not found")
		return
	}

	products, err := h.resolver.ListByCategory(r.Context(), categoria)
	if err != nil {
		log.Printf("ERROR: list catalog by categoria: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categoria": categoria,
		"productos": toProductResponses(products),
	})
}

func toProductResponses(products []catalog.Product) []productResponse {
	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = productResponse{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price.StringFixed(2),
			Image:       p.Image,
			Category:    p.Category,
			Legacy:      p.Legacy,
		}
	}
	return resp
}
