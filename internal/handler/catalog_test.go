package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/pyc-restobar/api/internal/catalog"
	"github.com/pyc-restobar/api/internal/handler"
	"github.com/shopspring/decimal"
)

type mockCatalogReader struct {
	listAllFn         func(ctx context.Context) ([]catalog.Product, error)
	listByCategoryFn  func(ctx context.Context, category string) ([]catalog.Product, error)
	groupByCategoryFn func(ctx context.Context) (map[string][]catalog.Product, error)
}

func (m *mockCatalogReader) ListAll(ctx context.Context) ([]catalog.Product, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return []catalog.Product{}, nil
}

func (m *mockCatalogReader) ListByCategory(ctx context.Context, category string) ([]catalog.Product, error) {
	if m.listByCategoryFn != nil {
		return m.listByCategoryFn(ctx, category)
	}
	return []catalog.Product{}, nil
}

func (m *mockCatalogReader) GroupByCategory(ctx context.Context) (map[string][]catalog.Product, error) {
	if m.groupByCategoryFn != nil {
		return m.groupByCategoryFn(ctx)
	}
	return map[string][]catalog.Product{}, nil
}

func catalogRouter(reader *mockCatalogReader) chi.Router {
	r := chi.NewRouter()
	handler.NewCatalogHandler(reader).RegisterRoutes(r)
	return r
}

func menuProduct(id int64, name, price, category string, legacy bool) catalog.Product {
	d, _ := decimal.NewFromString(price)
	return catalog.Product{ID: id, Name: name, Price: d, Category: category, Legacy: legacy}
}

func TestMenuMergesBothTables(t *testing.T) {
	reader := &mockCatalogReader{
		listAllFn: func(ctx context.Context) ([]catalog.Product, error) {
			return []catalog.Product{
				menuProduct(3, "Hamburguesa", "12000.00", "platos_principales", false),
				menuProduct(1, "Milanesa con papas fritas", "10000.00", "platos_principales", true),
			}, nil
		},
	}
	r := catalogRouter(reader)

	req := httptest.NewRequest(http.MethodGet, "/menu", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Productos []struct {
			ID     int64  `json:"id"`
			Name   string `json:"name"`
			Price  string `json:"price"`
			Legacy bool   `json:"legacy"`
		} `json:"productos"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Productos) != 2 {
		t.Fatalf("productos: %+v", body.Productos)
	}
	if body.Productos[0].Price != "12000.00" {
		t.Errorf("price: got %s, want 12000.00", body.Productos[0].Price)
	}
	if !body.Productos[1].Legacy {
		t.Error("legacy product should be flagged")
	}
}

func TestHomeGroupsByCategory(t *testing.T) {
	reader := &mockCatalogReader{
		groupByCategoryFn: func(ctx context.Context) (map[string][]catalog.Product, error) {
			return map[string][]catalog.Product{
				"bebidas": {menuProduct(5, "Limonada", "2500.00", "bebidas", false)},
			}, nil
		},
	}
	r := catalogRouter(reader)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Categorias []string `json:"categorias"`
		Productos  map[string][]struct {
			Name string `json:"name"`
		} `json:"productos"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Categorias) == 0 {
		t.Error("categorias missing from home payload")
	}
	if len(body.Productos["bebidas"]) != 1 {
		t.Errorf("bebidas group: %+v", body.Productos)
	}
}

func TestCategoriaUnknownIs404(t *testing.T) {
	r := catalogRouter(&mockCatalogReader{})

	req := httptest.NewRequest(http.MethodGet, "/categoria/inventada", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rec.Code)
	}
}

func TestCategoriaFiltered(t *testing.T) {
	reader := &mockCatalogReader{
		listByCategoryFn: func(ctx context.Context, category string) ([]catalog.Product, error) {
			if category != "bebidas" {
				t.Errorf("category: got %s, want bebidas", category)
			}
			return []catalog.Product{menuProduct(5, "Limonada", "2500.00", "bebidas", false)}, nil
		},
	}
	r := catalogRouter(reader)

	req := httptest.NewRequest(http.MethodGet, "/categoria/bebidas", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}
}
