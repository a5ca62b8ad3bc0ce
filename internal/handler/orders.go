package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/pyc-restobar/api/internal/database"
	"github.com/pyc-restobar/api/internal/enum"
	"github.com/shopspring/decimal"
)

// PedidoStore defines the database methods needed by the staff order
// handlers. Satisfied by *database.Queries; narrow interface for testability.
type PedidoStore interface {
	GetPedido(ctx context.Context, id int64) (database.Pedido, error)
	ListPedidos(ctx context.Context, arg database.ListPedidosParams) ([]database.Pedido, error)
	ListPedidoItemsByPedido(ctx context.Context, pedidoID int64) ([]database.PedidoItem, error)
	UpdatePedidoStatus(ctx context.Context, arg database.UpdatePedidoStatusParams) (database.Pedido, error)
	DeletePedido(ctx context.Context, id int64) (int64, error)
}

// PedidoHandler handles the staff order endpoints.
type PedidoHandler struct {
	store PedidoStore
	hub   EventBroadcaster
}

// NewPedidoHandler creates a new PedidoHandler. hub may be nil.
func NewPedidoHandler(store PedidoStore, hub EventBroadcaster) *PedidoHandler {
	return &PedidoHandler{store: store, hub: hub}
}

// RegisterRoutes registers the staff order endpoints on the given Chi
// router. Expected to be mounted inside the staff-authenticated group.
func (h *PedidoHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/estado", h.UpdateEstado)
	r.Post("/{id}/eliminar", h.Eliminar)
}

// --- Response types ---

type pedidoItemResponse struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int32  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Notes       string `json:"notes,omitempty"`
}

type pedidoResponse struct {
	ID        int64                `json:"id"`
	UsuarioID *int64               `json:"usuario_id"`
	Status    string               `json:"status"`
	Mesa      string               `json:"mesa"`
	Cliente   string               `json:"cliente"`
	Total     string               `json:"total"`
	CreatedAt time.Time            `json:"created_at"`
	Items     []pedidoItemResponse `json:"items"`
}

type pedidoListResponse struct {
	Pedidos []pedidoResponse `json:"pedidos"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// --- Handlers ---

// List handles GET /staff/pedidos. Optional status filter and pagination;
// every order carries its line items so the dashboard needs one request.
func (h *PedidoHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	status := r.URL.Query().Get("estado")
	if status != "" && !enum.IsValidOrderStatus(status) {
		writeError(w, http.StatusBadRequest, "invalid estado")
		return
	}

	pedidos, err := h.store.ListPedidos(r.Context(), database.ListPedidosParams{
		Status: status,
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		log.Printf("ERROR: list pedidos: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]pedidoResponse, len(pedidos))
	for i, p := range pedidos {
		items, err := h.store.ListPedidoItemsByPedido(r.Context(), p.ID)
		if err != nil {
			log.Printf("ERROR: list pedido items: %v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		resp[i] = toPedidoResponse(p, items)
	}

	writeJSON(w, http.StatusOK, pedidoListResponse{
		Pedidos: resp,
		Limit:   limit,
		Offset:  offset,
	})
}

// Get handles GET /staff/pedidos/{id}.
func (h *PedidoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pedido ID")
		return
	}

	pedido, err := h.store.GetPedido(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "pedido not found")
			return
		}
		log.Printf("ERROR: get pedido: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	items, err := h.store.ListPedidoItemsByPedido(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list pedido items: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toPedidoResponse(pedido, items))
}

// UpdateEstado handles POST /staff/pedidos/{id}/estado. Any of the five
// statuses may be set regardless of the current one; validation is
// membership only.
func (h *PedidoHandler) UpdateEstado(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pedido ID")
		return
	}

	estado := estadoFromRequest(r)
	if estado == "" {
		writeError(w, http.StatusBadRequest, "estado is required")
		return
	}
	if !enum.IsValidOrderStatus(estado) {
		writeError(w, http.StatusBadRequest, "invalid estado")
		return
	}

	updated, err := h.store.UpdatePedidoStatus(r.Context(), database.UpdatePedidoStatusParams{
		ID:     id,
		Status: estado,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "pedido not found")
			return
		}
		log.Printf("ERROR: update pedido status: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.hub != nil {
		h.hub.BroadcastOrderStatus(updated.ID, updated.Status)
	}

	items, err := h.store.ListPedidoItemsByPedido(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list pedido items: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toPedidoResponse(updated, items))
}

// Eliminar handles POST /staff/pedidos/{id}/eliminar. The DELETE statement
// enforces the precondition atomically: only delivered or cancelled orders
// go; anything else is a conflict reported with the current status.
func (h *PedidoHandler) Eliminar(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pedido ID")
		return
	}

	_, err = h.store.DeletePedido(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Nothing deleted: the order is missing or not deletable.
			// Fetch to give a better error message.
			current, fetchErr := h.store.GetPedido(r.Context(), id)
			if fetchErr != nil {
				if errors.Is(fetchErr, pgx.ErrNoRows) {
					writeError(w, http.StatusNotFound, "pedido not found")
					return
				}
				log.Printf("ERROR: get pedido for eliminar: %v", fetchErr)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			writeError(w, http.StatusConflict,
				"pedido in status "+current.Status+" cannot be deleted")
			return
		}
		log.Printf("ERROR: delete pedido: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": id})
}

// --- Helpers ---

// estadoFromRequest reads the new status from a form field or a JSON body,
// whichever the client sent.
func estadoFromRequest(r *http.Request) string {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Estado string `json:"estado"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return ""
		}
		return body.Estado
	}
	if err := r.ParseForm(); err != nil {
		return ""
	}
	return r.PostFormValue("estado")
}

func toPedidoResponse(p database.Pedido, items []database.PedidoItem) pedidoResponse {
	resp := pedidoResponse{
		ID:        p.ID,
		Status:    p.Status,
		Mesa:      p.Mesa,
		Cliente:   p.Cliente,
		CreatedAt: p.CreatedAt,
		Items:     make([]pedidoItemResponse, len(items)),
	}
	if p.UsuarioID.Valid {
		resp.UsuarioID = &p.UsuarioID.Int64
	}

	total := decimal.Zero
	for i, it := range items {
		resp.Items[i] = pedidoItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   numericToString(it.UnitPrice),
		}
		if it.Notes.Valid {
			resp.Items[i].Notes = it.Notes.String
		}
		price, err := decimal.NewFromString(numericToString(it.UnitPrice))
		if err == nil {
			total = total.Add(price.Mul(decimal.NewFromInt32(it.Quantity)))
		}
	}
	resp.Total = total.StringFixed(2)
	return resp
}
