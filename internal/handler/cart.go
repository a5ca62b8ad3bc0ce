package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pyc-restobar/api/internal/cart"
	"github.com/pyc-restobar/api/internal/catalog"
	"github.com/pyc-restobar/api/internal/middleware"
	"github.com/pyc-restobar/api/internal/service"
	"github.com/shopspring/decimal"
)

// CheckoutServicer defines the service methods needed by the cart handlers.
// Satisfied by *service.CheckoutService; narrow interface for testability.
type CheckoutServicer interface {
	Checkout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
}

// ProductFinder defines the resolver lookups the cart view needs.
// Satisfied by *catalog.Resolver.
type ProductFinder interface {
	FindByID(ctx context.Context, id int64) (catalog.Product, error)
	FindByName(ctx context.Context, name string) (catalog.Product, error)
}

// EventBroadcaster pushes order events to the staff websocket hub.
// Satisfied by *ws.Hub; may be nil when the hub is disabled.
type EventBroadcaster interface {
	BroadcastOrderCreated(pedidoID int64, mesa string, total string)
	BroadcastOrderStatus(pedidoID int64, status string)
}

// CartHandler handles the session cart endpoints. All mutations accept form
// encoding because the menu frontend posts plain HTML forms.
type CartHandler struct {
	carts    cart.Store
	resolver ProductFinder
	svc      CheckoutServicer
	hub      EventBroadcaster
}

// NewCartHandler creates a new CartHandler. hub may be nil.
func NewCartHandler(carts cart.Store, resolver ProductFinder, svc CheckoutServicer, hub EventBroadcaster) *CartHandler {
	return &CartHandler{carts: carts, resolver: resolver, svc: svc, hub: hub}
}

// RegisterRoutes registers the cart endpoints on the given Chi router.
// Expected to be mounted inside the session-cookie group.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cart", h.View)
	r.Post("/cart/add/{productID}", h.Add)
	r.Post("/cart/add/temp", h.AddTemp)
	r.Post("/cart/update", h.Update)
	r.Post("/cart/remove/{productID}", h.Remove)
	r.Post("/cart/checkout", h.Checkout)
}

// --- Response types ---

type cartEntryResponse struct {
	Ref       string `json:"ref"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
	Notes     string `json:"notes,omitempty"`
	Temporary bool   `json:"temporary,omitempty"`
}

type cartResponse struct {
	Entries       []cartEntryResponse `json:"entries"`
	TotalQuantity int                 `json:"total_quantity"`
	Total         string              `json:"total"`
	Mesa          string              `json:"mesa,omitempty"`
	Cliente       string              `json:"cliente,omitempty"`
}

type checkoutResponse struct {
	PedidoID int64    `json:"pedido_id"`
	Status   string   `json:"status"`
	Items    int      `json:"items"`
	Total    string   `json:"total"`
	Skipped  []string `json:"skipped,omitempty"`
}

// --- Handlers ---

// Add handles POST /cart/add/{productID}. The reference is not validated
// against the catalog here; stale refs are dropped at view and checkout time.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "productID")
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	h.mutate(w, r, func(c *cart.Cart) {
		c.Add(ref, cart.ParseQuantity(r.PostFormValue("cantidad")), r.PostFormValue("notas"))
	})
}

// AddTemp handles POST /cart/add/temp: an ad hoc dish not (yet) in the
// catalog, keyed by a hash of its name. The submitted price is display-only.
func (h *CartHandler) AddTemp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	nombre := r.PostFormValue("nombre")
	if nombre == "" {
		writeError(w, http.StatusBadRequest, "nombre is required")
		return
	}
	precio, err := decimal.NewFromString(r.PostFormValue("precio"))
	if err != nil {
		precio = decimal.Zero
	}

	h.mutate(w, r, func(c *cart.Cart) {
		c.AddTemporary(nombre, precio, cart.ParseQuantity(r.PostFormValue("cantidad")), r.PostFormValue("categoria"))
	})
}

// Update handles POST /cart/update: the bulk quantity form. Every qty_<ref>
// field is applied independently; zero or negative removes that entry.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	h.mutate(w, r, func(c *cart.Cart) {
		for field, values := range r.PostForm {
			ref, ok := strings.CutPrefix(field, "qty_")
			if !ok || len(values) == 0 {
				continue
			}
			// An explicit zero or negative removes the entry; unparsable
			// input defaults to 1 rather than dropping it.
			qty := cart.ParseQuantity(values[0])
			if n, err := strconv.Atoi(strings.TrimSpace(values[0])); err == nil && n <= 0 {
				qty = 0
			}
			c.SetQuantity(ref, qty)
		}
	})
}

// Remove handles POST /cart/remove/{productID}.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "productID")
	h.mutate(w, r, func(c *cart.Cart) {
		c.Remove(ref)
	})
}

// View handles GET /cart. Regular entries are priced live against the
// catalog and dropped from the view when they no longer resolve; temporary
// entries fall back to their remembered price.
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionFromContext(r.Context())
	c, err := h.carts.Load(r.Context(), sessionID)
	if err != nil {
		log.Printf("ERROR: load cart: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, h.toCartResponse(r.Context(), c))
}

// Checkout handles POST /cart/checkout. Mesa and cliente come from the form,
// falling back to values remembered in the cart; on success the cart is
// cleared and an order_created event goes out to staff.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	sessionID := middleware.SessionFromContext(r.Context())
	c, err := h.carts.Load(r.Context(), sessionID)
	if err != nil {
		log.Printf("ERROR: load cart: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	mesa := r.PostFormValue("mesa")
	cliente := r.PostFormValue("cliente")

	// Remember the submitted metadata so a failed attempt pre-fills the
	// next checkout form.
	if mesa != "" || cliente != "" {
		if mesa != "" {
			c.Mesa = mesa
		}
		if cliente != "" {
			c.Cliente = cliente
		}
		if err := h.carts.Save(r.Context(), sessionID, c); err != nil {
			log.Printf("ERROR: save cart: %v", err)
		}
	}

	usuarioID := pgtype.Int8{}
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		usuarioID = pgtype.Int8{Int64: claims.UserID, Valid: true}
	}

	result, err := h.svc.Checkout(r.Context(), service.CheckoutRequest{
		Cart:      c,
		Mesa:      mesa,
		Cliente:   cliente,
		UsuarioID: usuarioID,
	})
	if err != nil {
		if isCheckoutValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("ERROR: checkout: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	for _, name := range result.Skipped {
		log.Printf("WARN: checkout session %s: entry %q no longer in catalog, skipped", sessionID, name)
	}

	// The order is committed; a failure to clear the cart must not undo it.
	if err := h.carts.Delete(r.Context(), sessionID); err != nil {
		log.Printf("ERROR: clear cart after checkout: %v", err)
	}

	if h.hub != nil {
		h.hub.BroadcastOrderCreated(result.Pedido.ID, result.Pedido.Mesa, result.Total.StringFixed(2))
	}

	writeJSON(w, http.StatusCreated, checkoutResponse{
		PedidoID: result.Pedido.ID,
		Status:   result.Pedido.Status,
		Items:    len(result.Items),
		Total:    result.Total.StringFixed(2),
		Skipped:  result.Skipped,
	})
}

// --- Helpers ---

// mutate runs the load-modify-save cycle shared by all cart mutations and
// responds with the updated cart.
func (h *CartHandler) mutate(w http.ResponseWriter, r *http.Request, fn func(c *cart.Cart)) {
	sessionID := middleware.SessionFromContext(r.Context())
	c, err := h.carts.Load(r.Context(), sessionID)
	if err != nil {
		log.Printf("ERROR: load cart: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	fn(c)

	if err := h.carts.Save(r.Context(), sessionID, c); err != nil {
		log.Printf("ERROR: save cart: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, h.toCartResponse(r.Context(), c))
}

func (h *CartHandler) toCartResponse(ctx context.Context, c *cart.Cart) cartResponse {
	resp := cartResponse{
		Entries:       []cartEntryResponse{},
		TotalQuantity: c.TotalQuantity(),
		Mesa:          c.Mesa,
		Cliente:       c.Cliente,
	}
	total := decimal.Zero

	for _, ref := range sortedCartRefs(c) {
		e := c.Entries[ref]
		if e == nil {
			continue
		}
		qty := e.Quantity
		if qty < 1 {
			qty = 1
		}

		name, price, ok := h.priceEntry(ctx, ref, e)
		if !ok {
			continue
		}

		lineTotal := price.Mul(decimal.NewFromInt(int64(qty)))
		total = total.Add(lineTotal)
		resp.Entries = append(resp.Entries, cartEntryResponse{
			Ref:       ref,
			Name:      name,
			Quantity:  qty,
			UnitPrice: price.StringFixed(2),
			LineTotal: lineTotal.StringFixed(2),
			Notes:     e.Notes,
			Temporary: e.Temporary,
		})
	}

	resp.Total = total.StringFixed(2)
	return resp
}

// priceEntry finds the display name and live price for one cart entry.
// Regular entries that no longer resolve are excluded from the view;
// temporary ones keep their remembered price until checkout decides.
func (h *CartHandler) priceEntry(ctx context.Context, ref string, e *cart.Entry) (string, decimal.Decimal, bool) {
	if e.Temporary {
		if p, err := h.resolver.FindByName(ctx, e.Name); err == nil {
			return p.Name, p.Price, true
		}
		return e.Name, e.Price, true
	}

	id, ok := parseID(ref)
	if !ok {
		return "", decimal.Zero, false
	}
	p, err := h.resolver.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			log.Printf("ERROR: resolve cart entry %s: %v", ref, err)
		}
		return "", decimal.Zero, false
	}
	return p.Name, p.Price, true
}

func sortedCartRefs(c *cart.Cart) []string {
	refs := make([]string, 0, len(c.Entries))
	for ref := range c.Entries {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

func parseID(ref string) (int64, bool) {
	id, err := strconv.ParseInt(ref, 10, 64)
	return id, err == nil
}

func isCheckoutValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyCart) ||
		errors.Is(err, service.ErrMissingMesa) ||
		errors.Is(err, service.ErrMissingCliente) ||
		errors.Is(err, service.ErrNothingResolved)
}
