package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pyc-restobar/api/internal/cart"
	"github.com/pyc-restobar/api/internal/catalog"
	"github.com/pyc-restobar/api/internal/config"
	"github.com/pyc-restobar/api/internal/database"
	"github.com/pyc-restobar/api/internal/enum"
	"github.com/pyc-restobar/api/internal/handler"
	mw "github.com/pyc-restobar/api/internal/middleware"
	"github.com/pyc-restobar/api/internal/service"
	"github.com/pyc-restobar/api/internal/ws"
)

// New creates a Chi router with all application routes wired up: the public
// menu, the session cart, staff order management, and admin catalog CRUD.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, carts cart.Store, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	resolver := catalog.NewResolver(queries)

	catalogHandler := handler.NewCatalogHandler(resolver)
	catalogHandler.RegisterRoutes(r)

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/pedidos", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	var broadcaster handler.EventBroadcaster
	if hub != nil {
		broadcaster = hub
	}

	// Session routes: the cart. A cookie identifies the cart; a bearer
	// token is optional and only attributes the checkout to a user.
	r.Group(func(r chi.Router) {
		r.Use(mw.Session(cfg.SessionTTL))
		r.Use(mw.OptionalAuth(cfg.JWTSecret))

		newStore := func(db database.DBTX) service.CheckoutStore {
			return database.New(db)
		}
		checkoutSvc := service.NewCheckoutService(pool, newStore)

		cartHandler := handler.NewCartHandler(carts, resolver, checkoutSvc, broadcaster)
		cartHandler.RegisterRoutes(r)
	})

	// Staff routes (ADMIN or MOZO)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleMozo))

		pedidoHandler := handler.NewPedidoHandler(queries, broadcaster)
		r.Route("/staff/pedidos", pedidoHandler.RegisterRoutes)
	})

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.RequireRole(enum.UserRoleAdmin))

		productHandler := handler.NewProductHandler(queries)
		r.Route("/admin", productHandler.RegisterRoutes)
	})

	return r
}
