package enum

// ── Order statuses (enum constrained in DB) ──

const (
	OrderStatusPending       = "pending"
	OrderStatusInPreparation = "in_preparation"
	OrderStatusReady         = "ready"
	OrderStatusDelivered     = "delivered"
	OrderStatusCancelled     = "cancelled"
)

// OrderStatuses lists every valid order status. Staff may set any of these
// on any order; only deletion is gated (delivered/cancelled).
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusInPreparation,
	OrderStatusReady,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// IsValidOrderStatus reports whether s is one of the five order statuses.
func IsValidOrderStatus(s string) bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsDeletableOrderStatus reports whether an order in status s may be deleted.
func IsDeletableOrderStatus(s string) bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// ── User roles (CHECK constrained in DB) ──

const (
	UserRoleAdmin   = "ADMIN"
	UserRoleMozo    = "MOZO"
	UserRoleCliente = "CLIENTE"
)

// IsStaffRole reports whether the role may manage orders.
func IsStaffRole(role string) bool {
	return role == UserRoleAdmin || role == UserRoleMozo
}

// ── Product categories (configurable labels, no DB constraint) ──

const (
	CategoryEntradas          = "entradas"
	CategoryPlatosPrincipales = "platos_principales"
	CategoryBebidas           = "bebidas"
	CategoryPostres           = "postres"
	CategoryGeneral           = "general"
)

// Categories lists the menu categories in display order.
var Categories = []string{
	CategoryEntradas,
	CategoryPlatosPrincipales,
	CategoryBebidas,
	CategoryPostres,
	CategoryGeneral,
}

// IsValidCategory reports whether c is a known category. The empty string is
// accepted: legacy rows predate the category column.
func IsValidCategory(c string) bool {
	if c == "" {
		return true
	}
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}
