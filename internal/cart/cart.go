// Package cart holds a session's pending selections before checkout. The
// Cart is a plain value: handlers load it from a Store, mutate it, and save
// it back. Quantities are client-editable, low-stakes state, so mutation
// never fails on malformed input — it clamps and proceeds.
package cart

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// NotesSeparator joins notes when the same product is added again.
const NotesSeparator = "; "

// Entry is one selected product. Temporary entries are not backed by a
// catalog id; they carry their own name/price/category and are re-resolved
// by name at checkout.
type Entry struct {
	Quantity  int             `json:"quantity"`
	Notes     string          `json:"notes,omitempty"`
	Temporary bool            `json:"temporary,omitempty"`
	Name      string          `json:"name,omitempty"`
	Price     decimal.Decimal `json:"price,omitempty"`
	Category  string          `json:"category,omitempty"`
}

// Cart maps product references (numeric id as string, or a temp_<hash> key)
// to entries. Mesa and Cliente are checkout metadata remembered across
// requests until checkout clears the whole cart.
type Cart struct {
	Entries map[string]*Entry `json:"entries"`
	Mesa    string            `json:"mesa,omitempty"`
	Cliente string            `json:"cliente,omitempty"`
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{Entries: make(map[string]*Entry)}
}

// ParseQuantity interprets client quantity input. Non-numeric or
// non-positive values default to 1.
func ParseQuantity(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

// TempKey derives the stable cart key for a temporary entry, so repeated
// temp-adds of the same name accumulate into one entry.
func TempKey(name string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	return fmt.Sprintf("temp_%08x", h.Sum32())
}

// IsTempKey reports whether ref is a temporary-entry key.
func IsTempKey(ref string) bool {
	return strings.HasPrefix(ref, "temp_")
}

// Add puts qty units of ref into the cart. Quantities accumulate; notes
// accumulate too, joined with NotesSeparator. qty <= 0 counts as 1.
func (c *Cart) Add(ref string, qty int, notes string) {
	if qty <= 0 {
		qty = 1
	}
	if e, ok := c.Entries[ref]; ok {
		e.Quantity += qty
		if notes != "" {
			if e.Notes != "" {
				e.Notes += NotesSeparator + notes
			} else {
				e.Notes = notes
			}
		}
		return
	}
	c.Entries[ref] = &Entry{Quantity: qty, Notes: notes}
}

// AddTemporary creates or increments an ad hoc entry keyed by a hash of
// name. Returns the cart key. The denormalized price is display-only; the
// checkout pipeline re-resolves temporary entries by name.
func (c *Cart) AddTemporary(name string, price decimal.Decimal, qty int, category string) string {
	if qty <= 0 {
		qty = 1
	}
	key := TempKey(name)
	if e, ok := c.Entries[key]; ok {
		e.Quantity += qty
		return key
	}
	c.Entries[key] = &Entry{
		Quantity:  qty,
		Temporary: true,
		Name:      name,
		Price:     price,
		Category:  category,
	}
	return key
}

// SetQuantity replaces the quantity for ref. qty <= 0 removes the entry;
// setting a quantity on an absent ref is a no-op.
func (c *Cart) SetQuantity(ref string, qty int) {
	if qty <= 0 {
		delete(c.Entries, ref)
		return
	}
	if e, ok := c.Entries[ref]; ok {
		e.Quantity = qty
	}
}

// Remove drops ref from the cart. No-op when absent.
func (c *Cart) Remove(ref string) {
	delete(c.Entries, ref)
}

// TotalQuantity sums all entry quantities for the cart badge. An entry with
// a malformed (non-positive) quantity counts as 1 rather than breaking the
// badge.
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, e := range c.Entries {
		if e == nil || e.Quantity < 1 {
			total++
			continue
		}
		total += e.Quantity
	}
	return total
}

// Len returns the number of distinct entries.
func (c *Cart) Len() int {
	return len(c.Entries)
}

// IsEmpty reports whether the cart has no entries.
func (c *Cart) IsEmpty() bool {
	return len(c.Entries) == 0
}

// Clear empties the cart and its checkout metadata. Called exactly once,
// after a successful checkout commit.
func (c *Cart) Clear() {
	c.Entries = make(map[string]*Entry)
	c.Mesa = ""
	c.Cliente = ""
}
