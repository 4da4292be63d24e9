package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/coldstore/internal/domain/models"
)

// Ledger maps encoded allocation keys to requested withdrawal quantities.
// It never holds zero or negative quantities. The zero value is an empty ledger.
type Ledger struct {
	entries map[string]decimal.Decimal
}

// NewLedger returns an empty ledger.
func NewLedger() Ledger {
	return Ledger{entries: make(map[string]decimal.Decimal)}
}

// Len is the number of keys with a quantity.
func (l Ledger) Len() int {
	return len(l.entries)
}

// Get returns the quantity stored for key.
func (l Ledger) Get(key string) (decimal.Decimal, bool) {
	q, ok := l.entries[key]
	return q, ok
}

// Keys returns the stored keys in lexical order.
func (l Ledger) Keys() []string {
	keys := make([]string, 0, len(l.entries))
	for key := range l.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Total sums every stored quantity.
func (l Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, q := range l.entries {
		total = total.Add(q)
	}
	return total
}

func (l Ledger) clone() Ledger {
	next := Ledger{entries: make(map[string]decimal.Decimal, len(l.entries))}
	for k, v := range l.entries {
		next.entries[k] = v
	}
	return next
}

// Action is a ledger update understood by Reduce.
type Action interface {
	apply(entries map[string]decimal.Decimal)
}

// SetQuantity stores Quantity truncated to Places decimals, or removes the key
// when the truncated quantity is not positive.
type SetQuantity struct {
	Key      string
	Quantity decimal.Decimal
	Places   int32
}

func (a SetQuantity) apply(entries map[string]decimal.Decimal) {
	q := Quantize(a.Quantity, a.Places)
	if !q.IsPositive() {
		delete(entries, a.Key)
		return
	}
	entries[a.Key] = q
}

// RemoveKey drops a key unconditionally.
type RemoveKey struct {
	Key string
}

func (a RemoveKey) apply(entries map[string]decimal.Decimal) {
	delete(entries, a.Key)
}

// ClearAll empties the ledger.
type ClearAll struct{}

func (ClearAll) apply(entries map[string]decimal.Decimal) {
	clear(entries)
}

// SeedFromDelivery loads a stored delivery's allocations for editing, binding
// each to a key in Registry. Non-positive allocations are skipped; allocations
// binding to the same key are summed.
type SeedFromDelivery struct {
	Delivery models.Delivery
	Registry *Registry
}

func (a SeedFromDelivery) apply(entries map[string]decimal.Decimal) {
	for _, alloc := range a.Delivery.Allocations {
		if !alloc.Quantity.IsPositive() {
			continue
		}
		key := a.Registry.Bind(alloc).String()
		if current, ok := entries[key]; ok {
			entries[key] = current.Add(alloc.Quantity)
			continue
		}
		entries[key] = alloc.Quantity
	}
}

// Reduce returns a new ledger with action applied; l is left untouched.
func Reduce(l Ledger, action Action) Ledger {
	next := l.clone()
	action.apply(next.entries)
	return next
}

// Set stores quantity for key, truncated to places. Non-positive quantities remove the key.
func (l *Ledger) Set(key string, quantity decimal.Decimal, places int32) {
	*l = Reduce(*l, SetQuantity{Key: key, Quantity: quantity, Places: places})
}

// Remove drops key.
func (l *Ledger) Remove(key string) {
	*l = Reduce(*l, RemoveKey{Key: key})
}

// Clear drops every key.
func (l *Ledger) Clear() {
	*l = Reduce(*l, ClearAll{})
}

// Seed loads a delivery's allocations, see SeedFromDelivery.
func (l *Ledger) Seed(delivery models.Delivery, registry *Registry) {
	*l = Reduce(*l, SeedFromDelivery{Delivery: delivery, Registry: registry})
}
