package inventory

import (
	"sort"

	"github.com/mamadbah2/coldstore/internal/domain/models"
)

// IndexedEntry is a bag entry with its resolved location index.
type IndexedEntry struct {
	models.BagSizeEntry
	LocationIndex int
	// Position is the entry's offset in the lot's Entries slice.
	Position int
}

// Key returns the allocation key addressing this entry of lot.
func (e IndexedEntry) Key(lotID string) AllocationKey {
	return AllocationKey{LotID: lotID, Size: e.Size, LocationIndex: e.LocationIndex}
}

// IndexEntries assigns location indexes to a lot's entries. Entries sharing a
// size are ordered by location so the index does not drift when the source
// returns them in a different order; identical locations keep source order.
// The result is grouped by size in first-seen order.
func IndexEntries(lot models.Lot) []IndexedEntry {
	rank := make(map[string]int, len(lot.Entries))
	out := make([]IndexedEntry, 0, len(lot.Entries))
	for i, entry := range lot.Entries {
		if _, ok := rank[entry.Size]; !ok {
			rank[entry.Size] = len(rank)
		}
		out = append(out, IndexedEntry{BagSizeEntry: entry, Position: i})
	}

	sort.SliceStable(out, func(a, b int) bool {
		ra, rb := rank[out[a].Size], rank[out[b].Size]
		if ra != rb {
			return ra < rb
		}
		return out[a].Location.Compare(out[b].Location) < 0
	})

	next := make(map[string]int, len(rank))
	for i := range out {
		out[i].LocationIndex = next[out[i].Size]
		next[out[i].Size]++
	}
	return out
}

// EntryAt returns the lot's entry for size at locationIndex.
func EntryAt(lot models.Lot, size string, locationIndex int) (IndexedEntry, bool) {
	for _, entry := range IndexEntries(lot) {
		if entry.Size == size && entry.LocationIndex == locationIndex {
			return entry, true
		}
	}
	return IndexedEntry{}, false
}

// Registry is a read-only, id-indexed view of the lots handed in by the data layer.
type Registry struct {
	lots  map[string]models.Lot
	order []string
}

// NewRegistry indexes lots by id. A later lot with a repeated id replaces the earlier one.
func NewRegistry(lots []models.Lot) *Registry {
	r := &Registry{lots: make(map[string]models.Lot, len(lots))}
	for _, lot := range lots {
		if _, seen := r.lots[lot.ID]; !seen {
			r.order = append(r.order, lot.ID)
		}
		r.lots[lot.ID] = lot
	}
	return r
}

// Lot returns the lot with the given id.
func (r *Registry) Lot(id string) (models.Lot, bool) {
	if r == nil {
		return models.Lot{}, false
	}
	lot, ok := r.lots[id]
	return lot, ok
}

// Lots returns every lot in first-seen order.
func (r *Registry) Lots() []models.Lot {
	if r == nil {
		return nil
	}
	out := make([]models.Lot, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.lots[id])
	}
	return out
}

// Len is the number of distinct lots.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.lots)
}

// Resolve finds the lot and bag entry addressed by key.
func (r *Registry) Resolve(key AllocationKey) (models.Lot, IndexedEntry, bool) {
	lot, ok := r.Lot(key.LotID)
	if !ok {
		return models.Lot{}, IndexedEntry{}, false
	}
	entry, ok := EntryAt(lot, key.Size, key.LocationIndex)
	if !ok {
		return models.Lot{}, IndexedEntry{}, false
	}
	return lot, entry, true
}

// Bind maps a stored allocation onto a key in this registry. It matches the
// recorded location first and falls back to the recorded index when the
// location is ambiguous or no longer present. Unknown lots keep the recorded index.
func (r *Registry) Bind(alloc models.DeliveryAllocation) AllocationKey {
	key := AllocationKey{LotID: alloc.LotID, Size: alloc.Size, LocationIndex: alloc.LocationIndex}

	lot, ok := r.Lot(alloc.LotID)
	if !ok {
		return key
	}

	var matches []int
	for _, entry := range IndexEntries(lot) {
		if entry.Size == alloc.Size && entry.Location == alloc.Location {
			matches = append(matches, entry.LocationIndex)
		}
	}

	switch len(matches) {
	case 0:
		return key
	case 1:
		key.LocationIndex = matches[0]
		return key
	}
	for _, idx := range matches {
		if idx == alloc.LocationIndex {
			return key
		}
	}
	key.LocationIndex = matches[0]
	return key
}
