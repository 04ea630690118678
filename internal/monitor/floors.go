package monitor

import (
	"sync"

	"github.com/shopspring/decimal"
)

// FloorRegistry holds the per-open-position stop-loss floors, keyed by
// base mint. A floor exists only while its position is open: created
// lazily on the first monitoring tick, deleted when the position closes.
// While trailing is enabled a stored floor only ever moves up.
type FloorRegistry struct {
	mu     sync.Mutex
	floors map[string]decimal.Decimal
}

// NewFloorRegistry creates an empty registry.
func NewFloorRegistry() *FloorRegistry {
	return &FloorRegistry{floors: make(map[string]decimal.Decimal)}
}

// Floor returns the stored floor for a mint.
func (r *FloorRegistry) Floor(mint string) (decimal.Decimal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.floors[mint]
	return f, ok
}

// InitIfAbsent stores the initial floor when none exists yet and returns
// the effective floor.
func (r *FloorRegistry) InitIfAbsent(mint string, floor decimal.Decimal) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.floors[mint]; ok {
		return f
	}
	r.floors[mint] = floor
	return floor
}

// Ratchet raises the floor to candidate when candidate is higher and
// reports whether it moved. The read and the dependent write happen
// under one lock acquisition.
func (r *FloorRegistry) Ratchet(mint string, candidate decimal.Decimal) (decimal.Decimal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.floors[mint]
	if ok && candidate.LessThanOrEqual(current) {
		return current, false
	}
	r.floors[mint] = candidate
	return candidate, true
}

// Clear deletes the floor for a closed position.
func (r *FloorRegistry) Clear(mint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.floors, mint)
}

// Len returns the number of open-position floors.
func (r *FloorRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.floors)
}
