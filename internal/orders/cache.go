package orders

import (
	"sync"

	"github.com/cafekit/ordersync/internal/model"
)

// ChangeBufferSize is the capacity of the change event channel.
const ChangeBufferSize = 256

// Change kinds emitted by the cache.
const (
	ChangeReplaced = "replaced" // whole cache swapped by a full fetch
	ChangeCreated  = "created"  // single order added
	ChangeUpdated  = "updated"  // single order updated in place
	ChangeDeleted  = "deleted"  // single order removed
)

// Change represents a cache mutation.
type Change struct {
	Kind    string
	OrderID string // empty for ChangeReplaced
}

// Cache is an insertion-order-preserving map of order ID to order.
type Cache struct {
	mu sync.RWMutex

	// Orders indexed by ID, plus the ID sequence in server order.
	entries map[string]*model.OrderRecord
	seq     []string

	// Output channel for consumers.
	changes chan Change
}

// NewCache creates an empty order cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]*model.OrderRecord),
		changes: make(chan Change, ChangeBufferSize),
	}
}

// Changes returns the channel of cache change events.
func (c *Cache) Changes() <-chan Change {
	return c.changes
}

// Get returns an order by ID.
func (c *Cache) Get(id string) (model.OrderRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	o, ok := c.entries[id]
	if !ok {
		return model.OrderRecord{}, false
	}
	return *o, true
}

// Len returns the number of cached orders.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.seq)
}

// Snapshot returns a copy of all orders in insertion order.
func (c *Cache) Snapshot() []model.OrderRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]model.OrderRecord, 0, len(c.seq))
	for _, id := range c.seq {
		if o, ok := c.entries[id]; ok {
			result = append(result, *o)
		}
	}
	return result
}

// CountNewPending returns how many incoming orders are in pending
// status and not yet present in the cache. Called before ReplaceAll to
// detect freshly arrived orders.
func (c *Cache) CountNewPending(incoming []model.OrderRecord) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	count := 0
	for _, o := range incoming {
		if !o.IsPending() {
			continue
		}
		if _, ok := c.entries[o.ID]; !ok {
			count++
		}
	}
	return count
}

// ReplaceAll swaps the entire cache contents for the given list,
// preserving the server's ordering. Duplicate IDs collapse to the last
// occurrence, keeping the first occurrence's position.
func (c *Cache) ReplaceAll(list []model.OrderRecord) {
	c.mu.Lock()

	entries := make(map[string]*model.OrderRecord, len(list))
	seq := make([]string, 0, len(list))
	for _, o := range list {
		oCopy := o
		if _, ok := entries[o.ID]; !ok {
			seq = append(seq, o.ID)
		}
		entries[o.ID] = &oCopy
	}

	c.entries = entries
	c.seq = seq
	c.mu.Unlock()

	c.notifyChange(Change{Kind: ChangeReplaced})
}

// Upsert adds or updates a single order. Returns true if the order was
// newly inserted, false if an existing entry was updated.
func (c *Cache) Upsert(o model.OrderRecord) bool {
	c.mu.Lock()

	oCopy := o
	_, exists := c.entries[o.ID]
	if !exists {
		c.seq = append(c.seq, o.ID)
	}
	c.entries[o.ID] = &oCopy
	c.mu.Unlock()

	if exists {
		c.notifyChange(Change{Kind: ChangeUpdated, OrderID: o.ID})
		return false
	}
	c.notifyChange(Change{Kind: ChangeCreated, OrderID: o.ID})
	return true
}

// Remove deletes an order by ID. Returns false if the order was absent.
func (c *Cache) Remove(id string) bool {
	c.mu.Lock()

	if _, ok := c.entries[id]; !ok {
		c.mu.Unlock()
		return false
	}

	delete(c.entries, id)
	for i, sid := range c.seq {
		if sid == id {
			c.seq = append(c.seq[:i], c.seq[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	c.notifyChange(Change{Kind: ChangeDeleted, OrderID: id})
	return true
}

// notifyChange sends a change to the changes channel (non-blocking).
func (c *Cache) notifyChange(change Change) {
	select {
	case c.changes <- change:
	default:
		// Channel full, drop oldest by consuming one and retrying.
		select {
		case <-c.changes:
			c.changes <- change
		default:
		}
	}
}
