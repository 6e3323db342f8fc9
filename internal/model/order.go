package model

import "time"

// Order statuses reported by the server. The engine stores whatever
// status the server sends; these constants cover the values it knows
// how to reason about (new-pending detection), unknown values are
// forwarded unchanged.
const (
	StatusPending   = "pending"
	StatusPreparing = "preparing"
	StatusReady     = "ready"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// KnownStatus reports whether status is one of the documented order statuses.
func KnownStatus(status string) bool {
	switch status {
	case StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// LineItem is a single menu item on an order.
type LineItem struct {
	ItemID    string  `json:"item_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// OrderRecord represents an order as reported by the server.
type OrderRecord struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	Items     []LineItem `json:"items"`
	Total     float64    `json:"total"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsPending reports whether the order is awaiting preparation.
func (o OrderRecord) IsPending() bool {
	return o.Status == StatusPending
}
