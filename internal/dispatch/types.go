package dispatch

import (
	"github.com/cafekit/ordersync/internal/model"
)

// Envelope message types sent by the server.
const (
	TypeOrderCreated = "order_created"
	TypeOrderUpdated = "order_updated"
	TypeOrderDeleted = "order_deleted"
)

// envelope is the outer shape of every push message.
type envelope struct {
	Type string `json:"type"`
}

// orderEventWire carries the order payload for created/updated events.
type orderEventWire struct {
	Order model.OrderRecord `json:"order"`
}

// orderDeletedWire carries the order ID for deleted events.
type orderDeletedWire struct {
	OrderID string `json:"order_id"`
}

// Stats contains dispatcher counters.
type Stats struct {
	Received    int64
	Handled     int64
	ParseErrors int64
	Unknown     int64
}
