package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced       = "order.placed"
	EventDeliveryConfirmed = "delivery.confirmed"
)

// Event is a fact published after a state change. Key selects the partition.
type Event interface {
	EventType() string
	Key() string
}

type PlacedLine struct {
	ItemID   string `json:"item_id"`
	SellerID string `json:"seller_id"`
}

// OrderPlaced never carries delivery codes.
type OrderPlaced struct {
	OrderID   string          `json:"order_id"`
	BuyerID   string          `json:"buyer_id"`
	Total     decimal.Decimal `json:"total"`
	Lines     []PlacedLine    `json:"lines"`
	CreatedAt time.Time       `json:"created_at"`
}

func (e OrderPlaced) EventType() string { return EventOrderPlaced }
func (e OrderPlaced) Key() string       { return e.OrderID }

func NewOrderPlaced(o Order) OrderPlaced {
	lines := make([]PlacedLine, 0, len(o.Items))
	for _, li := range o.Items {
		lines = append(lines, PlacedLine{ItemID: li.ItemID, SellerID: li.SellerID})
	}
	return OrderPlaced{OrderID: o.ID, BuyerID: o.BuyerID, Total: o.Total, Lines: lines, CreatedAt: o.CreatedAt}
}

type DeliveryConfirmed struct {
	OrderID     string      `json:"order_id"`
	ItemID      string      `json:"item_id"`
	SellerID    string      `json:"seller_id"`
	OrderStatus OrderStatus `json:"order_status"`
	ConfirmedAt time.Time   `json:"confirmed_at"`
}

func (e DeliveryConfirmed) EventType() string { return EventDeliveryConfirmed }
func (e DeliveryConfirmed) Key() string       { return e.OrderID }
