package port

import (
	"context"

	"github.com/rl1809/marketplace/internal/core/domain"
)

// OrderFilter selects orders by buyer and by the presence of one line item
// matching both SellerID and LineStatus. Empty fields match anything.
type OrderFilter struct {
	BuyerID    string
	SellerID   string
	LineStatus domain.LineItemStatus
}

type OrderRepository interface {
	// CreateOrder persists the order and all its line items, or nothing
	CreateOrder(ctx context.Context, order domain.Order) error

	// GetOrder returns nil, nil when the order does not exist
	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	// CompleteLineItem moves the line identified by (orderID, itemID, sellerID)
	// from pending to completed if otp matches, as one conditional write.
	// Returns false when no pending line matched.
	CompleteLineItem(ctx context.Context, orderID, itemID, sellerID, otp string) (bool, error)

	// FindOrders returns matching orders with all of their line items
	FindOrders(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
}
