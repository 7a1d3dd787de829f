package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
)

type LineItemStatus string

const (
	LineItemPending   LineItemStatus = "pending"
	LineItemCompleted LineItemStatus = "completed"
)

// LineItem is one item's share of an order. SellerID is a snapshot of the
// item's owner when the order was placed.
type LineItem struct {
	ItemID      string
	SellerID    string
	Status      LineItemStatus
	OTP         string
	CompletedAt *time.Time
}

type Order struct {
	ID        string
	BuyerID   string
	Items     []LineItem
	Total     decimal.Decimal
	CreatedAt time.Time
}

// CheckoutItem is a cart entry as submitted by the buyer.
type CheckoutItem struct {
	ItemID   string
	Price    decimal.Decimal
	SellerID string
}

func NewOrder(id, buyerID string, checkout []CheckoutItem, items []LineItem, createdAt time.Time) Order {
	total := decimal.Zero
	for _, c := range checkout {
		total = total.Add(c.Price)
	}
	return Order{
		ID:        id,
		BuyerID:   buyerID,
		Items:     items,
		Total:     total,
		CreatedAt: createdAt.UTC(),
	}
}

// Status is completed once every line item is completed.
func (o Order) Status() OrderStatus {
	if len(o.Items) == 0 {
		return OrderStatusPending
	}
	for _, li := range o.Items {
		if li.Status != LineItemCompleted {
			return OrderStatusPending
		}
	}
	return OrderStatusCompleted
}

func (o Order) HasLine(match func(LineItem) bool) bool {
	for _, li := range o.Items {
		if match(li) {
			return true
		}
	}
	return false
}

// FilterLines returns a copy of the order keeping only matching line items.
// The receiver is left untouched.
func (o Order) FilterLines(match func(LineItem) bool) Order {
	out := o
	out.Items = make([]LineItem, 0, len(o.Items))
	for _, li := range o.Items {
		if match(li) {
			out.Items = append(out.Items, li)
		}
	}
	return out
}

func (o Order) ItemIDs() []string {
	ids := make([]string, 0, len(o.Items))
	for _, li := range o.Items {
		ids = append(ids, li.ItemID)
	}
	return ids
}

func LineWithStatus(status LineItemStatus) func(LineItem) bool {
	return func(li LineItem) bool { return li.Status == status }
}

func LineSoldBy(sellerID string) func(LineItem) bool {
	return func(li LineItem) bool { return li.SellerID == sellerID }
}

func LineSoldByWithStatus(sellerID string, status LineItemStatus) func(LineItem) bool {
	return func(li LineItem) bool { return li.SellerID == sellerID && li.Status == status }
}
