package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/marketplace/internal/core/domain"
)

type CheckoutItemRequest struct {
	ItemID   string          `json:"item_id"`
	Price    decimal.Decimal `json:"price"`
	SellerID string          `json:"seller_id,omitempty"`
}

type CheckoutRequest struct {
	// IdempotencyKey is read from the Idempotency-Key header over HTTP.
	IdempotencyKey string                `json:"idempotency_key,omitempty"`
	Items          []CheckoutItemRequest `json:"items"`
}

func (r CheckoutRequest) Validate() error {
	if len(r.Items) == 0 {
		return fmt.Errorf("%w: items is required", ErrInvalidRequest)
	}
	for i, it := range r.Items {
		if strings.TrimSpace(it.ItemID) == "" {
			return fmt.Errorf("%w: items[%d].item_id is required", ErrInvalidRequest, i)
		}
		if it.Price.IsNegative() {
			return fmt.Errorf("%w: items[%d].price must not be negative", ErrInvalidRequest, i)
		}
	}
	return nil
}

func (r CheckoutRequest) checkout() []domain.CheckoutItem {
	out := make([]domain.CheckoutItem, len(r.Items))
	for i, it := range r.Items {
		out[i] = domain.CheckoutItem{ItemID: strings.TrimSpace(it.ItemID), Price: it.Price, SellerID: it.SellerID}
	}
	return out
}

// VerifyRequest carries the code. Over HTTP the ids come from the path.
type VerifyRequest struct {
	OrderID string `json:"order_id,omitempty"`
	ItemID  string `json:"item_id,omitempty"`
	OTP     string `json:"otp"`
}

func (r VerifyRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.OrderID) == "":
		return fmt.Errorf("%w: order_id is required", ErrInvalidRequest)
	case strings.TrimSpace(r.ItemID) == "":
		return fmt.Errorf("%w: item_id is required", ErrInvalidRequest)
	case strings.TrimSpace(r.OTP) == "":
		return fmt.Errorf("%w: otp is required", ErrInvalidRequest)
	}
	return nil
}

type CartItemRequest struct {
	ItemID string `json:"item_id"`
}

func (r CartItemRequest) Validate() error {
	if strings.TrimSpace(r.ItemID) == "" {
		return fmt.Errorf("%w: item_id is required", ErrInvalidRequest)
	}
	return nil
}

type Empty struct{}

type ItemResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Price       decimal.Decimal   `json:"price"`
	Category    domain.Category   `json:"category"`
	SellerID    string            `json:"seller_id"`
	Status      domain.ItemStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

type ItemsResponse struct {
	Items []ItemResponse `json:"items"`
}

func itemsResponse(items []domain.Item) *ItemsResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, ItemResponse{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			Price:       it.Price,
			Category:    it.Category,
			SellerID:    it.SellerID,
			Status:      it.Status,
			CreatedAt:   it.CreatedAt,
		})
	}
	return &ItemsResponse{Items: out}
}

type OrdersResponse struct {
	Orders []domain.OrderDetails `json:"orders"`
}

func ordersResponse(orders []domain.OrderDetails) *OrdersResponse {
	if orders == nil {
		orders = []domain.OrderDetails{}
	}
	return &OrdersResponse{Orders: orders}
}
