package handler

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/rl1809/marketplace/internal/core/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type checkoutCall struct {
	buyerID, key string
	checkout     []domain.CheckoutItem
}

type verifyCall struct {
	orderID, itemID, sellerID, code string
}

// Mock Orders
type mockOrders struct {
	mu        sync.Mutex
	checkouts []checkoutCall
	verifies  []verifyCall
	err       error
}

func (m *mockOrders) CreateOrder(ctx context.Context, buyerID, key string, checkout []domain.CheckoutItem) (*domain.OrderDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkouts = append(m.checkouts, checkoutCall{buyerID, key, checkout})
	if m.err != nil {
		return nil, m.err
	}
	total := decimal.Zero
	lines := make([]domain.LineItemDetails, 0, len(checkout))
	for _, c := range checkout {
		total = total.Add(c.Price)
		lines = append(lines, domain.LineItemDetails{
			Item:   domain.ItemSummary{ID: c.ItemID, Price: c.Price},
			Seller: domain.UserSummary{ID: "s1"},
			Status: domain.LineItemPending,
			OTP:    "123456",
		})
	}
	return &domain.OrderDetails{
		ID:     "order-1",
		Buyer:  domain.UserSummary{ID: buyerID},
		Items:  lines,
		Total:  total,
		Status: domain.OrderStatusPending,
	}, nil
}

func (m *mockOrders) VerifyDelivery(ctx context.Context, orderID, itemID, sellerID, code string) (*domain.DeliveryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifies = append(m.verifies, verifyCall{orderID, itemID, sellerID, code})
	if m.err != nil {
		return nil, m.err
	}
	return &domain.DeliveryResult{Completed: true, OrderStatus: domain.OrderStatusCompleted}, nil
}

// Mock OrderViews, keyed by caller
type mockViews struct {
	orders map[string][]domain.OrderDetails
	err    error
	calls  []string
}

func (m *mockViews) view(name, caller string) ([]domain.OrderDetails, error) {
	m.calls = append(m.calls, name+":"+caller)
	if m.err != nil {
		return nil, m.err
	}
	return m.orders[caller], nil
}

func (m *mockViews) PendingOrders(ctx context.Context, id string) ([]domain.OrderDetails, error) {
	return m.view("pending", id)
}

func (m *mockViews) BoughtOrders(ctx context.Context, id string) ([]domain.OrderDetails, error) {
	return m.view("bought", id)
}

func (m *mockViews) SoldOrders(ctx context.Context, id string) ([]domain.OrderDetails, error) {
	return m.view("sold", id)
}

func (m *mockViews) PendingDeliveries(ctx context.Context, id string) ([]domain.OrderDetails, error) {
	return m.view("pending-deliveries", id)
}

// Mock Cart
type mockCart struct {
	mu    sync.Mutex
	items map[string][]string
	all   []domain.Item
	err   error
}

func newMockCart(all ...domain.Item) *mockCart {
	return &mockCart{items: make(map[string][]string), all: all}
}

func (m *mockCart) Add(ctx context.Context, userID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.items[userID] = append(m.items[userID], itemID)
	return nil
}

func (m *mockCart) Remove(ctx context.Context, userID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	kept := m.items[userID][:0]
	for _, id := range m.items[userID] {
		if id != itemID {
			kept = append(kept, id)
		}
	}
	m.items[userID] = kept
	return nil
}

func (m *mockCart) ListAvailable(ctx context.Context, userID string) ([]domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Item
	for _, id := range m.items[userID] {
		for _, it := range m.all {
			if it.ID == id {
				out = append(out, it)
			}
		}
	}
	return out, m.err
}

func (m *mockCart) Search(ctx context.Context, userID string) ([]domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Item
	for _, it := range m.all {
		if it.SellerID != userID {
			out = append(out, it)
		}
	}
	return out, m.err
}

type fixture struct {
	orders   *mockOrders
	views    *mockViews
	cart     *mockCart
	registry *prometheus.Registry
	deps     Dependencies
}

func newFixture() *fixture {
	f := &fixture{
		orders: &mockOrders{},
		views:  &mockViews{orders: make(map[string][]domain.OrderDetails)},
		cart: newMockCart(
			domain.Item{ID: "i1", Name: "lamp", Price: decimal.RequireFromString("12.50"), Category: domain.CategoryOther, SellerID: "s1", Status: domain.ItemStatusAvailable},
			domain.Item{ID: "i2", Name: "jacket", Price: decimal.NewFromInt(40), Category: domain.CategoryClothing, SellerID: "s2", Status: domain.ItemStatusAvailable},
		),
		registry: prometheus.NewRegistry(),
	}
	f.deps = Dependencies{
		Orders:  f.orders,
		Views:   f.views,
		Cart:    f.cart,
		Metrics: NewMetrics(f.registry),
	}
	return f
}
