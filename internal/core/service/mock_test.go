package service

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Mock CatalogRepository
type mockCatalog struct {
	mu          sync.Mutex
	items       map[string]domain.Item
	reserveErr  error
	releaseErr  error
	markSoldErr error
	// beforeReserve runs once, before the next reservation takes the lock
	beforeReserve func()
	released      [][]string
	markedSold    []string
}

func newMockCatalog(items ...domain.Item) *mockCatalog {
	m := &mockCatalog{items: make(map[string]domain.Item)}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

func (m *mockCatalog) GetItems(ctx context.Context, ids []string) ([]domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Item
	for _, id := range ids {
		if it, ok := m.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockCatalog) ReserveItems(ctx context.Context, ids []string) (bool, error) {
	if hook := m.beforeReserve; hook != nil {
		m.beforeReserve = nil
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.reserveErr != nil {
		return false, m.reserveErr
	}
	for _, id := range ids {
		if it, ok := m.items[id]; !ok || it.Status != domain.ItemStatusAvailable {
			return false, nil
		}
	}
	for _, id := range ids {
		it := m.items[id]
		it.Status = domain.ItemStatusSold
		m.items[id] = it
	}
	return true, nil
}

func (m *mockCatalog) ReleaseItems(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.released = append(m.released, ids)
	if m.releaseErr != nil {
		return m.releaseErr
	}
	for _, id := range ids {
		it := m.items[id]
		it.Status = domain.ItemStatusAvailable
		m.items[id] = it
	}
	return nil
}

func (m *mockCatalog) MarkSold(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.markSoldErr != nil {
		return m.markSoldErr
	}
	m.markedSold = append(m.markedSold, id)
	it := m.items[id]
	it.Status = domain.ItemStatusSold
	m.items[id] = it
	return nil
}

func (m *mockCatalog) SearchAvailable(ctx context.Context, excludeSeller string, excludeIDs []string) ([]domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Item
	for _, it := range m.items {
		if it.Available() && it.SellerID != excludeSeller && !slices.Contains(excludeIDs, it.ID) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockCatalog) setStatus(id string, status domain.ItemStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := m.items[id]
	it.Status = status
	m.items[id] = it
}

func (m *mockCatalog) status(id string) domain.ItemStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].Status
}

// Mock OrderRepository
type mockOrders struct {
	mu        sync.Mutex
	orders    map[string]domain.Order
	seq       []string
	createErr error
	// savedOnErr stores the order even when createErr is returned
	savedOnErr bool
	getErr     error
}

func newMockOrders() *mockOrders {
	return &mockOrders{orders: make(map[string]domain.Order)}
}

func (m *mockOrders) CreateOrder(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil && !m.savedOnErr {
		return m.createErr
	}
	order.Items = slices.Clone(order.Items)
	m.orders[order.ID] = order
	m.seq = append(m.seq, order.ID)
	return m.createErr
}

func (m *mockOrders) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	o.Items = slices.Clone(o.Items)
	return &o, nil
}

func (m *mockOrders) CompleteLineItem(ctx context.Context, orderID, itemID, sellerID, otp string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	if !ok {
		return false, nil
	}
	for i, li := range o.Items {
		if li.ItemID == itemID && li.SellerID == sellerID && li.Status == domain.LineItemPending && li.OTP == otp {
			now := time.Now()
			o.Items[i].Status = domain.LineItemCompleted
			o.Items[i].CompletedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (m *mockOrders) FindOrders(ctx context.Context, f port.OrderFilter) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Order
	for _, id := range m.seq {
		o := m.orders[id]
		if f.BuyerID != "" && o.BuyerID != f.BuyerID {
			continue
		}
		if !o.HasLine(func(li domain.LineItem) bool {
			return (f.SellerID == "" || li.SellerID == f.SellerID) && (f.LineStatus == "" || li.Status == f.LineStatus)
		}) {
			continue
		}
		o.Items = slices.Clone(o.Items)
		out = append(out, o)
	}
	return out, nil
}

func (m *mockOrders) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// Mock CartRepository
type mockCarts struct {
	mu       sync.Mutex
	carts    map[string][]string
	clearErr error
}

func newMockCarts() *mockCarts {
	return &mockCarts{carts: make(map[string][]string)}
}

func (m *mockCarts) AddItem(ctx context.Context, userID, itemID string, maxItems int) (port.CartAddResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if slices.Contains(m.carts[userID], itemID) {
		return port.CartItemExists, nil
	}
	if maxItems > 0 && len(m.carts[userID]) >= maxItems {
		return port.CartFull, nil
	}
	m.carts[userID] = append(m.carts[userID], itemID)
	return port.CartItemAdded, nil
}

func (m *mockCarts) RemoveItem(ctx context.Context, userID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.carts[userID] = slices.DeleteFunc(m.carts[userID], func(id string) bool { return id == itemID })
	return nil
}

func (m *mockCarts) Clear(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.clearErr != nil {
		return m.clearErr
	}
	delete(m.carts, userID)
	return nil
}

func (m *mockCarts) ItemIDs(ctx context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.carts[userID]), nil
}

// Mock UserRepository
type mockUsers struct {
	users map[string]domain.User
}

func newMockUsers(users ...domain.User) *mockUsers {
	m := &mockUsers{users: make(map[string]domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUsers) GetUsers(ctx context.Context, ids []string) ([]domain.User, error) {
	var out []domain.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// Mock CacheRepository
type mockCache struct {
	mu             sync.Mutex
	idempotencySet map[string]bool
}

func newMockCache() *mockCache {
	return &mockCache{idempotencySet: make(map[string]bool)}
}

func (m *mockCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCache) DeleteIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.idempotencySet, key)
	return nil
}

// Mock EventPublisher
type mockEvents struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (m *mockEvents) Publish(ctx context.Context, ev domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *mockEvents) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, ev.EventType())
	}
	return out
}

func item(id, seller string, price int64) domain.Item {
	return domain.Item{
		ID:       id,
		Name:     "item " + id,
		Price:    decimal.NewFromInt(price),
		Category: domain.CategoryOther,
		SellerID: seller,
		Status:   domain.ItemStatusAvailable,
	}
}

func checkoutOf(items ...domain.Item) []domain.CheckoutItem {
	out := make([]domain.CheckoutItem, 0, len(items))
	for _, it := range items {
		out = append(out, domain.CheckoutItem{ItemID: it.ID, Price: it.Price, SellerID: it.SellerID})
	}
	return out
}

// testEnv wires every service over in-memory ports.
type testEnv struct {
	catalog   *mockCatalog
	orders    *mockOrders
	carts     *mockCarts
	users     *mockUsers
	cache     *mockCache
	events    *mockEvents
	cart      *CartService
	svc       *OrderService
	projector *OrderProjector
}

func newTestEnv(items ...domain.Item) *testEnv {
	env := &testEnv{
		catalog: newMockCatalog(items...),
		orders:  newMockOrders(),
		carts:   newMockCarts(),
		users: newMockUsers(
			domain.User{ID: "buyer", FirstName: "Bea", LastName: "Buyer", Email: "bea@example.com"},
			domain.User{ID: "s1", FirstName: "Sam", LastName: "One", Email: "s1@example.com"},
			domain.User{ID: "s2", FirstName: "Sue", LastName: "Two", Email: "s2@example.com"},
		),
		cache:  newMockCache(),
		events: &mockEvents{},
	}
	log := discardLogger()
	env.cart = NewCartService(log, env.carts, env.catalog, 10)
	deps := Dependencies{
		Catalog: env.catalog,
		Orders:  env.orders,
		Users:   env.users,
		Cache:   env.cache,
		Events:  env.events,
	}
	env.svc = NewOrderService(log, deps, env.cart, NewOTPService(env.orders, nil))
	env.projector = NewOrderProjector(env.orders, env.users, env.catalog)
	return env
}

// otpOf reads the stored code of a line item.
func (env *testEnv) otpOf(orderID, itemID string) string {
	o, _ := env.orders.GetOrder(context.Background(), orderID)
	if o == nil {
		return ""
	}
	for _, li := range o.Items {
		if li.ItemID == itemID {
			return li.OTP
		}
	}
	return ""
}
