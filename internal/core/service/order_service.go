package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

var (
	ErrDuplicateRequest = errors.New("duplicate request")
	ErrMissingCaller    = errors.New("caller identity is required")
	ErrEmptyOrder       = errors.New("order has no items")
	ErrInvalidCheckout  = errors.New("invalid checkout item")
	ErrPriceMismatch    = errors.New("item price changed")
)

// Dependencies are the stores the order service talks to.
type Dependencies struct {
	Catalog port.CatalogRepository
	Orders  port.OrderRepository
	Users   port.UserRepository
	Cache   port.CacheRepository
	Events  port.EventPublisher
}

type OrderService struct {
	log     *slog.Logger
	catalog port.CatalogRepository
	orders  port.OrderRepository
	cache   port.CacheRepository
	events  port.EventPublisher
	guard   *InventoryGuard
	otp     *OTPService
	carts   *CartService
	expander

	now   func() time.Time
	newID func() string
}

func NewOrderService(log *slog.Logger, deps Dependencies, carts *CartService, otp *OTPService) *OrderService {
	return &OrderService{
		log:      log,
		catalog:  deps.Catalog,
		orders:   deps.Orders,
		cache:    deps.Cache,
		events:   deps.Events,
		guard:    NewInventoryGuard(log, deps.Catalog),
		otp:      otp,
		carts:    carts,
		expander: expander{users: deps.Users, catalog: deps.Catalog},
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// CreateOrder turns the buyer's checkout into one order with a line item per
// entry. Items are reserved before the order is written and the cart is
// cleared after. A non-empty idempotencyKey rejects replays of the same checkout.
func (s *OrderService) CreateOrder(ctx context.Context, buyerID, idempotencyKey string, checkout []domain.CheckoutItem) (*domain.OrderDetails, error) {
	buyerID = strings.TrimSpace(buyerID)
	if buyerID == "" {
		return nil, ErrMissingCaller
	}
	checkout, itemIDs, err := validateCheckout(checkout)
	if err != nil {
		return nil, err
	}

	if idempotencyKey != "" {
		ok, err := s.cache.SetIdempotency(ctx, checkoutKey(buyerID, idempotencyKey))
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, ErrDuplicateRequest
		}
	}

	order, err := s.placeOrder(ctx, buyerID, itemIDs, checkout)
	if err != nil {
		if idempotencyKey != "" {
			s.releaseKey(ctx, checkoutKey(buyerID, idempotencyKey))
		}
		return nil, err
	}

	if err := s.carts.Clear(ctx, buyerID); err != nil {
		s.log.Warn("order placed but cart not cleared", "order_id", order.ID, "buyer_id", buyerID, "err", err)
	}

	s.publish(ctx, domain.NewOrderPlaced(order))
	s.log.Info("order placed", "order_id", order.ID, "buyer_id", buyerID, "lines", len(order.Items), "total", order.Total.String())

	details, err := s.expand(ctx, []scoped{whole(order)}, showCodes)
	if err != nil {
		return nil, fmt.Errorf("expand order %s: %w", order.ID, err)
	}
	return &details[0], nil
}

func checkoutKey(buyerID, idempotencyKey string) string {
	return fmt.Sprintf("checkout:%s:%s", buyerID, idempotencyKey)
}

// releaseKey lets the buyer retry a checkout that failed with the same key.
func (s *OrderService) releaseKey(ctx context.Context, key string) {
	if err := s.cache.DeleteIdempotency(context.WithoutCancel(ctx), key); err != nil {
		s.log.Warn("release idempotency key failed", "key", key, "err", err)
	}
}

func (s *OrderService) placeOrder(ctx context.Context, buyerID string, itemIDs []string, checkout []domain.CheckoutItem) (domain.Order, error) {
	items, err := s.catalog.GetItems(ctx, itemIDs)
	if err != nil {
		return domain.Order{}, fmt.Errorf("lookup items: %w", err)
	}
	byID := make(map[string]domain.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	for _, c := range checkout {
		it, ok := byID[c.ItemID]
		if !ok || !it.Available() {
			return domain.Order{}, ErrItemsUnavailable
		}
		if it.SellerID == buyerID {
			return domain.Order{}, ErrOwnItem
		}
		if !it.Price.Equal(c.Price) {
			return domain.Order{}, fmt.Errorf("%w: %s", ErrPriceMismatch, c.ItemID)
		}
	}

	if err := s.guard.Reserve(ctx, itemIDs); err != nil {
		return domain.Order{}, err
	}

	codes, err := s.otp.Issue(len(checkout))
	if err != nil {
		s.compensate(ctx, itemIDs)
		return domain.Order{}, err
	}

	lines := make([]domain.LineItem, 0, len(checkout))
	for i, c := range checkout {
		lines = append(lines, domain.LineItem{
			ItemID:   c.ItemID,
			SellerID: byID[c.ItemID].SellerID,
			Status:   domain.LineItemPending,
			OTP:      codes[i],
		})
	}
	order := domain.NewOrder(s.newID(), buyerID, checkout, lines, s.now())

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		saved, lookupErr := s.orders.GetOrder(context.WithoutCancel(ctx), order.ID)
		switch {
		case lookupErr != nil:
			// Unknown outcome: releasing could resell items of a stored order.
			s.log.Error("orphaned reservation: order outcome unknown", "order_id", order.ID, "item_ids", itemIDs, "err", lookupErr)
		case saved != nil:
			s.log.Warn("order saved despite write error", "order_id", order.ID, "err", err)
			return order, nil
		default:
			s.compensate(ctx, itemIDs)
		}
		return domain.Order{}, fmt.Errorf("save order: %w", err)
	}

	return order, nil
}

// compensate runs detached from ctx so a cancelled request still releases.
func (s *OrderService) compensate(ctx context.Context, itemIDs []string) {
	_ = s.guard.Release(context.WithoutCancel(ctx), itemIDs)
}

// VerifyDelivery completes one line item when the seller presents its code.
func (s *OrderService) VerifyDelivery(ctx context.Context, orderID, itemID, sellerID, code string) (*domain.DeliveryResult, error) {
	orderID, itemID, sellerID = strings.TrimSpace(orderID), strings.TrimSpace(itemID), strings.TrimSpace(sellerID)
	if sellerID == "" {
		return nil, ErrMissingCaller
	}
	if orderID == "" || itemID == "" {
		return nil, ErrDeliveryNotFound
	}

	if err := s.otp.Verify(ctx, orderID, itemID, sellerID, strings.TrimSpace(code)); err != nil {
		return nil, err
	}

	// The line is committed; later failures are logged, not returned.
	status := domain.OrderStatusPending
	order, err := s.orders.GetOrder(ctx, orderID)
	switch {
	case err != nil:
		s.log.Error("reload order after verification failed", "order_id", orderID, "err", err)
	case order == nil:
		s.log.Error("order missing after verification", "order_id", orderID)
	default:
		status = order.Status()
	}

	if status == domain.OrderStatusCompleted {
		if err := s.catalog.MarkSold(ctx, itemID); err != nil {
			s.log.Warn("mark item sold failed", "order_id", orderID, "item_id", itemID, "err", err)
		}
	}

	s.publish(ctx, domain.DeliveryConfirmed{
		OrderID:     orderID,
		ItemID:      itemID,
		SellerID:    sellerID,
		OrderStatus: status,
		ConfirmedAt: s.now().UTC(),
	})
	s.log.Info("delivery verified", "order_id", orderID, "item_id", itemID, "seller_id", sellerID, "order_status", status)

	return &domain.DeliveryResult{Completed: true, OrderStatus: status}, nil
}

// publish is best effort; the state change has already been committed.
func (s *OrderService) publish(ctx context.Context, ev domain.Event) {
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("publish event failed", "type", ev.EventType(), "key", ev.Key(), "err", err)
	}
}

// validateCheckout returns a copy of checkout with trimmed item ids, and
// those ids in order.
func validateCheckout(checkout []domain.CheckoutItem) ([]domain.CheckoutItem, []string, error) {
	if len(checkout) == 0 {
		return nil, nil, ErrEmptyOrder
	}

	out := make([]domain.CheckoutItem, 0, len(checkout))
	ids := make([]string, 0, len(checkout))
	seen := make(map[string]struct{}, len(checkout))
	for i, c := range checkout {
		c.ItemID = strings.TrimSpace(c.ItemID)
		if c.ItemID == "" {
			return nil, nil, fmt.Errorf("%w: item %d has no id", ErrInvalidCheckout, i)
		}
		if c.Price.IsNegative() {
			return nil, nil, fmt.Errorf("%w: item %s has a negative price", ErrInvalidCheckout, c.ItemID)
		}
		if _, dup := seen[c.ItemID]; dup {
			return nil, nil, fmt.Errorf("%w: item %s listed twice", ErrInvalidCheckout, c.ItemID)
		}
		seen[c.ItemID] = struct{}{}
		out = append(out, c)
		ids = append(ids, c.ItemID)
	}
	return out, ids, nil
}
