package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

// OrderProjector serves caller-scoped read models over stored orders.
type OrderProjector struct {
	orders port.OrderRepository
	expander
}

func NewOrderProjector(orders port.OrderRepository, users port.UserRepository, catalog port.CatalogRepository) *OrderProjector {
	return &OrderProjector{
		orders:   orders,
		expander: expander{users: users, catalog: catalog},
	}
}

// PendingOrders returns the buyer's orders with at least one pending line,
// showing every line of each order.
func (p *OrderProjector) PendingOrders(ctx context.Context, buyerID string) ([]domain.OrderDetails, error) {
	orders, err := p.find(ctx, port.OrderFilter{BuyerID: buyerID, LineStatus: domain.LineItemPending}, buyerID)
	if err != nil {
		return nil, err
	}
	return p.expand(ctx, project(orders, domain.LineWithStatus(domain.LineItemPending), nil), showCodes)
}

// BoughtOrders returns the buyer's orders cut down to completed lines.
func (p *OrderProjector) BoughtOrders(ctx context.Context, buyerID string) ([]domain.OrderDetails, error) {
	orders, err := p.find(ctx, port.OrderFilter{BuyerID: buyerID, LineStatus: domain.LineItemCompleted}, buyerID)
	if err != nil {
		return nil, err
	}
	completed := domain.LineWithStatus(domain.LineItemCompleted)
	return p.expand(ctx, project(orders, completed, completed), showCodes)
}

// SoldOrders returns orders holding any of the seller's lines, cut down to
// those lines.
func (p *OrderProjector) SoldOrders(ctx context.Context, sellerID string) ([]domain.OrderDetails, error) {
	orders, err := p.find(ctx, port.OrderFilter{SellerID: sellerID}, sellerID)
	if err != nil {
		return nil, err
	}
	mine := domain.LineSoldBy(sellerID)
	return p.expand(ctx, project(orders, mine, mine), hideCodes)
}

// PendingDeliveries returns orders cut down to the seller's pending lines.
func (p *OrderProjector) PendingDeliveries(ctx context.Context, sellerID string) ([]domain.OrderDetails, error) {
	orders, err := p.find(ctx, port.OrderFilter{SellerID: sellerID, LineStatus: domain.LineItemPending}, sellerID)
	if err != nil {
		return nil, err
	}
	mine := domain.LineSoldByWithStatus(sellerID, domain.LineItemPending)
	return p.expand(ctx, project(orders, mine, mine), hideCodes)
}

func (p *OrderProjector) find(ctx context.Context, filter port.OrderFilter, caller string) ([]domain.Order, error) {
	if strings.TrimSpace(caller) == "" {
		return nil, ErrMissingCaller
	}
	orders, err := p.orders.FindOrders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	if filter.BuyerID == "" {
		return orders, nil
	}
	owned := orders[:0]
	for _, o := range orders {
		if o.BuyerID == filter.BuyerID {
			owned = append(owned, o)
		}
	}
	return owned, nil
}

// project keeps orders having a line matching include and, when keep is set,
// trims their lines to keep. Orders left with no lines are dropped.
// include is rechecked here so a repository that over-fetches cannot leak.
// The status is taken before trimming.
func project(orders []domain.Order, include, keep func(domain.LineItem) bool) []scoped {
	out := make([]scoped, 0, len(orders))
	for _, o := range orders {
		if !o.HasLine(include) {
			continue
		}
		s := whole(o)
		if keep != nil {
			s.Order = o.FilterLines(keep)
		}
		if len(s.Items) == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}
