package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

// codeVisibility controls whether delivery codes survive expansion.
// Buyers read their codes back; sellers must get them from the buyer.
type codeVisibility bool

const (
	showCodes codeVisibility = true
	hideCodes codeVisibility = false
)

// scoped is an order trimmed for one caller. status belongs to the stored
// order, before any lines were dropped.
type scoped struct {
	domain.Order
	status domain.OrderStatus
}

func whole(o domain.Order) scoped {
	return scoped{Order: o, status: o.Status()}
}

type expander struct {
	users   port.UserRepository
	catalog port.CatalogRepository
}

func (e expander) expand(ctx context.Context, orders []scoped, codes codeVisibility) ([]domain.OrderDetails, error) {
	if len(orders) == 0 {
		return []domain.OrderDetails{}, nil
	}

	userIDs := make(map[string]struct{})
	itemIDs := make(map[string]struct{})
	for _, o := range orders {
		userIDs[o.BuyerID] = struct{}{}
		for _, li := range o.Items {
			userIDs[li.SellerID] = struct{}{}
			itemIDs[li.ItemID] = struct{}{}
		}
	}

	var (
		users map[string]domain.User
		items map[string]domain.Item
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := e.users.GetUsers(gctx, keys(userIDs))
		if err != nil {
			return fmt.Errorf("load users: %w", err)
		}
		users = make(map[string]domain.User, len(found))
		for _, u := range found {
			users[u.ID] = u
		}
		return nil
	})
	g.Go(func() error {
		found, err := e.catalog.GetItems(gctx, keys(itemIDs))
		if err != nil {
			return fmt.Errorf("load items: %w", err)
		}
		items = make(map[string]domain.Item, len(found))
		for _, it := range found {
			items[it.ID] = it
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.OrderDetails, 0, len(orders))
	for _, o := range orders {
		out = append(out, detailsOf(o, users, items, codes))
	}
	return out, nil
}

func detailsOf(o scoped, users map[string]domain.User, items map[string]domain.Item, codes codeVisibility) domain.OrderDetails {
	lines := make([]domain.LineItemDetails, 0, len(o.Items))
	for _, li := range o.Items {
		d := domain.LineItemDetails{
			Item:        summarizeItem(li.ItemID, items),
			Seller:      summarizeUser(li.SellerID, users),
			Status:      li.Status,
			CompletedAt: li.CompletedAt,
		}
		if codes == showCodes {
			d.OTP = li.OTP
		}
		lines = append(lines, d)
	}

	return domain.OrderDetails{
		ID:        o.ID,
		Buyer:     summarizeUser(o.BuyerID, users),
		Items:     lines,
		Total:     o.Total,
		Status:    o.status,
		CreatedAt: o.CreatedAt,
	}
}

// Missing records still yield a summary carrying the id.
func summarizeUser(id string, users map[string]domain.User) domain.UserSummary {
	if u, ok := users[id]; ok {
		return domain.SummarizeUser(u)
	}
	return domain.UserSummary{ID: id}
}

func summarizeItem(id string, items map[string]domain.Item) domain.ItemSummary {
	if it, ok := items[id]; ok {
		return domain.SummarizeItem(it)
	}
	return domain.ItemSummary{ID: id}
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
