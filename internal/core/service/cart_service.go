package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

var (
	ErrInvalidCartItem = errors.New("user id and item id are required")
	ErrAlreadyInCart   = errors.New("item already in cart")
	ErrCartFull        = errors.New("cart is full")
	ErrItemNotFound    = errors.New("item not found")
	ErrOwnItem         = errors.New("cannot buy your own item")
)

type CartService struct {
	log      *slog.Logger
	carts    port.CartRepository
	catalog  port.CatalogRepository
	maxItems int
}

func NewCartService(log *slog.Logger, carts port.CartRepository, catalog port.CatalogRepository, maxItems int) *CartService {
	return &CartService{log: log, carts: carts, catalog: catalog, maxItems: maxItems}
}

func (s *CartService) Add(ctx context.Context, userID, itemID string) error {
	userID, itemID = strings.TrimSpace(userID), strings.TrimSpace(itemID)
	if userID == "" || itemID == "" {
		return ErrInvalidCartItem
	}

	items, err := s.catalog.GetItems(ctx, []string{itemID})
	if err != nil {
		return fmt.Errorf("lookup item: %w", err)
	}
	if len(items) == 0 {
		return ErrItemNotFound
	}
	item := items[0]
	if item.SellerID == userID {
		return ErrOwnItem
	}
	if !item.Available() {
		return ErrItemsUnavailable
	}

	res, err := s.carts.AddItem(ctx, userID, itemID, s.maxItems)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	switch res {
	case port.CartItemExists:
		return ErrAlreadyInCart
	case port.CartFull:
		return ErrCartFull
	}

	return nil
}

func (s *CartService) Remove(ctx context.Context, userID, itemID string) error {
	userID, itemID = strings.TrimSpace(userID), strings.TrimSpace(itemID)
	if userID == "" || itemID == "" {
		return ErrInvalidCartItem
	}

	if err := s.carts.RemoveItem(ctx, userID, itemID); err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}

// Clear empties the cart. Only checkout calls it.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	if err := s.carts.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// ListAvailable returns cart items whose catalog status is still available.
// A listed item may still lose the race at checkout.
func (s *CartService) ListAvailable(ctx context.Context, userID string) ([]domain.Item, error) {
	ids, err := s.carts.ItemIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Item{}, nil
	}

	items, err := s.catalog.GetItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup cart items: %w", err)
	}

	available := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if it.Available() {
			available = append(available, it)
		}
	}
	return available, nil
}

// Search lists items the user could add: available, sold by someone else
// and not already in the cart.
func (s *CartService) Search(ctx context.Context, userID string) ([]domain.Item, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidCartItem
	}

	inCart, err := s.carts.ItemIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	items, err := s.catalog.SearchAvailable(ctx, userID, inCart)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	return items, nil
}
