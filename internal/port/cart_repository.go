package port

import "context"

type CartAddResult int

const (
	CartItemAdded CartAddResult = iota
	CartItemExists
	CartFull
)

type CartRepository interface {
	// AddItem adds itemID to the user's cart unless it is already there or the
	// cart already holds maxItems ids. The check and the insert are atomic.
	AddItem(ctx context.Context, userID, itemID string, maxItems int) (CartAddResult, error)

	// RemoveItem is a no-op for ids not in the cart
	RemoveItem(ctx context.Context, userID, itemID string) error

	Clear(ctx context.Context, userID string) error

	ItemIDs(ctx context.Context, userID string) ([]string, error)
}
