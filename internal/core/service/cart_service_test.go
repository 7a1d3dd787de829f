package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/marketplace/internal/core/domain"
)

func TestCartAdd(t *testing.T) {
	sold := item("sold", "s1", 3)
	sold.Status = domain.ItemStatusSold

	tests := []struct {
		name   string
		user   string
		itemID string
		want   error
	}{
		{"ok", "buyer", "a", nil},
		{"blank user", " ", "a", ErrInvalidCartItem},
		{"blank item", "buyer", "", ErrInvalidCartItem},
		{"unknown item", "buyer", "ghost", ErrItemNotFound},
		{"own item", "s1", "a", ErrOwnItem},
		{"sold item", "buyer", "sold", ErrItemsUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(item("a", "s1", 1), sold)

			err := env.cart.Add(context.Background(), tt.user, tt.itemID)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCartAdd_DuplicateAndCap(t *testing.T) {
	items := make([]domain.Item, 0, 12)
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"} {
		items = append(items, item(id, "s1", 1))
	}
	env := newTestEnv(items...)
	ctx := context.Background()

	require.NoError(t, env.cart.Add(ctx, "buyer", "a"))
	assert.ErrorIs(t, env.cart.Add(ctx, "buyer", "a"), ErrAlreadyInCart)

	for _, id := range []string{"b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		require.NoError(t, env.cart.Add(ctx, "buyer", id))
	}
	assert.ErrorIs(t, env.cart.Add(ctx, "buyer", "k"), ErrCartFull)
}

func TestCartRemove_Idempotent(t *testing.T) {
	env := newTestEnv(item("a", "s1", 1))
	ctx := context.Background()
	require.NoError(t, env.cart.Add(ctx, "buyer", "a"))

	require.NoError(t, env.cart.Remove(ctx, "buyer", "a"))
	require.NoError(t, env.cart.Remove(ctx, "buyer", "a"))
	assert.ErrorIs(t, env.cart.Remove(ctx, "", "a"), ErrInvalidCartItem)

	ids, err := env.carts.ItemIDs(ctx, "buyer")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCartListAvailable_HidesSoldItems(t *testing.T) {
	env := newTestEnv(item("a", "s1", 1), item("b", "s2", 2))
	ctx := context.Background()
	require.NoError(t, env.cart.Add(ctx, "buyer", "a"))
	require.NoError(t, env.cart.Add(ctx, "buyer", "b"))

	env.catalog.setStatus("b", domain.ItemStatusSold)

	items, err := env.cart.ListAvailable(ctx, "buyer")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ID)

	empty, err := env.cart.ListAvailable(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestCartSearch(t *testing.T) {
	sold := item("sold", "s2", 1)
	sold.Status = domain.ItemStatusSold
	env := newTestEnv(item("mine", "buyer", 1), item("carted", "s1", 1), item("free", "s2", 1), sold)
	ctx := context.Background()
	require.NoError(t, env.cart.Add(ctx, "buyer", "carted"))

	items, err := env.cart.Search(ctx, "buyer")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "free", items[0].ID)

	_, err = env.cart.Search(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidCartItem)
}
