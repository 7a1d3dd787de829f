package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rl1809/marketplace/internal/port"
)

var ErrItemsUnavailable = errors.New("some items are no longer available")

// InventoryGuard makes sure an item is claimed by at most one order.
type InventoryGuard struct {
	log     *slog.Logger
	catalog port.CatalogRepository
}

func NewInventoryGuard(log *slog.Logger, catalog port.CatalogRepository) *InventoryGuard {
	return &InventoryGuard{log: log, catalog: catalog}
}

// Reserve marks every id sold, or none of them.
func (g *InventoryGuard) Reserve(ctx context.Context, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return ErrEmptyOrder
	}

	ok, err := g.catalog.ReserveItems(ctx, itemIDs)
	if err != nil {
		return fmt.Errorf("reserve items: %w", err)
	}
	if !ok {
		return ErrItemsUnavailable
	}

	return nil
}

// Release undoes a reservation whose order could not be written.
func (g *InventoryGuard) Release(ctx context.Context, itemIDs []string) error {
	if err := g.catalog.ReleaseItems(ctx, itemIDs); err != nil {
		g.log.Error("orphaned reservation: release failed", "item_ids", itemIDs, "err", err)
		return fmt.Errorf("release items: %w", err)
	}

	g.log.Warn("reservation released", "item_ids", itemIDs)
	return nil
}
