package port

import (
	"context"

	"github.com/rl1809/marketplace/internal/core/domain"
)

type CatalogRepository interface {
	// GetItems returns the items that exist among ids, in no particular order
	GetItems(ctx context.Context, ids []string) ([]domain.Item, error)

	// ReserveItems flips every id from available to sold in one atomic step.
	// Returns false, with nothing changed, if any id is not currently available.
	ReserveItems(ctx context.Context, ids []string) (bool, error)

	// ReleaseItems flips sold items back to available (compensation)
	ReleaseItems(ctx context.Context, ids []string) error

	// MarkSold sets a single item to sold; a no-op if it already is
	MarkSold(ctx context.Context, id string) error

	// SearchAvailable lists available items not sold by excludeSeller and not in excludeIDs
	SearchAvailable(ctx context.Context, excludeSeller string, excludeIDs []string) ([]domain.Item, error)
}
