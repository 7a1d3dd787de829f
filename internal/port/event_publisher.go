package port

import (
	"context"

	"github.com/rl1809/marketplace/internal/core/domain"
)

type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
