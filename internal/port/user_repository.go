package port

import (
	"context"

	"github.com/rl1809/marketplace/internal/core/domain"
)

type UserRepository interface {
	// GetUsers returns the users that exist among ids
	GetUsers(ctx context.Context, ids []string) ([]domain.User, error)
}
