package contact

import (
	"context"

	domain "curapharm/internal/domain/contact"
)

// Store persists contact messages.
type Store interface {
	Save(ctx context.Context, m domain.Message) error
	List(ctx context.Context, limit int) ([]domain.Message, error)
}
