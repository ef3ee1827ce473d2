package session

import (
	"context"
	"errors"

	"github.com/kostush/purchase-gateway-sub009/internal/domain"
)

// ErrNotFound is returned when no purchase process exists for a session id,
// whether it never existed or its entry expired.
var ErrNotFound = errors.New("purchase session not found")

// Store is the durable keyed store holding serialized purchase-process state.
// Entries expire via TTL; this layer never deletes them explicitly.
type Store interface {
	// Load reads and restores the process stored under sessionID.
	Load(ctx context.Context, sessionID string) (*domain.PurchaseProcess, error)

	// Update serializes the process and writes it back under its session id,
	// refreshing the TTL.
	Update(ctx context.Context, p *domain.PurchaseProcess) error
}
