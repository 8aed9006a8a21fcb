package storage

import (
	"context"

	"github.com/lavendelhygiene/ttx-bridge/internal/entity"
	"github.com/lavendelhygiene/ttx-bridge/internal/order"
	"github.com/lavendelhygiene/ttx-bridge/internal/settings"
)

// Driver represents a storage driver
type Driver interface {
	// Initialize initializes the storage driver (i.e. opens a database connection)
	Initialize(ctx context.Context) error

	// Settings provides a settings repository implementation
	Settings() settings.Repository

	// Entities provides an entity attribute repository implementation
	Entities() entity.Repository

	// Orders provides an order repository implementation
	Orders() order.Repository

	// Close closes the storage driver (i.e. closes a database connection)
	Close()
}
