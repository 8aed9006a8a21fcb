package cache

import (
	"context"
	"time"

	"github.com/lavendelhygiene/ttx-bridge/internal/entity"
	"github.com/lavendelhygiene/ttx-bridge/internal/hashmap"
	"github.com/lavendelhygiene/ttx-bridge/internal/order"
	"github.com/lavendelhygiene/ttx-bridge/internal/settings"
	"github.com/lavendelhygiene/ttx-bridge/internal/storage"
)

const cleanupInterval = 10 * time.Second

// Driver represents a storage driver implementation that wraps another one in order to implement in-memory caching
type Driver struct {
	underlying storage.Driver
	lifetime   time.Duration
	settings   *SettingsRepository
	entities   *EntityRepository
}

var _ storage.Driver = (*Driver)(nil)

// New returns a new caching storage driver keeping values for the given lifetime
func New(underlying storage.Driver, lifetime time.Duration) *Driver {
	return &Driver{
		underlying: underlying,
		lifetime:   lifetime,
	}
}

// Initialize initializes the caching repositories.
// The underlying driver has to be initialized already.
func (driver *Driver) Initialize(_ context.Context) error {
	settingsCache := hashmap.NewExpiring[string, cachedSetting](driver.lifetime)
	settingsCache.ScheduleCleanupTask(cleanupInterval)
	driver.settings = &SettingsRepository{
		repo:  driver.underlying.Settings(),
		cache: settingsCache,
	}

	entityCache := hashmap.NewExpiring[entityKey, map[string]string](driver.lifetime)
	entityCache.ScheduleCleanupTask(cleanupInterval)
	driver.entities = &EntityRepository{
		repo:  driver.underlying.Entities(),
		cache: entityCache,
	}

	return nil
}

// Settings provides the caching settings repository implementation
func (driver *Driver) Settings() settings.Repository {
	return driver.settings
}

// Entities provides the caching entity attribute repository implementation
func (driver *Driver) Entities() entity.Repository {
	return driver.entities
}

// Orders provides the order repository of the underlying driver; orders are not cached
func (driver *Driver) Orders() order.Repository {
	return driver.underlying.Orders()
}

// Close closes the caching repositories and disposes their instances.
// The underlying driver is not closed.
func (driver *Driver) Close() {
	driver.settings.cache.StopCleanupTask()
	driver.settings = nil
	driver.entities.cache.StopCleanupTask()
	driver.entities = nil
}
