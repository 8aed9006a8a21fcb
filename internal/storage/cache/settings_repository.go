package cache

import (
	"context"

	"github.com/lavendelhygiene/ttx-bridge/internal/hashmap"
	"github.com/lavendelhygiene/ttx-bridge/internal/settings"
)

type cachedSetting struct {
	value string
	ok    bool
}

// SettingsRepository implements the settings.Repository interface in order to implement caching
type SettingsRepository struct {
	repo  settings.Repository
	cache *hashmap.ExpiringMap[string, cachedSetting]
}

var _ settings.Repository = (*SettingsRepository)(nil)

// Get retrieves the value of a setting and whether it was present
func (repo *SettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	if cached, ok := repo.cache.Lookup(key); ok {
		return cached.value, cached.ok, nil
	}
	value, ok, err := repo.repo.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	repo.cache.Set(key, cachedSetting{value: value, ok: ok})
	return value, ok, nil
}

// Set creates or replaces the value of a setting
func (repo *SettingsRepository) Set(ctx context.Context, key, value string) error {
	if err := repo.repo.Set(ctx, key, value); err != nil {
		repo.cache.Unset(key)
		return err
	}
	repo.cache.Set(key, cachedSetting{value: value, ok: true})
	return nil
}
