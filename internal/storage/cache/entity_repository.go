package cache

import (
	"context"

	"github.com/lavendelhygiene/ttx-bridge/internal/entity"
	"github.com/lavendelhygiene/ttx-bridge/internal/hashmap"
)

type entityKey struct {
	kind entity.Kind
	id   int64
}

// EntityRepository implements the entity.Repository interface in order to implement caching.
// All attributes of an entity are cached together; writes invalidate the entity.
type EntityRepository struct {
	repo  entity.Repository
	cache *hashmap.ExpiringMap[entityKey, map[string]string]
}

var _ entity.Repository = (*EntityRepository)(nil)

// GetAttribute retrieves a single attribute of an entity and whether it was present
func (repo *EntityRepository) GetAttribute(ctx context.Context, kind entity.Kind, id int64, key string) (string, bool, error) {
	attrs, err := repo.attributes(ctx, kind, id)
	if err != nil {
		return "", false, err
	}
	value, ok := attrs[key]
	return value, ok, nil
}

// GetAttributes retrieves every attribute of an entity
func (repo *EntityRepository) GetAttributes(ctx context.Context, kind entity.Kind, id int64) (map[string]string, error) {
	attrs, err := repo.attributes(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	cpy := make(map[string]string, len(attrs))
	for key, value := range attrs {
		cpy[key] = value
	}
	return cpy, nil
}

// SetAttribute creates or replaces an attribute of an entity
func (repo *EntityRepository) SetAttribute(ctx context.Context, kind entity.Kind, id int64, key, value string) error {
	defer repo.cache.Unset(entityKey{kind: kind, id: id})
	return repo.repo.SetAttribute(ctx, kind, id, key, value)
}

// DeleteAttribute deletes an attribute of an entity
func (repo *EntityRepository) DeleteAttribute(ctx context.Context, kind entity.Kind, id int64, key string) error {
	defer repo.cache.Unset(entityKey{kind: kind, id: id})
	return repo.repo.DeleteAttribute(ctx, kind, id, key)
}

// FindByAttribute retrieves the lowest ID of an entity whose attribute equals value.
// Lookups by value are not cached.
func (repo *EntityRepository) FindByAttribute(ctx context.Context, kind entity.Kind, key, value string) (int64, bool, error) {
	return repo.repo.FindByAttribute(ctx, kind, key, value)
}

func (repo *EntityRepository) attributes(ctx context.Context, kind entity.Kind, id int64) (map[string]string, error) {
	cacheKey := entityKey{kind: kind, id: id}
	if cached, ok := repo.cache.Lookup(cacheKey); ok {
		return cached, nil
	}
	attrs, err := repo.repo.GetAttributes(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	repo.cache.Set(cacheKey, attrs)
	return attrs, nil
}
