package cache

import (
	"context"
	"testing"
	"time"

	"github.com/lavendelhygiene/ttx-bridge/internal/entity"
	"github.com/lavendelhygiene/ttx-bridge/internal/storage/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDrivers(t *testing.T) (*Driver, *inmem.Driver) {
	underlying := inmem.New()
	require.NoError(t, underlying.Initialize(context.Background()))
	driver := New(underlying, time.Minute)
	require.NoError(t, driver.Initialize(context.Background()))
	t.Cleanup(func() {
		driver.Close()
		underlying.Close()
	})
	return driver, underlying
}

func TestSettingsAreCached(t *testing.T) {
	ctx := context.Background()
	driver, underlying := newDrivers(t)

	_, ok, err := driver.Settings().Get(ctx, "tripletex_session")
	require.NoError(t, err)
	assert.False(t, ok)

	// Writes bypassing the cache stay invisible until the entry expires
	require.NoError(t, underlying.Settings().Set(ctx, "tripletex_session", "a"))
	_, ok, err = driver.Settings().Get(ctx, "tripletex_session")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, driver.Settings().Set(ctx, "tripletex_session", "b"))
	value, ok, err := driver.Settings().Get(ctx, "tripletex_session")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", value)

	value, _, err = underlying.Settings().Get(ctx, "tripletex_session")
	require.NoError(t, err)
	assert.Equal(t, "b", value)
}

func TestEntityWritesInvalidate(t *testing.T) {
	ctx := context.Background()
	driver, underlying := newDrivers(t)
	repo := driver.Entities()

	require.NoError(t, repo.SetAttribute(ctx, entity.KindProduct, 1, entity.KeySKU, "SKU-1"))
	value, ok, err := repo.GetAttribute(ctx, entity.KindProduct, 1, entity.KeySKU)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "SKU-1", value)

	require.NoError(t, underlying.Entities().SetAttribute(ctx, entity.KindProduct, 1, entity.KeyPrice, "10.00"))
	_, ok, err = repo.GetAttribute(ctx, entity.KindProduct, 1, entity.KeyPrice)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.DeleteAttribute(ctx, entity.KindProduct, 1, entity.KeySKU))
	attrs, err := repo.GetAttributes(ctx, entity.KindProduct, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{entity.KeyPrice: "10.00"}, attrs)

	attrs["mutated"] = "yes"
	attrs, err = repo.GetAttributes(ctx, entity.KindProduct, 1)
	require.NoError(t, err)
	assert.NotContains(t, attrs, "mutated")

	id, found, err := repo.FindByAttribute(ctx, entity.KindProduct, entity.KeyPrice, "10.00")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(1), id)
}
