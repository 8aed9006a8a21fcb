package inmem

import (
	"context"

	"github.com/hashicorp/go-memdb"
	"github.com/lavendelhygiene/ttx-bridge/internal/settings"
)

type settingRow struct {
	Key   string
	Value string
}

// SettingsRepository implements the settings.Repository interface using go-memdb
type SettingsRepository struct {
	db *memdb.MemDB
}

var _ settings.Repository = (*SettingsRepository)(nil)

// Get retrieves the value of a setting and whether it was present
func (repo *SettingsRepository) Get(_ context.Context, key string) (string, bool, error) {
	txn := repo.db.Txn(false)
	obj, err := txn.First(tableSettings, "id", key)
	if err != nil {
		return "", false, err
	}
	if obj == nil {
		return "", false, nil
	}
	return obj.(*settingRow).Value, true, nil
}

// Set creates or replaces the value of a setting
func (repo *SettingsRepository) Set(_ context.Context, key, value string) error {
	txn := repo.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(tableSettings, &settingRow{Key: key, Value: value}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}
