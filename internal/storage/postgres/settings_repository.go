package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lavendelhygiene/ttx-bridge/internal/settings"
)

// SettingsRepository implements the settings.Repository interface using PostgreSQL
type SettingsRepository struct {
	db *pgxpool.Pool
}

var _ settings.Repository = (*SettingsRepository)(nil)

// Get retrieves the value of a setting and whether it was present
func (repo *SettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	if err := repo.db.QueryRow(ctx, "SELECT value FROM settings WHERE key = $1", key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// Set creates or replaces the value of a setting
func (repo *SettingsRepository) Set(ctx context.Context, key, value string) error {
	_, err := repo.db.Exec(
		ctx,
		"INSERT INTO settings (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value",
		key,
		value,
	)
	return err
}
