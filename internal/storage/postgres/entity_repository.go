package postgres

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lavendelhygiene/ttx-bridge/internal/entity"
)

// EntityRepository implements the entity.Repository interface using PostgreSQL
type EntityRepository struct {
	db *pgxpool.Pool
}

var _ entity.Repository = (*EntityRepository)(nil)

// GetAttribute retrieves a single attribute of an entity and whether it was present
func (repo *EntityRepository) GetAttribute(ctx context.Context, kind entity.Kind, id int64, key string) (string, bool, error) {
	var value string
	err := repo.db.QueryRow(
		ctx,
		"SELECT value FROM entity_attributes WHERE kind = $1 AND entity_id = $2 AND key = $3",
		string(kind),
		id,
		key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// GetAttributes retrieves every attribute of an entity
func (repo *EntityRepository) GetAttributes(ctx context.Context, kind entity.Kind, id int64) (map[string]string, error) {
	rows, err := repo.db.Query(ctx, "SELECT key, value FROM entity_attributes WHERE kind = $1 AND entity_id = $2", string(kind), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attrs := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		attrs[key] = value
	}
	return attrs, rows.Err()
}

// SetAttribute creates or replaces an attribute of an entity
func (repo *EntityRepository) SetAttribute(ctx context.Context, kind entity.Kind, id int64, key, value string) error {
	query := squirrel.Insert("entity_attributes").
		Columns("kind", "entity_id", "key", "value").
		Values(string(kind), id, key, value).
		Suffix("ON CONFLICT (kind, entity_id, key) DO UPDATE SET value = EXCLUDED.value")
	sql, values, err := query.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return err
	}
	_, err = repo.db.Exec(ctx, sql, values...)
	return err
}

// DeleteAttribute deletes an attribute of an entity
func (repo *EntityRepository) DeleteAttribute(ctx context.Context, kind entity.Kind, id int64, key string) error {
	_, err := repo.db.Exec(
		ctx,
		"DELETE FROM entity_attributes WHERE kind = $1 AND entity_id = $2 AND key = $3",
		string(kind),
		id,
		key,
	)
	return err
}

// FindByAttribute retrieves the lowest ID of an entity whose attribute equals value
func (repo *EntityRepository) FindByAttribute(ctx context.Context, kind entity.Kind, key, value string) (int64, bool, error) {
	if value == "" {
		return 0, false, nil
	}
	query := squirrel.Select("entity_id").
		From("entity_attributes").
		Where(squirrel.Eq{"kind": string(kind), "key": key, "value": value}).
		OrderBy("entity_id ASC").
		Limit(1)
	sql, values, err := query.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return 0, false, err
	}

	var id int64
	if err := repo.db.QueryRow(ctx, sql, values...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return id, true, nil
}
