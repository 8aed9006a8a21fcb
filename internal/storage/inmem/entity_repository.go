package inmem

import (
	"context"

	"github.com/hashicorp/go-memdb"
	"github.com/lavendelhygiene/ttx-bridge/internal/entity"
)

type attributeRow struct {
	Kind     string
	EntityID int64
	Key      string
	Value    string
}

// EntityRepository implements the entity.Repository interface using go-memdb
type EntityRepository struct {
	db *memdb.MemDB
}

var _ entity.Repository = (*EntityRepository)(nil)

// GetAttribute retrieves a single attribute of an entity and whether it was present
func (repo *EntityRepository) GetAttribute(_ context.Context, kind entity.Kind, id int64, key string) (string, bool, error) {
	txn := repo.db.Txn(false)
	obj, err := txn.First(tableAttributes, "id", string(kind), id, key)
	if err != nil {
		return "", false, err
	}
	if obj == nil {
		return "", false, nil
	}
	return obj.(*attributeRow).Value, true, nil
}

// GetAttributes retrieves every attribute of an entity
func (repo *EntityRepository) GetAttributes(_ context.Context, kind entity.Kind, id int64) (map[string]string, error) {
	txn := repo.db.Txn(false)
	it, err := txn.Get(tableAttributes, "entity", string(kind), id)
	if err != nil {
		return nil, err
	}
	attrs := map[string]string{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		row := obj.(*attributeRow)
		attrs[row.Key] = row.Value
	}
	return attrs, nil
}

// SetAttribute creates or replaces an attribute of an entity
func (repo *EntityRepository) SetAttribute(_ context.Context, kind entity.Kind, id int64, key, value string) error {
	txn := repo.db.Txn(true)
	defer txn.Abort()
	row := &attributeRow{
		Kind:     string(kind),
		EntityID: id,
		Key:      key,
		Value:    value,
	}
	if err := txn.Insert(tableAttributes, row); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// DeleteAttribute deletes an attribute of an entity
func (repo *EntityRepository) DeleteAttribute(_ context.Context, kind entity.Kind, id int64, key string) error {
	txn := repo.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll(tableAttributes, "id", string(kind), id, key); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// FindByAttribute retrieves the lowest ID of an entity whose attribute equals value
func (repo *EntityRepository) FindByAttribute(_ context.Context, kind entity.Kind, key, value string) (int64, bool, error) {
	if value == "" {
		return 0, false, nil
	}
	txn := repo.db.Txn(false)
	it, err := txn.Get(tableAttributes, "value", string(kind), key, value)
	if err != nil {
		return 0, false, err
	}
	var (
		found bool
		id    int64
	)
	for obj := it.Next(); obj != nil; obj = it.Next() {
		row := obj.(*attributeRow)
		if !found || row.EntityID < id {
			id = row.EntityID
			found = true
		}
	}
	return id, found, nil
}
