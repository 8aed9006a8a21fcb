package inmem

import (
	"context"

	"github.com/hashicorp/go-memdb"
	"github.com/lavendelhygiene/ttx-bridge/internal/entity"
	"github.com/lavendelhygiene/ttx-bridge/internal/order"
	"github.com/lavendelhygiene/ttx-bridge/internal/settings"
	"github.com/lavendelhygiene/ttx-bridge/internal/storage"
)

const (
	tableSettings   = "settings"
	tableAttributes = "attributes"
	tableOrders     = "orders"
	tableNotes      = "notes"
)

var dbSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tableSettings: {
			Name: tableSettings,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Key"},
				},
			},
		},
		tableAttributes: {
			Name: tableAttributes,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:   "id",
					Unique: true,
					Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
						&memdb.StringFieldIndex{Field: "Kind"},
						&memdb.IntFieldIndex{Field: "EntityID"},
						&memdb.StringFieldIndex{Field: "Key"},
					}},
				},
				"entity": {
					Name:   "entity",
					Unique: false,
					Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
						&memdb.StringFieldIndex{Field: "Kind"},
						&memdb.IntFieldIndex{Field: "EntityID"},
					}},
				},
				"value": {
					Name:         "value",
					Unique:       false,
					AllowMissing: true,
					Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
						&memdb.StringFieldIndex{Field: "Kind"},
						&memdb.StringFieldIndex{Field: "Key"},
						&memdb.StringFieldIndex{Field: "Value"},
					}},
				},
			},
		},
		tableOrders: {
			Name: tableOrders,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.IntFieldIndex{Field: "ID"},
				},
			},
		},
		tableNotes: {
			Name: tableNotes,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"order": {
					Name:    "order",
					Unique:  false,
					Indexer: &memdb.IntFieldIndex{Field: "OrderID"},
				},
			},
		},
	},
}

// Driver represents the in-memory storage driver built using hashicorp/go-memdb
type Driver struct {
	db       *memdb.MemDB
	settings *SettingsRepository
	entities *EntityRepository
	orders   *OrderRepository
}

var _ storage.Driver = (*Driver)(nil)

// New creates a new empty in-memory storage driver.
// Use Initialize to create the database and initialize the repository implementations.
func New() *Driver {
	return new(Driver)
}

// Initialize creates the in-memory database and initializes the repository implementations
func (driver *Driver) Initialize(_ context.Context) error {
	db, err := memdb.NewMemDB(dbSchema)
	if err != nil {
		return err
	}
	driver.db = db
	driver.settings = &SettingsRepository{db: db}
	driver.entities = &EntityRepository{db: db}
	driver.orders = &OrderRepository{db: db, now: timeNow, newID: newNoteID}
	return nil
}

// Settings provides the in-memory settings repository implementation
func (driver *Driver) Settings() settings.Repository {
	return driver.settings
}

// Entities provides the in-memory entity attribute repository implementation
func (driver *Driver) Entities() entity.Repository {
	return driver.entities
}

// Orders provides the in-memory order repository implementation
func (driver *Driver) Orders() order.Repository {
	return driver.orders
}

// Close discards the repository implementations and the database
func (driver *Driver) Close() {
	driver.settings = nil
	driver.entities = nil
	driver.orders = nil
	driver.db = nil
}
