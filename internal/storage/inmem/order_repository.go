package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
	"github.com/lavendelhygiene/ttx-bridge/internal/order"
)

var timeNow = time.Now

func newNoteID() string {
	return uuid.NewString()
}

// OrderRepository implements the order.Repository interface using go-memdb
type OrderRepository struct {
	db    *memdb.MemDB
	now   func() time.Time
	newID func() string
}

var _ order.Repository = (*OrderRepository)(nil)

// GetByID retrieves an order by its ID
func (repo *OrderRepository) GetByID(_ context.Context, id int64) (*order.Order, error) {
	txn := repo.db.Txn(false)
	obj, err := txn.First(tableOrders, "id", id)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}
	return obj.(*order.Order).Clone(), nil
}

// Save creates or replaces an order including its lines
func (repo *OrderRepository) Save(_ context.Context, obj *order.Order) error {
	txn := repo.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(tableOrders, obj.Clone()); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// Complete atomically transitions an order to order.StatusCompleted and attaches the note
func (repo *OrderRepository) Complete(_ context.Context, id int64, note string) (bool, error) {
	txn := repo.db.Txn(true)
	defer txn.Abort()

	obj, err := txn.First(tableOrders, "id", id)
	if err != nil {
		return false, err
	}
	if obj == nil || obj.(*order.Order).Status == order.StatusCompleted {
		return false, nil
	}

	completed := obj.(*order.Order).Clone()
	completed.Status = order.StatusCompleted
	if err := txn.Insert(tableOrders, completed); err != nil {
		return false, err
	}
	if err := txn.Insert(tableNotes, repo.note(id, note)); err != nil {
		return false, err
	}

	txn.Commit()
	return true, nil
}

// AddNote attaches an audit note to an order
func (repo *OrderRepository) AddNote(_ context.Context, id int64, note string) error {
	txn := repo.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(tableNotes, repo.note(id, note)); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// Notes retrieves the audit notes of an order ordered by creation time
func (repo *OrderRepository) Notes(_ context.Context, id int64) ([]*order.Note, error) {
	txn := repo.db.Txn(false)
	it, err := txn.Get(tableNotes, "order", id)
	if err != nil {
		return nil, err
	}
	notes := []*order.Note{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		cpy := *obj.(*order.Note)
		notes = append(notes, &cpy)
	}
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].CreatedAt.Before(notes[j].CreatedAt)
	})
	return notes, nil
}

func (repo *OrderRepository) note(orderID int64, text string) *order.Note {
	return &order.Note{
		ID:        repo.newID(),
		OrderID:   orderID,
		Text:      text,
		CreatedAt: repo.now(),
	}
}
