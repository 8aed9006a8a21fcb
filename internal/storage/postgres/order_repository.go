package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lavendelhygiene/ttx-bridge/internal/order"
	"github.com/shopspring/decimal"
)

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// OrderRepository implements the order.Repository interface using PostgreSQL
type OrderRepository struct {
	db  *pgxpool.Pool
	now func() time.Time
}

var _ order.Repository = (*OrderRepository)(nil)

func newOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{
		db:  db,
		now: time.Now,
	}
}

// GetByID retrieves an order by its ID
func (repo *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	obj := new(order.Order)
	var status, shipping string
	err := repo.db.QueryRow(
		ctx,
		"SELECT order_id, number, user_id, status, currency, created_at, customer_note, shipping::text FROM orders WHERE order_id = $1",
		id,
	).Scan(&obj.ID, &obj.Number, &obj.UserID, &status, &obj.Currency, &obj.CreatedAt, &obj.CustomerNote, &shipping)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	obj.Status = order.Status(status)
	if err := json.Unmarshal([]byte(shipping), &obj.Shipping); err != nil {
		return nil, err
	}

	rows, err := repo.db.Query(
		ctx,
		"SELECT product_id, name, quantity::text, total::text FROM order_lines WHERE order_id = $1 ORDER BY position ASC",
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	obj.Lines = []order.Line{}
	for rows.Next() {
		var (
			line            order.Line
			quantity, total string
		)
		if err := rows.Scan(&line.ProductID, &line.Name, &quantity, &total); err != nil {
			return nil, err
		}
		if line.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, err
		}
		if line.Total, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		obj.Lines = append(obj.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return obj, nil
}

// Save creates or replaces an order including its lines
func (repo *OrderRepository) Save(ctx context.Context, obj *order.Order) error {
	shipping, err := json.Marshal(obj.Shipping)
	if err != nil {
		return err
	}

	// Begin a new transaction
	tx, err := repo.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Upsert the order row itself
	query := squirrel.Insert("orders").
		Columns("order_id", "number", "user_id", "status", "currency", "created_at", "customer_note", "shipping").
		Values(obj.ID, obj.Number, obj.UserID, string(obj.Status), obj.Currency, obj.CreatedAt, obj.CustomerNote, string(shipping)).
		Suffix(`ON CONFLICT (order_id) DO UPDATE SET
			number = EXCLUDED.number,
			user_id = EXCLUDED.user_id,
			status = EXCLUDED.status,
			currency = EXCLUDED.currency,
			created_at = EXCLUDED.created_at,
			customer_note = EXCLUDED.customer_note,
			shipping = EXCLUDED.shipping`)
	sql, values, err := query.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, sql, values...); err != nil {
		return err
	}

	// Replace the order lines
	if _, err := tx.Exec(ctx, "DELETE FROM order_lines WHERE order_id = $1", obj.ID); err != nil {
		return err
	}
	if len(obj.Lines) > 0 {
		lines := squirrel.Insert("order_lines").Columns("order_id", "position", "product_id", "name", "quantity", "total")
		for i, line := range obj.Lines {
			lines = lines.Values(obj.ID, i, line.ProductID, line.Name, line.Quantity.String(), line.Total.String())
		}
		sql, values, err := lines.PlaceholderFormat(squirrel.Dollar).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sql, values...); err != nil {
			return err
		}
	}

	// Commit the changes
	return tx.Commit(ctx)
}

// Complete atomically transitions an order to order.StatusCompleted and attaches the note
func (repo *OrderRepository) Complete(ctx context.Context, id int64, note string) (bool, error) {
	tx, err := repo.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(
		ctx,
		"UPDATE orders SET status = $1 WHERE order_id = $2 AND status <> $1",
		string(order.StatusCompleted),
		id,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if err := repo.insertNote(ctx, tx, id, note); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// AddNote attaches an audit note to an order
func (repo *OrderRepository) AddNote(ctx context.Context, id int64, note string) error {
	return repo.insertNote(ctx, repo.db, id, note)
}

// Notes retrieves the audit notes of an order ordered by creation time
func (repo *OrderRepository) Notes(ctx context.Context, id int64) ([]*order.Note, error) {
	rows, err := repo.db.Query(
		ctx,
		"SELECT note_id::text, order_id, text, created_at FROM order_notes WHERE order_id = $1 ORDER BY created_at ASC",
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []*order.Note{}
	for rows.Next() {
		note := new(order.Note)
		if err := rows.Scan(&note.ID, &note.OrderID, &note.Text, &note.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func (repo *OrderRepository) insertNote(ctx context.Context, db execer, id int64, note string) error {
	_, err := db.Exec(
		ctx,
		"INSERT INTO order_notes (note_id, order_id, text, created_at) VALUES ($1, $2, $3, $4)",
		uuid.NewString(),
		id,
		note,
		repo.now(),
	)
	return err
}
