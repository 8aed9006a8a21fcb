package order

import "context"

// Repository defines the order store API
type Repository interface {
	// GetByID retrieves an order by its ID; nil if it does not exist
	GetByID(ctx context.Context, id int64) (*Order, error)

	// Save creates or replaces an order including its lines
	Save(ctx context.Context, order *Order) error

	// Complete atomically transitions an order to StatusCompleted and attaches the note.
	// It reports false without side effects if the order was already completed or does not exist.
	Complete(ctx context.Context, id int64, note string) (bool, error)

	// AddNote attaches an audit note to an order
	AddNote(ctx context.Context, id int64, note string) error

	// Notes retrieves the audit notes of an order ordered by creation time
	Notes(ctx context.Context, id int64) ([]*Note, error)
}
