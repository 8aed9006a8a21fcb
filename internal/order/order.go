package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the lifecycle status of a shop order
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusOnHold     Status = "on-hold"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Order represents a shop order
type Order struct {
	ID           int64     `json:"id"`
	Number       string    `json:"number"`
	UserID       int64     `json:"user_id"`
	Status       Status    `json:"status"`
	Currency     string    `json:"currency"`
	CreatedAt    time.Time `json:"created_at"`
	CustomerNote string    `json:"customer_note"`
	Shipping     Contact   `json:"shipping"`
	Lines        []Line    `json:"lines"`
}

// Contact represents the shipping contact and address of an order
type Contact struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	Postcode  string `json:"postcode"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

// Line represents a single product line of an order.
// Total is the line total excluding VAT.
type Line struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

// Note represents an audit note attached to an order
type Note struct {
	ID        string    `json:"id"`
	OrderID   int64     `json:"order_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a deep copy of the order
func (obj *Order) Clone() *Order {
	cpy := *obj
	cpy.Lines = append([]Line(nil), obj.Lines...)
	return &cpy
}
