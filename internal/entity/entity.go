package entity

import "context"

// Kind identifies the type of shop entity an attribute belongs to
type Kind string

const (
	KindUser    Kind = "user"
	KindProduct Kind = "product"
	KindOrder   Kind = "order"
)

// Attribute keys shared by the sync services
const (
	KeyTripletexCustomerID = "tripletex_customer_id"
	KeyTripletexLinkedBy   = "tripletex_linked_by"
	KeyTripletexLinkedAt   = "tripletex_linked_at"

	KeyTripletexProductID = "_tripletex_product_id"
	KeySKU                = "_sku"
	KeyRegularPrice       = "_regular_price"
	KeyPrice              = "_price"
	KeyStock              = "_stock"
	KeyManageStock        = "_manage_stock"

	KeyTripletexOrderID    = "_tripletex_order_id"
	KeyTripletexLastSyncAt = "_tripletex_last_sync_at"
)

// Repository defines the entity attribute store API
type Repository interface {
	// GetAttribute retrieves a single attribute of an entity and whether it was present
	GetAttribute(ctx context.Context, kind Kind, id int64, key string) (string, bool, error)

	// GetAttributes retrieves every attribute of an entity.
	// The returned map is empty (not nil) if the entity has no attributes.
	GetAttributes(ctx context.Context, kind Kind, id int64) (map[string]string, error)

	// SetAttribute creates or replaces an attribute of an entity
	SetAttribute(ctx context.Context, kind Kind, id int64, key, value string) error

	// DeleteAttribute deletes an attribute of an entity
	DeleteAttribute(ctx context.Context, kind Kind, id int64, key string) error

	// FindByAttribute retrieves the ID of the first entity (lowest ID) whose attribute equals value
	FindByAttribute(ctx context.Context, kind Kind, key, value string) (int64, bool, error)
}
