package settings

import "context"

// Repository defines the key-value settings store API
type Repository interface {
	// Get retrieves the value of a setting and whether it was present
	Get(ctx context.Context, key string) (string, bool, error)

	// Set creates or replaces the value of a setting
	Set(ctx context.Context, key, value string) error
}
