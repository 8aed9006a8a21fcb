package hashmap

// Map represents the interface every map provided by this package has to implement
type Map[K comparable, V any] interface {
	// Size returns the amount of stored key-value pairs
	Size() int

	// Lookup returns the value assigned to the given key and a boolean indicating whether it was present
	Lookup(key K) (V, bool)

	// Set sets a key-value pair
	Set(key K, value V)

	// Unset deletes the value assigned to given key
	Unset(key K)

	// Clear removes every key-value pair
	Clear()

	// Range calls fn for every key-value pair while holding the map's lock.
	// Returning false from fn stops the iteration.
	Range(fn func(key K, value V) bool)
}
