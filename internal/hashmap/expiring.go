package hashmap

import (
	"time"

	"github.com/lavendelhygiene/ttx-bridge/internal/task"
)

type expiringEntry[T any] struct {
	raw     T
	expires time.Time
}

// ExpiringMap implements the Map interface and wraps a NormalMap in order to let values expire after a lifetime.
// Expired values are never returned by Lookup; ScheduleCleanupTask additionally frees their memory periodically.
type ExpiringMap[K comparable, V any] struct {
	normal      *NormalMap[K, *expiringEntry[V]]
	lifetime    time.Duration
	now         func() time.Time
	cleanupTask *task.RepeatingTask
}

var _ Map[int, any] = (*ExpiringMap[int, any])(nil)

// NewExpiring creates a new expiring map whose values exist for a specific lifetime
func NewExpiring[K comparable, V any](lifetime time.Duration) *ExpiringMap[K, V] {
	return &ExpiringMap[K, V]{
		normal:   NewNormal[K, *expiringEntry[V]](),
		lifetime: lifetime,
		now:      time.Now,
	}
}

// ScheduleCleanupTask schedules the task that removes expired values in a specific interval.
// StopCleanupTask has to be called as soon as the map is no longer needed.
func (obj *ExpiringMap[K, V]) ScheduleCleanupTask(tick time.Duration) {
	if obj.cleanupTask != nil {
		return
	}
	obj.cleanupTask = task.NewRepeating(func() {
		obj.RemoveExpired()
	}, tick)
	obj.cleanupTask.Start()
}

// StopCleanupTask stops the cleanup task
func (obj *ExpiringMap[K, V]) StopCleanupTask() {
	if obj.cleanupTask == nil {
		return
	}
	obj.cleanupTask.Stop(false)
	obj.cleanupTask = nil
}

// RemoveExpired removes every expired value and returns how many were removed
func (obj *ExpiringMap[K, V]) RemoveExpired() int {
	now := obj.now()
	return obj.normal.deleteWhere(func(_ K, val *expiringEntry[V]) bool {
		return !now.Before(val.expires)
	})
}

// Size returns the amount of stored key-value pairs, including expired ones not yet cleaned up
func (obj *ExpiringMap[K, V]) Size() int {
	return obj.normal.Size()
}

// Lookup returns the value assigned to the given key if it has not expired yet
func (obj *ExpiringMap[K, V]) Lookup(key K) (V, bool) {
	val, ok := obj.normal.Lookup(key)
	if !ok || !obj.now().Before(val.expires) {
		var zero V
		return zero, false
	}
	return val.raw, true
}

// Set sets a key-value pair which expires after the map's lifetime
func (obj *ExpiringMap[K, V]) Set(key K, value V) {
	obj.normal.Set(key, &expiringEntry[V]{
		raw:     value,
		expires: obj.now().Add(obj.lifetime),
	})
}

// Unset deletes the value assigned to given key
func (obj *ExpiringMap[K, V]) Unset(key K) {
	obj.normal.Unset(key)
}

// Clear removes every key-value pair
func (obj *ExpiringMap[K, V]) Clear() {
	obj.normal.Clear()
}

// Range calls fn for every non-expired key-value pair
func (obj *ExpiringMap[K, V]) Range(fn func(key K, value V) bool) {
	now := obj.now()
	obj.normal.Range(func(key K, val *expiringEntry[V]) bool {
		if !now.Before(val.expires) {
			return true
		}
		return fn(key, val.raw)
	})
}
