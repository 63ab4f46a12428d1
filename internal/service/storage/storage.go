package storage

import "time"

// Storage defines interface for any object storage
type Storage[K comparable, V any] interface {
	Set(key K, value V)
	Load(key K, value V)
	Get(key K) (V, bool)
	GetAllValues() []V
	GetDirty() map[K]V
	ClearDirty(keys []K, before time.Time)
	Count() int
}
