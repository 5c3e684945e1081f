package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// GetTyped decodes a fresh cached value into T. It returns false if the key
// is missing, expired, or does not decode as T. An entry that does not
// decode is deleted.
func GetTyped[T any](s *Store, key string) (T, bool) {
	var v T
	raw, ok := s.Get(key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		s.Delete(key)
		var zero T
		return zero, false
	}
	return v, true
}

// GetTypedStale is GetTyped that also returns expired values; fresh reports
// whether the TTL still holds.
func GetTypedStale[T any](s *Store, key string) (v T, fresh, ok bool) {
	raw, fresh, ok := s.GetStale(key)
	if !ok {
		return v, false, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		s.Delete(key)
		var zero T
		return zero, false, false
	}
	return v, fresh, true
}

// PutTypedWithTTL encodes value as JSON and stores it with ttl.
func PutTypedWithTTL[T any](s *Store, key string, value T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal typed value for %q: %w", key, err)
	}
	return s.PutWithTTL(key, data, ttl)
}
