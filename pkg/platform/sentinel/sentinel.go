// Package sentinel holds infrastructure facts that stores and caches return,
// optionally wrapped. Services translate them into domain errors; validation
// failures use pkg/domain-errors directly.
package sentinel

import "errors"

var (
	// ErrNotFound: no journal entry for the attempt id.
	ErrNotFound = errors.New("not found")
	// ErrCacheMiss: a cache tier holds no value for the key.
	ErrCacheMiss = errors.New("cache miss")
)
