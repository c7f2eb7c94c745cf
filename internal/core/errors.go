package core

import "errors"

// Sentinel errors that the HTTP layer maps to response codes. Everything else
// bubbling out of the stores or the dispatcher is treated as an upstream
// failure (500).
var (
	// ErrFunctionNotFound is returned by MetadataStore.Get for unknown ids (404).
	ErrFunctionNotFound = errors.New("function not found")
)
