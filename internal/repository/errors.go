// Package repository defines error values that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. Each
// entity repository additionally defines its own not-found sentinel
// next to the entity it belongs to.
package repository

import "errors"

// ErrConflict is returned when an insert or update violates a uniqueness
// constraint that cannot be attributed to a more specific sentinel.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
