// Package repository implements MySQL persistence for the booking service.
// These sentinel values let handlers distinguish failure scenarios without
// inspecting SQL errors. Seat-accounting failures are not defined here:
// they belong to the inventory package, whose sentinels the InventoryStore
// returns directly.
package repository

import "errors"

// ErrNotFound is returned when a requested catalog or auth record does not
// exist. Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when registration collides with an existing
// email address. Handlers should translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")
