// Package repository provides PostgreSQL persistence for the curator
// entities.
package repository

import "errors"

// ErrNotFound is returned when a requested record does not exist.
// Handlers map it to HTTP 404.
var ErrNotFound = errors.New("record not found")
