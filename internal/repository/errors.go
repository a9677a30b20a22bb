// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services to distinguish between different failure scenarios without
// depending on database/sql internals. For example, ErrUsernameExists
// and ErrEmailExists signal unique-constraint violations during
// registration, while ErrNotFound covers every lookup miss.
package repository

import "errors"

// ErrNotFound is returned when a queried row does not exist. Services
// translate this into their own taxonomy (user-not-found, invalid
// token) depending on the call site.
var ErrNotFound = errors.New("not found")

// ErrUsernameExists is returned when an insert collides with an
// existing username. Handlers should translate this into an HTTP 400
// response.
var ErrUsernameExists = errors.New("username already exists")

// ErrEmailExists is returned when an insert collides with an existing
// email address. Handlers should translate this into an HTTP 400
// response.
var ErrEmailExists = errors.New("email already exists")
