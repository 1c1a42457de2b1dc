// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrBranchNotFound lets a handler answer 404 instead of 500
// when a client asks for the fields of a branch that does not exist.
package repository

import "errors"

// ErrBranchNotFound is returned when a branch cannot be found in the DB.
var ErrBranchNotFound = errors.New("branch not found")

// ErrFieldNotFound is returned when a field cannot be found in the DB.
var ErrFieldNotFound = errors.New("field not found")
