// Package repository defines persistence sentinels shared by the domain
// services and their SQLite implementations. Repository interfaces are
// declared by the packages that consume them.
package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a unique constraint fails
	ErrAlreadyExists = errors.New("already exists")

	// ErrForeignKeyViolation is returned when a foreign key constraint fails
	ErrForeignKeyViolation = errors.New("foreign key violation")
)
