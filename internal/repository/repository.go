// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres, memory) inside this directory.
package repository

import "errors"

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict is returned by conditional updates whose expected version is stale.
	ErrVersionConflict = errors.New("version conflict")
)
