package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a uniqueness constraint rejects a write.
	// Callers that rely on storage-level idempotency treat it as "already
	// done" rather than as a failure.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInsufficientBalance is returned when a conditional debit would
	// take a wallet balance below zero.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
)
