// Package common defines sentinel errors and small helpers shared by the
// LeadKeeper client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Session-level errors.
	ErrNotLoggedIn = errors.New("not logged in")
	ErrNoSession   = errors.New("no active session")

	// Account profile.
	ErrInvalidProfile = errors.New("name is required")

	// Credit bookkeeping.
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidAmount       = errors.New("invalid amount")

	// Contact book.
	ErrAlreadySaved = errors.New("contact already saved")

	// Billing catalog lookups.
	ErrUnknownPlan    = errors.New("unknown plan")
	ErrUnknownPackage = errors.New("unknown credit package")

	// Repository-level errors.
	ErrNotFound = errors.New("not found")
)
