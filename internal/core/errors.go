package core

import "errors"

// Domain sentinel errors. Handlers return these (possibly wrapped with %w)
// and the central fiber error handler maps them to HTTP statuses.
var (
	// ErrShiftAlreadyOpen - a second openShift while one exists for the user.
	ErrShiftAlreadyOpen = errors.New("a shift is already open for this user")

	// ErrShiftNotOpen - closeShift against a shift that is not open.
	ErrShiftNotOpen = errors.New("shift is not open")

	// ErrShiftRequired - a non-admin tried a cash-affecting sale without an
	// open shift. Nothing is created.
	ErrShiftRequired = errors.New("an open shift is required for this operation")

	// ErrOfflineUnavailable - a destructive/administrative operation was
	// attempted while offline. These are never queued.
	ErrOfflineUnavailable = errors.New("operation unavailable while offline")

	// ErrSyncReplayFailure - a queued entry failed during replay; the drain
	// stopped at that entry and the remainder stays queued.
	ErrSyncReplayFailure = errors.New("sync replay failed")

	// ErrInsufficientStock - advisory: the sale/conversion would drive stock
	// negative. The operator may override unless strict mode is on.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrCreditLimit - a deferred sale would push the customer past their
	// credit limit.
	ErrCreditLimit = errors.New("customer credit limit exceeded")

	// ErrAlreadyReturned - a second return against the same original. Money
	// and stock were already reversed once.
	ErrAlreadyReturned = errors.New("transaction was already returned")
)
