package apperrors

import "errors"

// ErrNotFound indicates that a requested resource (account or transaction) could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an identical transaction was recorded within the
// duplicate-suppression window and the new one was rejected.
var ErrDuplicate = errors.New("duplicate transaction suppressed")

// ErrInsufficientBalance indicates that a withdrawal was requested for more than the
// current account balance.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrConflict indicates an optimistic-concurrency write collision at the store.
// The engine retries the operation once with a fresh read before surfacing it.
var ErrConflict = errors.New("concurrent update conflict")

// ErrStoreUnavailable indicates a transient infrastructure failure at the store.
// It is surfaced to callers unchanged; retry policy is theirs.
var ErrStoreUnavailable = errors.New("store unavailable")
