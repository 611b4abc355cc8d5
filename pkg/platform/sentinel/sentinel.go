package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: a uniqueness constraint rejected the write
// - ErrCapacityExhausted: a conditional capacity increment matched no row
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrContention: transient lock/serialization conflict, safe to retry
// - ErrUnavailable: backing store unreachable; the caller may fail over
// - ErrCommitUnknown: the commit was sent but never acknowledged; the write may
//   or may not have landed, so the caller must not replay it elsewhere
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrCapacityExhausted = errors.New("capacity exhausted")
	ErrInvalidState      = errors.New("invalid state")
	ErrContention        = errors.New("contention")
	ErrUnavailable       = errors.New("unavailable")
	ErrCommitUnknown     = errors.New("commit outcome unknown")
)
