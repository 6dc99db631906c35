package core

import "errors"

// Caller-visible failure kinds. Scoring functions are total and never
// return these; they come from session operations only. A degraded
// summary (generation call failed, deterministic fallback used) is not
// an error at all.
var (
	// ErrBatchNotReady means finalize was called with fewer than two
	// documents. No partial narrative is produced.
	ErrBatchNotReady = errors.New("batch not ready: need at least two analyzed documents")

	// ErrDocumentNotFound means an operation referenced an id absent
	// from the session.
	ErrDocumentNotFound = errors.New("document not found in session")

	// ErrInvalidCustomization means the customization referenced
	// unknown state or was malformed. Batch state is unchanged.
	ErrInvalidCustomization = errors.New("invalid customization")

	// ErrSessionExpired means the batch deadline passed; no new
	// documents are admitted.
	ErrSessionExpired = errors.New("session expired")

	// ErrSessionNotFound means no session exists for the given keys.
	ErrSessionNotFound = errors.New("session not found")

	// ErrOverloaded means the admission check refused new work
	// because system memory utilization is above the configured
	// threshold.
	ErrOverloaded = errors.New("system overloaded, try again later")
)
