// Package errs declares the sentinel error kinds shared across the plugin
// core, matching the error-kind taxonomy the core's design calls for: init
// errors fail loud, hot-path errors degrade silently.
package errs

import "errors"

var (
	// ErrConfigInvalid covers schema violations, array-length mismatches,
	// and %fd.* selectors paired with non-fd-producing event codes. Aborts
	// Init.
	ErrConfigInvalid = errors.New("anomaly plugin: invalid configuration")

	// ErrTableBindingFailure means the host's thread-table schema does not
	// expose a field this core requires. Aborts Init.
	ErrTableBindingFailure = errors.New("anomaly plugin: thread table field binding failed")

	// ErrExtractOutOfBounds means a requested sketch index is >= N, or CMS
	// is disabled. Surfaced per extract call; does not abort the plugin.
	ErrExtractOutOfBounds = errors.New("anomaly plugin: sketch index out of bounds or CMS disabled")

	// ErrParseBufferMalformed means the raw event buffer could not be
	// decoded. Non-fatal for the event: Parse returns false for that one
	// event but the plugin keeps running.
	ErrParseBufferMalformed = errors.New("anomaly plugin: malformed event buffer")
)
