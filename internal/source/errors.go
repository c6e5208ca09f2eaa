package source

import "errors"

// Sentinel errors for the resolution pipeline.
var (
	// ErrInvalidInput is returned for a file reference that is neither a
	// supported primitive nor a valid parameter object. This is a programmer
	// error, fatal to the load attempt and never retried.
	ErrInvalidInput = errors.New("unsupported file reference")

	// ErrInvalidDataURI is returned for a data URI that cannot be decoded.
	ErrInvalidDataURI = errors.New("invalid data URI")

	// ErrBlobRead is returned when a blob-like input fails to materialize.
	ErrBlobRead = errors.New("blob materialization failed")
)

// AdvisoryCode classifies a non-fatal advisory condition.
type AdvisoryCode string

const (
	// AdvisoryCrossOrigin is emitted when a URL's origin differs from the
	// host's configured origin and no explicit credentials were configured.
	AdvisoryCrossOrigin AdvisoryCode = "cross-origin"

	// AdvisoryRedundantInput is emitted when a fresh input is deep-equal to
	// the previous one, indicating unnecessary invalidation by the caller.
	AdvisoryRedundantInput AdvisoryCode = "redundant-input"
)

// Advisory is a non-fatal condition reported to the host. Advisories are
// logged or callback-reported, never thrown.
type Advisory struct {
	// Code classifies the condition.
	Code AdvisoryCode

	// Message is a human-readable description.
	Message string
}

// AdvisoryFunc receives advisories from the pipeline.
type AdvisoryFunc func(Advisory)
