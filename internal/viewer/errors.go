package viewer

import "errors"

var (
	// ErrNoEngine is returned by New when no engine is supplied.
	ErrNoEngine = errors.New("viewer: engine is required")

	// ErrClosed is returned for operations on a closed viewer.
	ErrClosed = errors.New("viewer: closed")

	// ErrNoDocument is returned when an operation needs a loaded document.
	ErrNoDocument = errors.New("viewer: no document loaded")

	// ErrNoDownloadSink is returned when a download is requested but no sink
	// is installed.
	ErrNoDownloadSink = errors.New("viewer: no download sink installed")

	// ErrNotReady is returned for editing operations before the readiness
	// barrier has opened.
	ErrNotReady = errors.New("viewer: editing subsystem not ready")
)
