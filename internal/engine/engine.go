// Package engine defines the surface of the external document-parsing
// engine. The viewer core drives an Engine through cancellable load tasks
// and owns the resulting document handles; this package carries no parsing
// logic of its own.
package engine

import (
	"context"
	"errors"

	"github.com/dshills/docview/internal/source"
)

// ErrLoadCancelled is returned by a load task that was destroyed before it
// settled. Cancellation is authoritative: a cancelled load is never
// reported as a load failure, even if the engine also produced an error.
var ErrLoadCancelled = errors.New("document load cancelled")

// PasswordReason distinguishes why the engine is asking for a password.
type PasswordReason int

const (
	// PasswordReasonNeed means this is the first password request.
	PasswordReasonNeed PasswordReason = iota

	// PasswordReasonIncorrect means the previous attempt was wrong.
	PasswordReasonIncorrect
)

// String returns a human-readable reason name.
func (r PasswordReason) String() string {
	switch r {
	case PasswordReasonNeed:
		return "needs-password"
	case PasswordReasonIncorrect:
		return "incorrect-password"
	default:
		return "unknown"
	}
}

// ProgressFunc reports load progress in bytes.
type ProgressFunc func(loaded, total int64)

// PasswordFunc is invoked when the engine needs a password. The handler
// answers through respond.
type PasswordFunc func(reason PasswordReason, respond func(password string))

// LoadParams is the merged descriptor-plus-options object handed to the
// engine for one load request.
type LoadParams struct {
	// URL, Data, and Range mirror the canonical descriptor's payload.
	URL   string
	Data  []byte
	Range source.RangeTransport

	// Options carries engine options. Caller-supplied options take
	// precedence over descriptor passthrough options for overlapping keys.
	Options map[string]any

	// OnProgress, if set, receives byte-level load progress.
	OnProgress ProgressFunc

	// OnPassword, if set, handles password requests.
	OnPassword PasswordFunc
}

// BuildLoadParams merges a canonical descriptor with caller-supplied engine
// options. Caller options win for overlapping keys.
func BuildLoadParams(desc *source.Descriptor, options map[string]any) LoadParams {
	params := LoadParams{
		URL:   desc.URL,
		Data:  desc.Data,
		Range: desc.Range,
	}

	if len(desc.Options) > 0 || len(options) > 0 {
		merged := make(map[string]any, len(desc.Options)+len(options))
		for k, v := range desc.Options {
			merged[k] = v
		}
		for k, v := range options {
			merged[k] = v
		}
		params.Options = merged
	}

	return params
}

// LoadTask is a cancellable, promise-like handle for one load request.
type LoadTask interface {
	// Await blocks until the load settles or ctx is done. A task destroyed
	// before settling yields ErrLoadCancelled.
	Await(ctx context.Context) (Document, error)

	// Destroy cancels the load and releases engine-level resources. After
	// Destroy the task's eventual result is void and must be discarded.
	Destroy()
}

// Document is the opaque, engine-owned handle for a successfully parsed
// document. It is exclusively owned by the load controller; other
// components hold non-owning references and must not destroy it. A handle
// must never be used after Destroy.
type Document interface {
	// PageCount returns the fixed number of pages.
	PageCount() int

	// Bytes retrieves the raw document bytes.
	Bytes(ctx context.Context) ([]byte, error)

	// SaveWithEdits retrieves the document bytes with edits applied.
	SaveWithEdits(ctx context.Context) ([]byte, error)

	// EditStorageSize reports the size of stored edits, in bytes.
	EditStorageSize() int

	// Destroy releases the engine-level document resource.
	Destroy() error
}

// Engine issues load requests to the external document engine.
type Engine interface {
	Load(ctx context.Context, params LoadParams) LoadTask
}
