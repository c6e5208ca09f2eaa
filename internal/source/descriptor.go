// Package source normalizes heterogeneous caller file references into a
// canonical source descriptor. The pipeline accepts strings, byte buffers,
// blob-like objects, range-transport handles, and parameter objects, and
// produces exactly one canonical representation per distinct input.
package source

import (
	"bytes"
	"context"
	"reflect"
)

// Kind identifies the primary payload of a Descriptor.
type Kind int

const (
	// KindURL means the document is fetched from a URL.
	KindURL Kind = iota

	// KindBytes means the document bytes are supplied directly.
	KindBytes

	// KindRange means the document is read through a range transport.
	KindRange
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindURL:
		return "url"
	case KindBytes:
		return "bytes"
	case KindRange:
		return "range"
	default:
		return "unknown"
	}
}

// RangeTransport is an opaque handle for incremental, range-based byte
// access to a document. The engine drives it; the pipeline only carries it.
type RangeTransport interface {
	// Length returns the total document length in bytes.
	Length() int64

	// Abort cancels any outstanding range requests.
	Abort()
}

// Blob is a host-environment object whose bytes must be materialized
// asynchronously. Materialization is the pipeline's one genuine suspension
// point beyond the overall async wrapper.
type Blob interface {
	Bytes(ctx context.Context) ([]byte, error)
}

// Params is the parameter-object form of a caller file reference. At least
// one of Data, Range, or URL must be set.
type Params struct {
	// URL is the document location. A data URI is decoded into Data during
	// normalization and never left as a URL.
	URL string

	// Data is the raw document bytes.
	Data []byte

	// Range is an opaque range-transport handle.
	Range RangeTransport

	// Options carries passthrough engine options.
	Options map[string]any
}

// Descriptor is the canonical, normalized representation of "what document
// to load", independent of how the caller expressed it. Exactly one of URL,
// Data, or Range is the primary payload. A Descriptor is immutable after
// production.
type Descriptor struct {
	// URL is set when the primary payload is a fetchable location.
	URL string

	// Data is set when the primary payload is raw bytes.
	Data []byte

	// Range is set when the primary payload is a range transport.
	Range RangeTransport

	// Options carries passthrough engine options from a parameter object.
	Options map[string]any
}

// Kind returns the primary payload kind.
func (d *Descriptor) Kind() Kind {
	switch {
	case len(d.Data) > 0:
		return KindBytes
	case d.Range != nil:
		return KindRange
	default:
		return KindURL
	}
}

// Equal reports deep structural equality between two descriptors. A fresh
// input that is Equal to the previous one should be treated as redundant,
// not as a new source.
func (d *Descriptor) Equal(other *Descriptor) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.URL != other.URL {
		return false
	}
	if !bytes.Equal(d.Data, other.Data) {
		return false
	}
	if d.Range != other.Range {
		return false
	}
	return reflect.DeepEqual(d.Options, other.Options)
}
