package source

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dshills/docview/internal/logging"
)

// Pipeline normalizes caller file references into canonical descriptors.
// Resolution is pure except for blob materialization, which suspends on the
// supplied context.
type Pipeline struct {
	origin   string
	advisory AdvisoryFunc
	log      *logging.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithOrigin sets the host origin (scheme://host) used for cross-origin
// advisories. An empty origin disables the check.
func WithOrigin(origin string) Option {
	return func(p *Pipeline) {
		p.origin = origin
	}
}

// WithAdvisoryFunc sets the callback receiving non-fatal advisories.
func WithAdvisoryFunc(fn AdvisoryFunc) Option {
	return func(p *Pipeline) {
		p.advisory = fn
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(log *logging.Logger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

// NewPipeline creates a resolution pipeline.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		log: logging.Null,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve normalizes input into a canonical Descriptor. A nil input yields
// a nil descriptor with no error (the "no data" state). A malformed input
// yields ErrInvalidInput.
func (p *Pipeline) Resolve(ctx context.Context, input any) (*Descriptor, error) {
	if input == nil {
		return nil, nil
	}

	switch in := input.(type) {
	case string:
		return p.resolveString(in)

	case RangeTransport:
		return &Descriptor{Range: in}, nil

	case []byte:
		return &Descriptor{Data: in}, nil

	case Blob:
		data, err := in.Bytes(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBlobRead, err)
		}
		return &Descriptor{Data: data}, nil

	case *Params:
		return p.resolveParams(in)

	case Params:
		return p.resolveParams(&in)

	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidInput, input)
	}
}

// resolveString handles string inputs: data URIs decode to bytes, anything
// else is treated as a URL.
func (p *Pipeline) resolveString(s string) (*Descriptor, error) {
	if IsDataURI(s) {
		data, err := DecodeDataURI(s)
		if err != nil {
			return nil, err
		}
		return &Descriptor{Data: data}, nil
	}

	p.checkOrigin(s)
	return &Descriptor{URL: s}, nil
}

// resolveParams handles parameter-object inputs. The object must carry at
// least one of data, range, or url. A data-URI url field is rewritten to a
// data field; every other field is preserved.
func (p *Pipeline) resolveParams(params *Params) (*Descriptor, error) {
	if params.URL == "" && len(params.Data) == 0 && params.Range == nil {
		return nil, fmt.Errorf("%w: parameter object needs data, range, or url", ErrInvalidInput)
	}

	desc := &Descriptor{
		URL:     params.URL,
		Data:    params.Data,
		Range:   params.Range,
		Options: params.Options,
	}

	if desc.URL != "" {
		if IsDataURI(desc.URL) {
			data, err := DecodeDataURI(desc.URL)
			if err != nil {
				return nil, err
			}
			desc.Data = data
			desc.URL = ""
		} else {
			p.checkOrigin(desc.URL)
		}
	}

	return desc, nil
}

// checkOrigin emits a cross-origin advisory when the URL's origin differs
// from the configured host origin.
func (p *Pipeline) checkOrigin(rawURL string) {
	if p.origin == "" {
		return
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		// Relative or unparseable URLs resolve against the host origin.
		return
	}

	host, err := url.Parse(p.origin)
	if err != nil {
		return
	}

	if u.Scheme != host.Scheme || u.Host != host.Host {
		p.emit(Advisory{
			Code:    AdvisoryCrossOrigin,
			Message: fmt.Sprintf("loading %s from a different origin than %s without explicit credentials configuration", rawURL, p.origin),
		})
	}
}

// emit delivers an advisory to the callback and the log.
func (p *Pipeline) emit(adv Advisory) {
	p.log.Warn("advisory [%s]: %s", adv.Code, adv.Message)
	if p.advisory != nil {
		p.advisory(adv)
	}
}
