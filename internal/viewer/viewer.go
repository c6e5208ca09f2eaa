// Package viewer coordinates the lifecycle of a loaded document inside a
// host view. It turns caller file references into canonical source
// descriptors, drives the external engine through cancellable loads, tracks
// multi-stage readiness as per-page surfaces mount, and exposes a stable
// command/event surface to the host while in-flight work is superseded and
// retried as inputs change.
package viewer

import (
	"context"
	"sync"
	"time"

	"github.com/dshills/docview/internal/editing"
	"github.com/dshills/docview/internal/engine"
	"github.com/dshills/docview/internal/event"
	"github.com/dshills/docview/internal/logging"
	"github.com/dshills/docview/internal/resolve"
	"github.com/dshills/docview/internal/source"
)

// Event names dispatched on the viewer bus. Hosts subscribe with
// event.WithExternal so internal state settles before they react.
const (
	EventSourceResolved event.Name = "source.resolved"
	EventSourceFailed   event.Name = "source.failed"
	EventDocumentLoaded event.Name = "document.loaded"
	EventDocumentFailed event.Name = "document.failed"
	EventPageChanged    event.Name = "page.changed"
	EventReady          event.Name = "viewer.ready"
)

// AdvisoryNoPageTarget is emitted when an internal link resolves to a page
// that has no mounted surface and no host-provided handler.
const AdvisoryNoPageTarget source.AdvisoryCode = "no-page-target"

// Command identifies a host command surfaced through the command sink.
type Command string

const (
	CommandSearch            Command = "search"
	CommandFindNext          Command = "find-next"
	CommandFindPrevious      Command = "find-previous"
	CommandCloseFindBar      Command = "close-find-bar"
	CommandUpdateEditMode    Command = "update-edit-mode"
	CommandDownloadWithEdits Command = "download-with-edits"
	CommandLinkToNode        Command = "link-to-node"
	CommandUpdateParameter   Command = "update-parameter"
)

// CommandSink receives command notifications from the viewer.
type CommandSink func(cmd Command, payload any)

// DownloadSink receives document bytes for delivery to the user.
type DownloadSink func(name string, data []byte) error

// PageSurface is a mounted per-page view component. Registered by external
// page components through RegisterPage.
type PageSurface interface {
	// ScrollIntoView brings the page into the viewport.
	ScrollIntoView()

	// Bounds returns the page's visible top and bottom in viewport space.
	Bounds() (top, bottom float64)
}

// EditorSurface is a mounted per-page annotation/edit layer. Registered by
// external components through RegisterEditorSurface.
type EditorSurface interface {
	// SetMode applies the current edit mode to the surface.
	SetMode(mode editing.Mode)
}

// ItemClick describes an activated document item (outline entry, internal
// link).
type ItemClick struct {
	// Dest is the opaque engine destination, if any.
	Dest string

	// PageIndex is the zero-based destination page.
	PageIndex int

	// PageNumber is the one-based destination page.
	PageNumber int
}

// Callbacks are the outbound lifecycle notifications to the host. All
// fields are optional.
type Callbacks struct {
	OnSourceResolved  func(desc *source.Descriptor)
	OnSourceFailed    func(err error)
	OnDocumentLoaded  func(doc engine.Document)
	OnDocumentFailed  func(err error)
	OnPasswordRequest func(reason engine.PasswordReason, respond func(password string))
	OnPageChanged     func(pageIndex int)
	OnItemClicked     func(item ItemClick)
	OnAdvisory        func(adv source.Advisory)
}

// Viewer is the document lifecycle orchestrator for one mounted instance.
// All state is in-memory and scoped to the instance; Close releases every
// owned resource.
type Viewer struct {
	mu sync.Mutex

	eng      engine.Engine
	bus      *event.Bus
	log      *logging.Logger
	pipeline *source.Pipeline
	cb       Callbacks
	sink     CommandSink
	download DownloadSink

	engineOpts  map[string]any
	palette     []string
	debounce    time.Duration
	origin      string
	defaultName string

	srcState *resolve.State[*source.Descriptor]
	docState *resolve.State[engine.Document]
	edtState *resolve.State[struct{}]

	// Load controller state. doc is the exclusively owned handle.
	task     engine.LoadTask
	doc      engine.Document
	cancel   context.CancelFunc
	lastDesc *source.Descriptor

	// Registration barrier state.
	pages   []PageSurface
	editors []EditorSurface
	ready   bool
	manager *editing.Manager

	// Navigation state.
	pageIndex   int
	viewportTop float64
	scrollTimer *time.Timer

	// Download coalescing.
	saving bool

	closed bool
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithCallbacks installs the host lifecycle callbacks.
func WithCallbacks(cb Callbacks) Option {
	return func(v *Viewer) {
		v.cb = cb
	}
}

// WithCommandSink installs the host command sink.
func WithCommandSink(sink CommandSink) Option {
	return func(v *Viewer) {
		v.sink = sink
	}
}

// WithDownloadSink installs the external download sink.
func WithDownloadSink(sink DownloadSink) Option {
	return func(v *Viewer) {
		v.download = sink
	}
}

// WithEngineOptions sets caller engine options, which take precedence over
// descriptor passthrough options for overlapping keys.
func WithEngineOptions(opts map[string]any) Option {
	return func(v *Viewer) {
		v.engineOpts = opts
	}
}

// WithPalette sets the editing color configuration.
func WithPalette(palette []string) Option {
	return func(v *Viewer) {
		v.palette = palette
	}
}

// WithOrigin sets the host origin for cross-origin advisories.
func WithOrigin(origin string) Option {
	return func(v *Viewer) {
		v.origin = origin
	}
}

// WithPageChangeDebounce sets the scroll quiescence window before
// current-page tracking runs.
func WithPageChangeDebounce(d time.Duration) Option {
	return func(v *Viewer) {
		if d > 0 {
			v.debounce = d
		}
	}
}

// WithDownloadName sets the filename used when a download is requested
// without one.
func WithDownloadName(name string) Option {
	return func(v *Viewer) {
		if name != "" {
			v.defaultName = name
		}
	}
}

// WithLogger sets the viewer logger.
func WithLogger(log *logging.Logger) Option {
	return func(v *Viewer) {
		v.log = log
	}
}

// New creates a Viewer bound to the given engine.
func New(eng engine.Engine, opts ...Option) (*Viewer, error) {
	if eng == nil {
		return nil, ErrNoEngine
	}

	v := &Viewer{
		eng:         eng,
		bus:         event.NewBus(),
		log:         logging.Null,
		debounce:    time.Second,
		defaultName: "document.pdf",
		srcState:    resolve.NewState[*source.Descriptor](),
		docState:    resolve.NewState[engine.Document](),
		edtState:    resolve.NewState[struct{}](),
		pageIndex:   -1,
	}
	for _, opt := range opts {
		opt(v)
	}

	v.pipeline = source.NewPipeline(
		source.WithOrigin(v.origin),
		source.WithAdvisoryFunc(v.emitAdvisory),
		source.WithLogger(v.log.WithComponent("source")),
	)

	// Link targeting from the editing manager feeds back into navigation.
	v.bus.Subscribe(editing.EventLinkTargeted, func(payload any) {
		node, ok := payload.(editing.LinkNode)
		if !ok || node.Page < 0 {
			return
		}
		v.ScrollToPage(node.Page)
	})

	// Mode changes propagate to every mounted editor surface.
	v.bus.Subscribe(editing.EventModeChanged, func(payload any) {
		mp, ok := payload.(editing.ModePayload)
		if !ok {
			return
		}
		v.applyModeToSurfaces(mp.Current)
	})

	return v, nil
}

// Bus returns the viewer's event bus for host subscriptions.
func (v *Viewer) Bus() *event.Bus {
	return v.bus
}

// SourceStatus returns the source slot status.
func (v *Viewer) SourceStatus() resolve.Status {
	return v.srcState.Status()
}

// DocumentStatus returns the document slot status.
func (v *Viewer) DocumentStatus() resolve.Status {
	return v.docState.Status()
}

// Document returns the current document handle. The handle is owned by the
// viewer; callers must not destroy it.
func (v *Viewer) Document() (engine.Document, bool) {
	return v.docState.Value()
}

// Manager returns the editing manager, present once the readiness barrier
// has opened for the current document.
func (v *Viewer) Manager() *editing.Manager {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.manager
}

// Ready reports whether the readiness barrier is open for the current
// document.
func (v *Viewer) Ready() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ready
}

// Close cancels every in-flight suspension, destroys every owned handle,
// and detaches all subscriptions. The viewer cannot be reused afterwards.
func (v *Viewer) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true

	if v.scrollTimer != nil {
		v.scrollTimer.Stop()
		v.scrollTimer = nil
	}

	task := v.task
	doc := v.doc
	cancel := v.cancel
	v.task = nil
	v.doc = nil
	v.cancel = nil
	v.teardownBarrierLocked()
	v.mu.Unlock()

	v.srcState.Reset()
	v.docState.Reset()
	v.edtState.Reset()

	if cancel != nil {
		cancel()
	}
	if task != nil {
		task.Destroy()
	}
	if doc != nil {
		if err := doc.Destroy(); err != nil {
			v.log.Warn("destroying document on close: %v", err)
		}
	}

	v.bus.Clear()
}

// emitAdvisory reports a non-fatal advisory to the log and the host.
func (v *Viewer) emitAdvisory(adv source.Advisory) {
	v.log.Warn("advisory [%s]: %s", adv.Code, adv.Message)
	if v.cb.OnAdvisory != nil {
		v.cb.OnAdvisory(adv)
	}
}

// notifySink forwards a command notification to the host sink.
func (v *Viewer) notifySink(cmd Command, payload any) {
	if v.sink != nil {
		v.sink(cmd, payload)
	}
}

// applyModeToSurfaces pushes an edit mode to every mounted editor surface.
func (v *Viewer) applyModeToSurfaces(mode editing.Mode) {
	v.mu.Lock()
	surfaces := make([]EditorSurface, 0, len(v.editors))
	for _, s := range v.editors {
		if s != nil {
			surfaces = append(surfaces, s)
		}
	}
	v.mu.Unlock()

	for _, s := range surfaces {
		s.SetMode(mode)
	}
}
