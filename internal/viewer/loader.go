package viewer

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/docview/internal/editing"
	"github.com/dshills/docview/internal/engine"
	"github.com/dshills/docview/internal/resolve"
	"github.com/dshills/docview/internal/source"
)

// SetInput accepts a new caller file reference, canonicalizes it through
// the resolution pipeline, and restarts the document load when the
// canonical source actually changed. A reference that resolves deep-equal
// to the previous one keeps the current document and emits a
// redundant-input advisory. A nil reference clears the viewer back to its
// empty state. In-flight work superseded by a newer call is cancelled and
// its results discarded.
func (v *Viewer) SetInput(ctx context.Context, input any) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	v.mu.Unlock()

	ticket := v.srcState.Begin()

	desc, err := v.pipeline.Resolve(ctx, input)
	if !v.srcState.Current(ticket) {
		// A newer input arrived while this one was resolving.
		return nil
	}

	if err != nil {
		v.srcState.Reject(ticket, err)
		v.teardownDocument()
		v.mu.Lock()
		v.lastDesc = nil
		v.mu.Unlock()
		v.log.Error("source resolution failed: %v", err)
		v.bus.Dispatch(EventSourceFailed, err)
		if v.cb.OnSourceFailed != nil {
			v.cb.OnSourceFailed(err)
		}
		return err
	}

	if desc == nil {
		v.srcState.Reset()
		v.teardownDocument()
		v.mu.Lock()
		v.lastDesc = nil
		v.mu.Unlock()
		return nil
	}

	v.mu.Lock()
	prev := v.lastDesc
	v.mu.Unlock()

	if prev != nil && desc.Equal(prev) {
		// Same canonical source: keep the current document instead of
		// reloading, and tell the caller their invalidation was unnecessary.
		v.srcState.Resolve(ticket, prev)
		v.emitAdvisory(source.Advisory{
			Code:    source.AdvisoryRedundantInput,
			Message: "input resolves to the same source as before; load not restarted",
		})
		return nil
	}

	v.mu.Lock()
	v.lastDesc = desc
	v.mu.Unlock()

	if !v.srcState.Resolve(ticket, desc) {
		return nil
	}
	v.bus.Dispatch(EventSourceResolved, desc)
	if v.cb.OnSourceResolved != nil {
		v.cb.OnSourceResolved(desc)
	}

	v.startLoad(desc)
	return nil
}

// Reload restarts the document load from the current canonical source. Used
// when a watched local source changes on disk.
func (v *Viewer) Reload() error {
	v.mu.Lock()
	closed := v.closed
	desc := v.lastDesc
	v.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if desc == nil {
		return ErrNoDocument
	}
	v.startLoad(desc)
	return nil
}

// startLoad tears down the previous document and begins a fresh load for
// the given canonical source.
func (v *Viewer) startLoad(desc *source.Descriptor) {
	v.teardownDocument()

	ticket := v.docState.Begin()

	params := engine.BuildLoadParams(desc, v.engineOpts)
	params.OnPassword = func(reason engine.PasswordReason, respond func(password string)) {
		v.log.Info("password requested: %s", reason)
		if v.cb.OnPasswordRequest != nil {
			v.cb.OnPasswordRequest(reason, respond)
		}
	}
	params.OnProgress = func(loaded, total int64) {
		v.log.Debug("load progress: %d/%d bytes", loaded, total)
	}

	ctx, cancel := context.WithCancel(context.Background())
	task := v.eng.Load(ctx, params)

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		cancel()
		task.Destroy()
		return
	}
	v.task = task
	v.cancel = cancel
	v.mu.Unlock()

	go v.awaitLoad(ctx, ticket, task)
}

// awaitLoad waits for one load task to settle and publishes the result,
// unless the load was superseded or cancelled in the meantime.
func (v *Viewer) awaitLoad(ctx context.Context, ticket resolve.Ticket, task engine.LoadTask) {
	doc, err := task.Await(ctx)

	if err != nil {
		// Cancellation is authoritative: a cancelled load never surfaces as
		// a failure, no matter what else the engine reported.
		if errors.Is(err, engine.ErrLoadCancelled) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
			v.log.Debug("document load cancelled")
			return
		}
		if !v.docState.Reject(ticket, err) {
			return
		}
		v.log.Error("document load failed: %v", err)
		v.bus.Dispatch(EventDocumentFailed, err)
		if v.cb.OnDocumentFailed != nil {
			v.cb.OnDocumentFailed(err)
		}
		return
	}

	v.mu.Lock()
	if v.closed || !v.docState.Resolve(ticket, doc) {
		v.mu.Unlock()
		// Superseded after settling: the handle would otherwise leak.
		if derr := doc.Destroy(); derr != nil {
			v.log.Warn("destroying superseded document: %v", derr)
		}
		return
	}

	v.doc = doc
	v.task = nil
	v.pages = make([]PageSurface, doc.PageCount())
	v.editors = make([]EditorSurface, doc.PageCount())
	v.ready = false
	v.manager = nil
	v.pageIndex = -1

	// The editing runtime comes up with the document; mounting editor
	// surfaces is what still gates the readiness barrier.
	edt := v.edtState.Begin()
	v.edtState.Resolve(edt, struct{}{})
	v.mu.Unlock()

	v.log.Info("document loaded: %d pages", doc.PageCount())
	v.bus.Dispatch(EventDocumentLoaded, doc)
	if v.cb.OnDocumentLoaded != nil {
		v.cb.OnDocumentLoaded(doc)
	}
}

// teardownDocument cancels any in-flight load, destroys the owned document
// handle, and resets the barrier and both document-side slots.
func (v *Viewer) teardownDocument() {
	v.mu.Lock()
	task := v.task
	doc := v.doc
	cancel := v.cancel
	v.task = nil
	v.doc = nil
	v.cancel = nil
	v.pageIndex = -1
	v.teardownBarrierLocked()
	v.mu.Unlock()

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
			v.log.Warn("destroying document: %v", err)
		}
	}
}

// bootstrapEditingLocked builds the per-document editing manager. Called exactly
// once per document, when the readiness barrier first opens.
func (v *Viewer) bootstrapEditingLocked() error {
	opts := []editing.ManagerOption{
		editing.WithLogger(v.log.WithComponent("editing")),
	}
	if len(v.palette) > 0 {
		opts = append(opts, editing.WithPalette(v.palette))
	}

	mgr, err := editing.NewManager(v.doc, v.bus, opts...)
	if err != nil {
		return fmt.Errorf("bootstrapping editing manager: %w", err)
	}
	v.manager = mgr
	return nil
}
