package viewer

import "github.com/dshills/docview/internal/resolve"

// RegisterPage records the surface for a zero-based page index. Mount order
// is arbitrary and registration is idempotent; re-registering an index
// overwrites the previous surface. Indices outside the current document are
// ignored, as is registration before a document has loaded.
func (v *Viewer) RegisterPage(index int, surface PageSurface) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if surface == nil || index < 0 || index >= len(v.pages) {
		v.log.Debug("ignoring page registration for index %d", index)
		return
	}
	v.pages[index] = surface
}

// RegisterEditorSurface records the editor layer for a zero-based page
// index, with the same idempotence and bounds rules as RegisterPage. When
// the last missing surface registers, the readiness barrier opens: the
// editing manager is bootstrapped and EventReady fires, once per document.
func (v *Viewer) RegisterEditorSurface(index int, surface EditorSurface) {
	v.mu.Lock()
	if surface == nil || index < 0 || index >= len(v.editors) {
		v.log.Debug("ignoring editor surface registration for index %d", index)
		v.mu.Unlock()
		return
	}
	v.editors[index] = surface

	if !v.recomputeReadinessLocked() {
		v.mu.Unlock()
		return
	}

	pageCount := len(v.pages)
	if err := v.bootstrapEditingLocked(); err != nil {
		v.mu.Unlock()
		v.log.Error("editing unavailable: %v", err)
		return
	}
	v.mu.Unlock()

	v.log.Info("viewer ready: %d pages mounted", pageCount)
	v.bus.Dispatch(EventReady, pageCount)
}

// recomputeReadinessLocked derives the barrier state from the registries.
// The transition is edge-triggered: once ready has fired for a document it
// never recomputes until the next document resets it.
func (v *Viewer) recomputeReadinessLocked() bool {
	if v.ready {
		return false
	}
	if v.edtState.Status() != resolve.StatusResolved {
		return false
	}
	if len(v.pages) == 0 {
		return false
	}
	for _, e := range v.editors {
		if e == nil {
			return false
		}
	}
	v.ready = true
	return true
}

// teardownBarrierLocked drops the registries and editing state for the
// outgoing document.
func (v *Viewer) teardownBarrierLocked() {
	v.pages = nil
	v.editors = nil
	v.ready = false
	v.manager = nil
}
