package viewer

import "github.com/dshills/docview/internal/editing"

// Search asks the host find controller to run a query.
func (v *Viewer) Search(query string) {
	v.notifySink(CommandSearch, query)
}

// FindNext advances the host find controller to the next match.
func (v *Viewer) FindNext() {
	v.notifySink(CommandFindNext, nil)
}

// FindPrevious moves the host find controller to the previous match.
func (v *Viewer) FindPrevious() {
	v.notifySink(CommandFindPrevious, nil)
}

// CloseFindBar asks the host to dismiss its find UI.
func (v *Viewer) CloseFindBar() {
	v.notifySink(CommandCloseFindBar, nil)
}

// SetEditMode switches the editing mode. The change propagates to every
// mounted editor surface through the mode-changed event.
func (v *Viewer) SetEditMode(mode editing.Mode) error {
	mgr := v.Manager()
	if mgr == nil {
		return ErrNotReady
	}
	mgr.SetMode(mode)
	v.notifySink(CommandUpdateEditMode, mode)
	return nil
}

// UpdateEditParameter pushes a global editing parameter such as stroke
// color or font size.
func (v *Viewer) UpdateEditParameter(kind editing.ParameterKind, value any) error {
	mgr := v.Manager()
	if mgr == nil {
		return ErrNotReady
	}
	if err := mgr.UpdateParameter(kind, value); err != nil {
		return err
	}
	v.notifySink(CommandUpdateParameter, editing.ParameterPayload{Kind: kind, Value: value})
	return nil
}

// LinkToNode targets a link node by id; targeting navigates to the node's
// page when it has one.
func (v *Viewer) LinkToNode(id string) error {
	mgr := v.Manager()
	if mgr == nil {
		return ErrNotReady
	}
	node, err := mgr.TargetLinkNode(id)
	if err != nil {
		return err
	}
	v.notifySink(CommandLinkToNode, node)
	return nil
}
