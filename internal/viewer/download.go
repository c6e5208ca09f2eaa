package viewer

import (
	"context"
	"fmt"
)

// Download delivers the raw document bytes to the download sink.
func (v *Viewer) Download(ctx context.Context, name string) error {
	doc, ok := v.docState.Value()
	if !ok {
		return ErrNoDocument
	}
	if v.download == nil {
		return ErrNoDownloadSink
	}
	if name == "" {
		name = v.defaultName
	}

	data, err := doc.Bytes(ctx)
	if err != nil {
		return fmt.Errorf("retrieving document bytes: %w", err)
	}
	return v.download(name, data)
}

// DownloadWithEdits delivers the document with edits applied. When saving
// fails, the viewer falls back to delivering the unedited bytes and the
// host sees a completed download rather than an error. Requests arriving
// while a save is running are dropped.
func (v *Viewer) DownloadWithEdits(ctx context.Context, name string) error {
	v.mu.Lock()
	if v.saving {
		v.mu.Unlock()
		return nil
	}
	v.saving = true
	v.mu.Unlock()
	defer func() {
		v.mu.Lock()
		v.saving = false
		v.mu.Unlock()
	}()

	doc, ok := v.docState.Value()
	if !ok {
		return ErrNoDocument
	}
	if v.download == nil {
		return ErrNoDownloadSink
	}
	if name == "" {
		name = v.defaultName
	}

	data, err := doc.SaveWithEdits(ctx)
	if err != nil {
		v.log.Warn("save with edits failed, delivering unedited document: %v", err)
		data, err = doc.Bytes(ctx)
		if err != nil {
			return fmt.Errorf("retrieving document bytes after failed save: %w", err)
		}
	}

	v.notifySink(CommandDownloadWithEdits, name)
	return v.download(name, data)
}
