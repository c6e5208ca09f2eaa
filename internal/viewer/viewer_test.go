package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dshills/docview/internal/editing"
	"github.com/dshills/docview/internal/engine"
	"github.com/dshills/docview/internal/event"
	"github.com/dshills/docview/internal/resolve"
	"github.com/dshills/docview/internal/source"
)

type fakeDoc struct {
	mu        sync.Mutex
	pages     int
	data      []byte
	saveData  []byte
	saveErr   error
	saveCalls int
	destroyed bool
}

func (d *fakeDoc) PageCount() int { return d.pages }

func (d *fakeDoc) Bytes(_ context.Context) ([]byte, error) { return d.data, nil }

func (d *fakeDoc) SaveWithEdits(_ context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.saveCalls++
	if d.saveErr != nil {
		return nil, d.saveErr
	}
	return d.saveData, nil
}

func (d *fakeDoc) EditStorageSize() int { return 0 }

func (d *fakeDoc) Destroy() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyed = true
	return nil
}

func (d *fakeDoc) isDestroyed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed
}

type fakeTask struct {
	mu        sync.Mutex
	doc       engine.Document
	err       error
	gate      chan struct{} // when non-nil, Await blocks until closed
	destroyed bool
}

func (t *fakeTask) Await(ctx context.Context) (engine.Document, error) {
	if t.gate != nil {
		select {
		case <-t.gate:
		case <-ctx.Done():
			return nil, engine.ErrLoadCancelled
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return nil, engine.ErrLoadCancelled
	}
	return t.doc, t.err
}

func (t *fakeTask) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.destroyed = true
}

type fakeEngine struct {
	mu    sync.Mutex
	loads []engine.LoadParams
	queue []*fakeTask
}

func (e *fakeEngine) enqueue(task *fakeTask) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue = append(e.queue, task)
}

func (e *fakeEngine) Load(_ context.Context, params engine.LoadParams) engine.LoadTask {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loads = append(e.loads, params)
	if len(e.queue) == 0 {
		return &fakeTask{doc: &fakeDoc{pages: 1}}
	}
	task := e.queue[0]
	e.queue = e.queue[1:]
	return task
}

func (e *fakeEngine) loadCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.loads)
}

type fakeSurface struct {
	mu       sync.Mutex
	top      float64
	bottom   float64
	scrolled int
}

func (s *fakeSurface) ScrollIntoView() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrolled++
}

func (s *fakeSurface) Bounds() (float64, float64) { return s.top, s.bottom }

func (s *fakeSurface) scrollCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scrolled
}

type fakeEditor struct {
	mu    sync.Mutex
	modes []editing.Mode
}

func (e *fakeEditor) SetMode(mode editing.Mode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.modes = append(e.modes, mode)
}

func (e *fakeEditor) lastMode() (editing.Mode, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.modes) == 0 {
		return 0, false
	}
	return e.modes[len(e.modes)-1], true
}

func newTestViewer(t *testing.T, opts ...Option) (*Viewer, *fakeEngine) {
	t.Helper()
	eng := &fakeEngine{}
	v, err := New(eng, opts...)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	t.Cleanup(v.Close)
	return v, eng
}

func waitFor(t *testing.T, ch chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

// loadPages drives a complete load of a fresh document with the given page
// count and blocks until it settles.
func loadPages(t *testing.T, v *Viewer, eng *fakeEngine, pages int) *fakeDoc {
	t.Helper()
	doc := &fakeDoc{
		pages:    pages,
		data:     []byte(fmt.Sprintf("doc-%d-%d", pages, time.Now().UnixNano())),
		saveData: []byte("saved"),
	}
	eng.enqueue(&fakeTask{doc: doc})

	loaded := make(chan struct{})
	if _, err := v.Bus().Subscribe(EventDocumentLoaded, func(any) { close(loaded) }, event.WithOnce()); err != nil {
		t.Fatal(err)
	}
	if err := v.SetInput(context.Background(), doc.data); err != nil {
		t.Fatalf("SetInput error: %v", err)
	}
	waitFor(t, loaded, "document load")
	return doc
}

// mountAll registers a page surface and an editor surface for every page,
// opening the readiness barrier.
func mountAll(t *testing.T, v *Viewer, pages int) []*fakeSurface {
	t.Helper()
	surfaces := make([]*fakeSurface, pages)
	for i := 0; i < pages; i++ {
		surfaces[i] = &fakeSurface{top: float64(i * 100), bottom: float64(i*100 + 100)}
		v.RegisterPage(i, surfaces[i])
		v.RegisterEditorSurface(i, &fakeEditor{})
	}
	if !v.Ready() {
		t.Fatal("barrier did not open after mounting every surface")
	}
	return surfaces
}

func TestSetInput_LoadsDocument(t *testing.T) {
	var loadedDoc engine.Document
	var resolvedDesc *source.Descriptor
	done := make(chan struct{})

	v, eng := newTestViewer(t, WithCallbacks(Callbacks{
		OnSourceResolved: func(desc *source.Descriptor) { resolvedDesc = desc },
		OnDocumentLoaded: func(doc engine.Document) { loadedDoc = doc; close(done) },
	}))

	doc := &fakeDoc{pages: 4, data: []byte("content")}
	eng.enqueue(&fakeTask{doc: doc})

	if err := v.SetInput(context.Background(), []byte("content")); err != nil {
		t.Fatalf("SetInput error: %v", err)
	}
	waitFor(t, done, "document load")

	if v.SourceStatus() != resolve.StatusResolved {
		t.Errorf("source status = %v, want resolved", v.SourceStatus())
	}
	if resolvedDesc == nil || string(resolvedDesc.Data) != "content" {
		t.Errorf("resolved descriptor = %+v", resolvedDesc)
	}
	if v.DocumentStatus() != resolve.StatusResolved {
		t.Errorf("document status = %v, want resolved", v.DocumentStatus())
	}
	if loadedDoc != engine.Document(doc) {
		t.Error("callback did not receive the loaded document")
	}
	got, ok := v.Document()
	if !ok || got != engine.Document(doc) {
		t.Errorf("Document() = (%v, %v)", got, ok)
	}
}

func TestSetInput_NilClearsViewer(t *testing.T) {
	v, eng := newTestViewer(t)
	doc := loadPages(t, v, eng, 2)

	if err := v.SetInput(context.Background(), nil); err != nil {
		t.Fatalf("SetInput(nil) error: %v", err)
	}

	if v.SourceStatus() != resolve.StatusAbsent {
		t.Errorf("source status = %v, want absent", v.SourceStatus())
	}
	if v.DocumentStatus() != resolve.StatusAbsent {
		t.Errorf("document status = %v, want absent", v.DocumentStatus())
	}
	if !doc.isDestroyed() {
		t.Error("previous document handle was not destroyed")
	}
}

func TestSetInput_RedundantInputAdvisory(t *testing.T) {
	var advisories []source.Advisory
	v, eng := newTestViewer(t, WithCallbacks(Callbacks{
		OnAdvisory: func(adv source.Advisory) { advisories = append(advisories, adv) },
	}))

	doc := &fakeDoc{pages: 1, data: []byte("same")}
	eng.enqueue(&fakeTask{doc: doc})

	loaded := make(chan struct{})
	v.Bus().Subscribe(EventDocumentLoaded, func(any) { close(loaded) }, event.WithOnce())
	if err := v.SetInput(context.Background(), []byte("same")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, loaded, "first load")

	var sourceEvents int
	v.Bus().Subscribe(EventSourceResolved, func(any) { sourceEvents++ })

	if err := v.SetInput(context.Background(), []byte("same")); err != nil {
		t.Fatalf("redundant SetInput error: %v", err)
	}

	if eng.loadCount() != 1 {
		t.Errorf("engine loads = %d, want 1 (redundant input must not reload)", eng.loadCount())
	}
	if sourceEvents != 0 {
		t.Errorf("redundant input produced %d source events", sourceEvents)
	}
	if len(advisories) != 1 || advisories[0].Code != source.AdvisoryRedundantInput {
		t.Errorf("advisories = %+v, want one redundant-input advisory", advisories)
	}
	if doc.isDestroyed() {
		t.Error("redundant input destroyed the current document")
	}
}

func TestSetInput_ResolutionFailure(t *testing.T) {
	var srcErr error
	v, eng := newTestViewer(t, WithCallbacks(Callbacks{
		OnSourceFailed: func(err error) { srcErr = err },
	}))

	err := v.SetInput(context.Background(), 42)
	if !errors.Is(err, source.ErrInvalidInput) {
		t.Fatalf("SetInput(42) = %v, want ErrInvalidInput", err)
	}
	if !errors.Is(srcErr, source.ErrInvalidInput) {
		t.Errorf("OnSourceFailed got %v", srcErr)
	}
	if v.SourceStatus() != resolve.StatusRejected {
		t.Errorf("source status = %v, want rejected", v.SourceStatus())
	}
	if eng.loadCount() != 0 {
		t.Error("failed resolution must not reach the engine")
	}
}

func TestSetInput_SupersededLoadDiscarded(t *testing.T) {
	var failures int
	v, eng := newTestViewer(t, WithCallbacks(Callbacks{
		OnDocumentFailed: func(error) { failures++ },
	}))

	blocked := &fakeTask{doc: &fakeDoc{pages: 9}, gate: make(chan struct{})}
	eng.enqueue(blocked)

	if err := v.SetInput(context.Background(), []byte("first")); err != nil {
		t.Fatal(err)
	}

	second := loadPages(t, v, eng, 2)
	close(blocked.gate)

	// Let the superseded goroutine observe its cancellation.
	time.Sleep(50 * time.Millisecond)

	got, ok := v.Document()
	if !ok || got.PageCount() != second.pages {
		t.Errorf("Document() = (%v, %v), want the second document", got, ok)
	}
	if failures != 0 {
		t.Errorf("superseded load reported %d failures, want 0", failures)
	}
}

func TestLoadFailure(t *testing.T) {
	loadErr := errors.New("corrupt header")
	failed := make(chan struct{})
	var gotErr error

	v, eng := newTestViewer(t, WithCallbacks(Callbacks{
		OnDocumentFailed: func(err error) { gotErr = err; close(failed) },
	}))
	eng.enqueue(&fakeTask{err: loadErr})

	if err := v.SetInput(context.Background(), []byte("broken")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, failed, "load failure")

	if !errors.Is(gotErr, loadErr) {
		t.Errorf("OnDocumentFailed got %v", gotErr)
	}
	if v.DocumentStatus() != resolve.StatusRejected {
		t.Errorf("document status = %v, want rejected", v.DocumentStatus())
	}
}

func TestCancelledLoadIsNotAFailure(t *testing.T) {
	var failures int
	v, eng := newTestViewer(t, WithCallbacks(Callbacks{
		OnDocumentFailed: func(error) { failures++ },
	}))

	blocked := &fakeTask{doc: &fakeDoc{pages: 1}, gate: make(chan struct{})}
	eng.enqueue(blocked)

	if err := v.SetInput(context.Background(), []byte("in-flight")); err != nil {
		t.Fatal(err)
	}
	if err := v.SetInput(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	time.Sleep(50 * time.Millisecond)

	if failures != 0 {
		t.Errorf("cancellation surfaced as %d failures, want 0", failures)
	}
	if v.DocumentStatus() != resolve.StatusAbsent {
		t.Errorf("document status = %v, want absent", v.DocumentStatus())
	}
}

func TestReload(t *testing.T) {
	v, eng := newTestViewer(t)
	first := loadPages(t, v, eng, 2)

	replacement := &fakeDoc{pages: 2, data: first.data}
	eng.enqueue(&fakeTask{doc: replacement})

	loaded := make(chan struct{})
	v.Bus().Subscribe(EventDocumentLoaded, func(any) { close(loaded) }, event.WithOnce())

	if err := v.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}
	waitFor(t, loaded, "reload")

	if !first.isDestroyed() {
		t.Error("previous document survived the reload")
	}
	got, _ := v.Document()
	if got != engine.Document(replacement) {
		t.Error("Document() is not the reloaded handle")
	}
}

func TestReload_WithoutSource(t *testing.T) {
	v, _ := newTestViewer(t)
	if err := v.Reload(); !errors.Is(err, ErrNoDocument) {
		t.Errorf("Reload = %v, want ErrNoDocument", err)
	}
}

func TestClose(t *testing.T) {
	v, eng := newTestViewer(t)
	doc := loadPages(t, v, eng, 1)

	v.Close()

	if !doc.isDestroyed() {
		t.Error("Close did not destroy the owned document")
	}
	if err := v.SetInput(context.Background(), []byte("after")); !errors.Is(err, ErrClosed) {
		t.Errorf("SetInput after Close = %v, want ErrClosed", err)
	}
	v.Close() // idempotent
}

func TestEngineOptionsReachLoadParams(t *testing.T) {
	v, eng := newTestViewer(t, WithEngineOptions(map[string]any{"cMapURL": "/cmaps/"}))
	loadPages(t, v, eng, 1)

	eng.mu.Lock()
	defer eng.mu.Unlock()
	if got := eng.loads[0].Options["cMapURL"]; got != "/cmaps/" {
		t.Errorf("load params option = %v, want caller option", got)
	}
}
