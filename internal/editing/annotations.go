package editing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Annotation is one external annotation record loaded into the manager.
type Annotation struct {
	// ID uniquely identifies the annotation.
	ID string

	// Page is the zero-based page index the annotation belongs to.
	Page int

	// Kind is the annotation type (ink, highlight, free-text, ...).
	Kind string

	// Color is the normalized hex color.
	Color string

	// Rect is the annotation bounds [x1, y1, x2, y2] in page space.
	Rect [4]float64

	// Contents is the optional text contents.
	Contents string
}

// LoadAnnotations parses a batch of external annotation records from a JSON
// array and merges them into the manager. Records without an id are
// assigned one; records with a known id replace the previous record.
// Returns the number of records loaded.
func (m *Manager) LoadAnnotations(data []byte) (int, error) {
	if !gjson.ValidBytes(data) {
		return 0, fmt.Errorf("%w: annotations are not valid JSON", ErrInvalidRecords)
	}

	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return 0, fmt.Errorf("%w: annotations must be a JSON array", ErrInvalidRecords)
	}

	pageCount := m.doc.PageCount()

	var records []Annotation
	var parseErr error
	parsed.ForEach(func(_, rec gjson.Result) bool {
		page := int(rec.Get("page").Int())
		if page < 0 || page >= pageCount {
			parseErr = fmt.Errorf("%w: page %d out of range [0, %d)", ErrInvalidRecords, page, pageCount)
			return false
		}

		ann := Annotation{
			ID:       rec.Get("id").String(),
			Page:     page,
			Kind:     rec.Get("kind").String(),
			Contents: rec.Get("contents").String(),
		}
		if ann.ID == "" {
			ann.ID = uuid.NewString()
		}

		if color := rec.Get("color").String(); color != "" {
			normalized, err := NormalizeColor(color)
			if err != nil {
				parseErr = err
				return false
			}
			ann.Color = normalized
		}

		rect := rec.Get("rect").Array()
		for i := 0; i < len(rect) && i < 4; i++ {
			ann.Rect[i] = rect[i].Float()
		}

		records = append(records, ann)
		return true
	})
	if parseErr != nil {
		return 0, parseErr
	}

	m.mu.Lock()
	for _, ann := range records {
		if _, exists := m.annotations[ann.ID]; !exists {
			m.annOrder = append(m.annOrder, ann.ID)
		}
		m.annotations[ann.ID] = ann
	}
	m.mu.Unlock()

	m.log.Debug("loaded %d annotation records", len(records))
	if m.bus != nil && len(records) > 0 {
		m.bus.Dispatch(EventAnnotationsLoad, len(records))
	}
	return len(records), nil
}

// Annotations returns all annotations in load order.
func (m *Manager) Annotations() []Annotation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Annotation, 0, len(m.annOrder))
	for _, id := range m.annOrder {
		out = append(out, m.annotations[id])
	}
	return out
}

// AnnotationsForPage returns the annotations on one page, in load order.
func (m *Manager) AnnotationsForPage(page int) []Annotation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Annotation
	for _, id := range m.annOrder {
		if ann := m.annotations[id]; ann.Page == page {
			out = append(out, ann)
		}
	}
	return out
}

// ExportAnnotations serializes the manager's annotations to a JSON array in
// load order.
func (m *Manager) ExportAnnotations() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []byte("[]")
	for i, id := range m.annOrder {
		ann := m.annotations[id]
		prefix := fmt.Sprintf("%d.", i)

		var err error
		for _, field := range []struct {
			path  string
			value any
		}{
			{"id", ann.ID},
			{"page", ann.Page},
			{"kind", ann.Kind},
			{"color", ann.Color},
			{"rect", []float64{ann.Rect[0], ann.Rect[1], ann.Rect[2], ann.Rect[3]}},
			{"contents", ann.Contents},
		} {
			out, err = sjson.SetBytes(out, prefix+field.path, field.value)
			if err != nil {
				return nil, fmt.Errorf("exporting annotation %s: %w", ann.ID, err)
			}
		}
	}
	return out, nil
}
