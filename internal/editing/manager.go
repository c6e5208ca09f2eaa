// Package editing provides the editing-capable manager constructed once per
// document after the readiness barrier opens. The manager owns annotation
// state, edit modes, and the cross-cutting operations consumed by
// navigation code, and surfaces them as bus events.
package editing

import (
	"fmt"
	"sync"

	"github.com/dshills/docview/internal/engine"
	"github.com/dshills/docview/internal/event"
	"github.com/dshills/docview/internal/logging"
)

// Event names dispatched by the manager.
const (
	EventModeChanged      event.Name = "editing.mode.changed"
	EventParameterUpdated event.Name = "editing.parameter.updated"
	EventAnnotationsLoad  event.Name = "editing.annotations.loaded"
	EventLinkCreated      event.Name = "editing.link.created"
	EventLinkTargeted     event.Name = "editing.link.targeted"
)

// ParameterKind identifies a global editing parameter that can be pushed
// into the manager at any time after construction.
type ParameterKind int

const (
	// ParameterStrokeColor is the default stroke color (hex string).
	ParameterStrokeColor ParameterKind = iota

	// ParameterFillOpacity is the default fill opacity (0..1).
	ParameterFillOpacity

	// ParameterStrokeWidth is the default stroke width in points.
	ParameterStrokeWidth

	// ParameterFontSize is the default free-text font size in points.
	ParameterFontSize
)

// String returns a human-readable parameter name.
func (k ParameterKind) String() string {
	switch k {
	case ParameterStrokeColor:
		return "stroke-color"
	case ParameterFillOpacity:
		return "fill-opacity"
	case ParameterStrokeWidth:
		return "stroke-width"
	case ParameterFontSize:
		return "font-size"
	default:
		return "unknown"
	}
}

// Mode is the closed set of edit modes.
type Mode int

const (
	// ModeNone disables editing.
	ModeNone Mode = iota

	// ModeInk enables freehand drawing.
	ModeInk

	// ModeHighlight enables text highlighting.
	ModeHighlight

	// ModeFreeText enables free-text annotations.
	ModeFreeText
)

// String returns a human-readable mode name.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeInk:
		return "ink"
	case ModeHighlight:
		return "highlight"
	case ModeFreeText:
		return "free-text"
	default:
		return "unknown"
	}
}

// ParameterPayload is the bus payload for EventParameterUpdated.
type ParameterPayload struct {
	Kind  ParameterKind
	Value any
}

// ModePayload is the bus payload for EventModeChanged.
type ModePayload struct {
	Previous Mode
	Current  Mode
}

// Manager is the editing-capable manager bound to one document handle.
// It holds a non-owning reference to the handle and must not destroy it.
type Manager struct {
	mu sync.RWMutex

	doc     engine.Document
	bus     *event.Bus
	log     *logging.Logger
	palette []string

	mode        Mode
	params      map[ParameterKind]any
	annotations map[string]Annotation
	annOrder    []string
	links       map[string]LinkNode
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithPalette sets the color configuration. Entries are validated and
// normalized; an invalid entry fails construction.
func WithPalette(colors []string) ManagerOption {
	return func(m *Manager) {
		m.palette = colors
	}
}

// WithLogger sets the manager logger.
func WithLogger(log *logging.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager creates an editing manager bound to doc and bus. When no
// palette is supplied the default five-entry palette is used.
func NewManager(doc engine.Document, bus *event.Bus, opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		doc:         doc,
		bus:         bus,
		log:         logging.Null,
		params:      make(map[ParameterKind]any),
		annotations: make(map[string]Annotation),
		links:       make(map[string]LinkNode),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.palette == nil {
		m.palette = DefaultPalette()
	}
	normalized, err := NormalizePalette(m.palette)
	if err != nil {
		return nil, err
	}
	m.palette = normalized

	m.params[ParameterStrokeColor] = m.palette[0]
	m.params[ParameterFillOpacity] = defaultFillOpacity
	m.params[ParameterStrokeWidth] = defaultStrokeWidth
	m.params[ParameterFontSize] = defaultFontSize

	return m, nil
}

const (
	defaultFillOpacity = 0.35
	defaultStrokeWidth = 2.0
	defaultFontSize    = 12.0
)

// Palette returns the normalized color configuration.
func (m *Manager) Palette() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.palette))
	copy(out, m.palette)
	return out
}

// Mode returns the current edit mode.
func (m *Manager) Mode() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// SetMode changes the edit mode and dispatches EventModeChanged.
func (m *Manager) SetMode(mode Mode) {
	m.mu.Lock()
	previous := m.mode
	m.mode = mode
	m.mu.Unlock()

	if previous == mode {
		return
	}

	m.log.Debug("edit mode %s -> %s", previous, mode)
	if m.bus != nil {
		m.bus.Dispatch(EventModeChanged, ModePayload{Previous: previous, Current: mode})
	}
}

// Parameter returns the current value for a parameter kind.
func (m *Manager) Parameter(kind ParameterKind) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.params[kind]
	return v, ok
}

// UpdateParameter pushes a discrete parameter update into the manager.
// Each kind is independently updatable at any time after construction.
func (m *Manager) UpdateParameter(kind ParameterKind, value any) error {
	if err := validateParameter(kind, value); err != nil {
		return err
	}

	m.mu.Lock()
	m.params[kind] = value
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.Dispatch(EventParameterUpdated, ParameterPayload{Kind: kind, Value: value})
	}
	return nil
}

// validateParameter rejects values that make no sense for the kind.
func validateParameter(kind ParameterKind, value any) error {
	switch kind {
	case ParameterStrokeColor:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: stroke color must be a hex string", ErrInvalidParameter)
		}
		if _, err := NormalizeColor(s); err != nil {
			return err
		}
	case ParameterFillOpacity:
		f, ok := toFloat(value)
		if !ok || f < 0 || f > 1 {
			return fmt.Errorf("%w: fill opacity must be in [0, 1]", ErrInvalidParameter)
		}
	case ParameterStrokeWidth, ParameterFontSize:
		f, ok := toFloat(value)
		if !ok || f <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidParameter, kind)
		}
	default:
		return fmt.Errorf("%w: unknown parameter kind %d", ErrInvalidParameter, kind)
	}
	return nil
}

// toFloat widens numeric parameter values.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
