package editing

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// LinkNode is one entry of an external link-node list (outline items,
// internal link targets). Nodes are keyed by id.
type LinkNode struct {
	// ID uniquely identifies the node.
	ID string

	// Title is the display title.
	Title string

	// Page is the zero-based destination page index, or -1 when the node
	// has no page destination.
	Page int

	// Dest is an opaque engine destination string, if any.
	Dest string
}

// ParseLinkNodes parses an external link-node list from a JSON array and
// replaces the manager's node set. Returns the parsed nodes.
func (m *Manager) ParseLinkNodes(data []byte) ([]LinkNode, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: link nodes are not valid JSON", ErrInvalidRecords)
	}

	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("%w: link nodes must be a JSON array", ErrInvalidRecords)
	}

	var nodes []LinkNode
	var parseErr error
	parsed.ForEach(func(_, rec gjson.Result) bool {
		id := rec.Get("id").String()
		if id == "" {
			parseErr = fmt.Errorf("%w: link node missing id", ErrInvalidRecords)
			return false
		}

		node := LinkNode{
			ID:    id,
			Title: rec.Get("title").String(),
			Page:  -1,
			Dest:  rec.Get("dest").String(),
		}
		if page := rec.Get("page"); page.Exists() {
			node.Page = int(page.Int())
		}

		nodes = append(nodes, node)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	m.mu.Lock()
	m.links = make(map[string]LinkNode, len(nodes))
	for _, node := range nodes {
		m.links[node.ID] = node
	}
	m.mu.Unlock()

	m.log.Debug("parsed %d link nodes", len(nodes))
	return nodes, nil
}

// LinkNodeByID returns the link node with the given id.
func (m *Manager) LinkNodeByID(id string) (LinkNode, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, ok := m.links[id]
	return node, ok
}

// CreateLinkNode adds a new link node and dispatches EventLinkCreated.
func (m *Manager) CreateLinkNode(node LinkNode) error {
	if node.ID == "" {
		return fmt.Errorf("%w: link node missing id", ErrInvalidRecords)
	}

	m.mu.Lock()
	if _, exists := m.links[node.ID]; exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateLink, node.ID)
	}
	m.links[node.ID] = node
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.Dispatch(EventLinkCreated, node)
	}
	return nil
}

// TargetLinkNode resolves a link node by id and dispatches
// EventLinkTargeted so navigation can bring its destination into view.
func (m *Manager) TargetLinkNode(id string) (LinkNode, error) {
	m.mu.RLock()
	node, ok := m.links[id]
	m.mu.RUnlock()

	if !ok {
		return LinkNode{}, fmt.Errorf("%w: %q", ErrLinkNotFound, id)
	}

	if m.bus != nil {
		m.bus.Dispatch(EventLinkTargeted, node)
	}
	return node, nil
}
