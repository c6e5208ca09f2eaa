package editing

import "errors"

// Sentinel errors for the editing manager.
var (
	// ErrInvalidColor is returned for a color that cannot be parsed.
	ErrInvalidColor = errors.New("invalid color")

	// ErrInvalidParameter is returned for a parameter update with an
	// unusable value.
	ErrInvalidParameter = errors.New("invalid editing parameter")

	// ErrInvalidRecords is returned for annotation or link-node input that
	// is not valid JSON.
	ErrInvalidRecords = errors.New("invalid record payload")

	// ErrLinkNotFound is returned when a link node id is unknown.
	ErrLinkNotFound = errors.New("link node not found")

	// ErrDuplicateLink is returned when creating a link node whose id
	// already exists.
	ErrDuplicateLink = errors.New("link node already exists")
)
