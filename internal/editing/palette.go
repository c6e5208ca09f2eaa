package editing

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultPalette returns the fixed five-entry color configuration used when
// the caller supplies none.
func DefaultPalette() []string {
	return []string{
		"#e02020", // red
		"#f7a500", // amber
		"#12805c", // green
		"#2962ff", // blue
		"#7b1fa2", // purple
	}
}

// NormalizeColor validates a hex color string and returns its canonical
// lowercase #rrggbb form.
func NormalizeColor(s string) (string, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return c.Hex(), nil
}

// NormalizePalette validates and normalizes every palette entry. An empty
// palette is invalid.
func NormalizePalette(colors []string) ([]string, error) {
	if len(colors) == 0 {
		return nil, fmt.Errorf("%w: palette cannot be empty", ErrInvalidColor)
	}

	out := make([]string, len(colors))
	for i, s := range colors {
		normalized, err := NormalizeColor(s)
		if err != nil {
			return nil, err
		}
		out[i] = normalized
	}
	return out, nil
}
