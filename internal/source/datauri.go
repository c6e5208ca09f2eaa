package source

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

const dataURIPrefix = "data:"

// IsDataURI reports whether s is a data URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, dataURIPrefix)
}

// DecodeDataURI decodes the payload of a data URI to bytes. Both base64 and
// percent-encoded payloads are supported.
func DecodeDataURI(s string) ([]byte, error) {
	if !IsDataURI(s) {
		return nil, fmt.Errorf("%w: missing data: prefix", ErrInvalidDataURI)
	}

	rest := s[len(dataURIPrefix):]
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return nil, fmt.Errorf("%w: missing payload separator", ErrInvalidDataURI)
	}

	meta := rest[:comma]
	payload := rest[comma+1:]

	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
		}
		return data, nil
	}

	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return []byte(decoded), nil
}
