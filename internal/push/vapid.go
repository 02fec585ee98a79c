package push

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// serverKeyLength is the size of an uncompressed P-256 public point, the
// only shape the platform subscription call accepts.
const serverKeyLength = 65

// DecodeServerKey decodes a VAPID application server key from URL-safe
// base64 into raw bytes. A key of the wrong decoded length is a
// configuration error, reported before any subscription is attempted.
func DecodeServerKey(key string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(key, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidServerKey, err)
	}
	if len(raw) != serverKeyLength {
		return nil, fmt.Errorf("%w: decoded to %d bytes, want %d", ErrInvalidServerKey, len(raw), serverKeyLength)
	}
	return raw, nil
}
