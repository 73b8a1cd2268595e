package gt06

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

// DecodeHex decodes a packet written as a hex string, as found in device logs.
// Whitespace and an optional 0x prefix are ignored.
func DecodeHex(s string) (*LocationReport, error) {
	data, err := ParseHex(s)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// ParseHex converts a hex dump into raw packet bytes.
func ParseHex(s string) ([]byte, error) {
	clean := stripWhitespace(s)
	if strings.HasPrefix(clean, "0x") || strings.HasPrefix(clean, "0X") {
		clean = clean[2:]
	}
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of digits (%d)", ErrInvalidHex, len(clean))
	}
	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	return data, nil
}

func stripWhitespace(s string) string {
	builder := strings.Builder{}
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
