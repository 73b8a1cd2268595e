package gt06

import (
	"errors"
	"fmt"
	"time"
)

// Common errors
var (
	ErrTruncated        = errors.New("packet truncated")
	ErrInvalidFraming   = errors.New("invalid packet framing")
	ErrUnsupportedType  = errors.New("unsupported message type")
	ErrInvalidTimestamp = errors.New("invalid timestamp values")
	ErrInvalidHex       = errors.New("invalid hex packet")
)

// UnsupportedTypeError reports a well-framed packet whose message type is not
// a location report. It matches ErrUnsupportedType under errors.Is.
type UnsupportedTypeError struct {
	Type byte
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("%s: 0x%02x (%s)", ErrUnsupportedType, e.Type, MessageTypeName(e.Type))
}

func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// Timestamp is the device wall-clock time exactly as broadcast. Fields are
// not range checked; use Time to get a validated time.Time.
type Timestamp struct {
	Year   int
	Month  uint8
	Day    uint8
	Hour   uint8
	Minute uint8
	Second uint8
}

func (ts Timestamp) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
		ts.Year, ts.Month, ts.Day, ts.Hour, ts.Minute, ts.Second)
}

// MarshalText renders the timestamp the same way String does.
func (ts Timestamp) MarshalText() ([]byte, error) {
	return []byte(ts.String()), nil
}

// Valid reports whether every field is inside its calendar range.
func (ts Timestamp) Valid() bool {
	if ts.Month < 1 || ts.Month > 12 || ts.Day < 1 || ts.Day > 31 ||
		ts.Hour > 23 || ts.Minute > 59 || ts.Second > 59 {
		return false
	}
	// time.Date normalises Feb 30 into March; reject instead.
	t := time.Date(ts.Year, time.Month(ts.Month), int(ts.Day), 0, 0, 0, 0, time.UTC)
	return t.Day() == int(ts.Day)
}

// Time interprets the timestamp in loc. The device sends no zone information,
// so the caller decides which zone the wall clock belongs to.
func (ts Timestamp) Time(loc *time.Location) (time.Time, error) {
	if !ts.Valid() {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidTimestamp, ts)
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(ts.Year, time.Month(ts.Month), int(ts.Day),
		int(ts.Hour), int(ts.Minute), int(ts.Second), 0, loc), nil
}

// LocationReport is the decoded content of a 0x22 location packet.
type LocationReport struct {
	Timestamp  Timestamp `json:"timestamp"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Speed      uint8     `json:"speed"`  // km/h
	Course     uint16    `json:"course"` // degrees, 10-bit field, not clamped to 359
	Satellites uint8     `json:"satellites"`
	ACC        bool      `json:"acc"`
}

// MessageTypeName returns a human-readable name for message types
func MessageTypeName(protocolNumber byte) string {
	switch protocolNumber {
	case 0x01:
		return "login"
	case 0x13:
		return "heartbeat"
	case 0x16, 0x26:
		return "alarm"
	case LocationMsg:
		return "location"
	default:
		return fmt.Sprintf("unknown_0x%02x", protocolNumber)
	}
}

// Reason classifies a decode error for metrics labels and API responses. It
// returns an empty string for errors that did not come from the decoder.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrTruncated):
		return "truncated"
	case errors.Is(err, ErrInvalidFraming):
		return "invalid_framing"
	case errors.Is(err, ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, ErrInvalidHex):
		return "invalid_hex"
	default:
		return ""
	}
}
