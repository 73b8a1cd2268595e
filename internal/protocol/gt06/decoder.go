package gt06

import (
	"encoding/binary"
	"fmt"
)

// Decoder decodes GT06 location packets. It holds no state and is safe for
// concurrent use.
type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode parses one complete, already framed packet. On failure the returned
// error wraps ErrTruncated, ErrInvalidFraming or ErrUnsupportedType and the
// report is nil.
func (d *Decoder) Decode(data []byte) (*LocationReport, error) {
	if len(data) < minFramingLength {
		return nil, fmt.Errorf("%w: got %d bytes, need at least %d",
			ErrTruncated, len(data), minFramingLength)
	}

	if data[0] != startByte1 || data[1] != startByte2 {
		return nil, fmt.Errorf("%w: expected start 0x%02x%02x, got 0x%02x%02x",
			ErrInvalidFraming, startByte1, startByte2, data[0], data[1])
	}
	if data[len(data)-2] != endByte1 || data[len(data)-1] != endByte2 {
		return nil, fmt.Errorf("%w: expected end 0x%02x%02x, got 0x%02x%02x",
			ErrInvalidFraming, endByte1, endByte2, data[len(data)-2], data[len(data)-1])
	}

	if protocolNumber := data[offsetType]; protocolNumber != LocationMsg {
		return nil, &UnsupportedTypeError{Type: protocolNumber}
	}

	if len(data) < MinLocationLength {
		return nil, fmt.Errorf("%w: location packet has %d bytes, need at least %d",
			ErrTruncated, len(data), MinLocationLength)
	}

	return d.decodeLocationMessage(data), nil
}

// decodeLocationMessage reads the fixed location fields. The caller has
// already checked that data holds at least MinLocationLength bytes.
func (d *Decoder) decodeLocationMessage(data []byte) *LocationReport {
	ts := data[offsetDateTime : offsetDateTime+6]
	courseStatus := binary.BigEndian.Uint16(data[offsetCourseStat : offsetCourseStat+2])

	return &LocationReport{
		Timestamp: Timestamp{
			Year:   2000 + int(ts[0]),
			Month:  ts[1],
			Day:    ts[2],
			Hour:   ts[3],
			Minute: ts[4],
			Second: ts[5],
		},
		Satellites: (data[offsetGPSInfo] >> 4) & 0x0F,
		Latitude:   scaleCoordinate(binary.BigEndian.Uint32(data[offsetLatitude : offsetLatitude+4])),
		Longitude:  scaleCoordinate(binary.BigEndian.Uint32(data[offsetLongitude : offsetLongitude+4])),
		Speed:      data[offsetSpeed],
		Course:     courseStatus & courseMask,
		ACC:        courseStatus&accBit != 0,
	}
}

// scaleCoordinate treats raw as an unsigned magnitude. Hemisphere flags are
// not part of the fields read here, so southern and western fixes come out
// positive.
func scaleCoordinate(raw uint32) float64 {
	return float64(raw) / coordinateScale
}

var defaultDecoder = NewDecoder()

// Decode parses data with a shared zero-value Decoder.
func Decode(data []byte) (*LocationReport, error) {
	return defaultDecoder.Decode(data)
}
