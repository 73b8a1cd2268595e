// Package gt06 decodes location-report packets sent by trackers that use the
// GT06/JT808-derived "78 78 ... 0D 0A" framing.
package gt06

// Protocol constants
const (
	startByte1 = 0x78
	startByte2 = 0x78
	endByte1   = 0x0D
	endByte2   = 0x0A

	// Message types
	LocationMsg = 0x22

	// Minimum packet sizes
	minFramingLength  = 4  // start(2) + len(1) + proto(1)
	MinLocationLength = 28 // start(2) + len(1) + proto(1) + location(18) + tail(4) + end(2)

	// Field offsets inside a location packet
	offsetType       = 3
	offsetDateTime   = 4
	offsetGPSInfo    = 10
	offsetLatitude   = 11
	offsetLongitude  = 15
	offsetSpeed      = 19
	offsetCourseStat = 20

	// coordinateScale converts raw coordinate units to decimal degrees.
	coordinateScale = 1800000.0

	courseMask = 0x03FF
	accBit     = 0x0400
)
