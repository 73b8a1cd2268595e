package gt06

import (
	"time"

	"locdecoder/internal/core/model"
)

const protocolName = "gt06"

// ToPosition maps a decoded report onto the storage model. The device clock is
// taken as UTC and its raw value is kept in Status["deviceTime"]; when it does
// not form a valid date the receive time is used and Valid is cleared.
func ToPosition(deviceID string, r *LocationReport, received time.Time) *model.Position {
	position := model.NewPosition(deviceID, r.Latitude, r.Longitude)
	position.Protocol = protocolName
	position.Speed = float64(r.Speed)
	position.Course = float64(r.Course)
	position.Satellites = r.Satellites
	position.Ignition = r.ACC
	position.ReceivedAt = received.UTC()

	position.Status["acc"] = r.ACC
	position.Status["deviceTime"] = r.Timestamp.String()

	if ts, err := r.Timestamp.Time(time.UTC); err == nil {
		position.Timestamp = ts
	} else {
		position.Timestamp = position.ReceivedAt
		position.Valid = false
	}

	return position
}
