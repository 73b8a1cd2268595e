package model

import (
	"time"

	"locdecoder/internal/core/util"
)

type Position struct {
	ID         string                 `json:"id" bson:"_id"`
	DeviceID   string                 `json:"deviceId" bson:"deviceId"`
	Timestamp  time.Time              `json:"timestamp" bson:"timestamp"`
	ReceivedAt time.Time              `json:"receivedAt" bson:"receivedAt"`
	Latitude   float64                `json:"latitude" bson:"latitude"`
	Longitude  float64                `json:"longitude" bson:"longitude"`
	Speed      float64                `json:"speed" bson:"speed"`   // km/h
	Course     float64                `json:"course" bson:"course"` // degrees
	Protocol   string                 `json:"protocol" bson:"protocol"`
	Valid      bool                   `json:"valid" bson:"valid"`           // device timestamp was usable
	Satellites uint8                  `json:"satellites" bson:"satellites"` // Number of satellites used for fix
	Ignition   bool                   `json:"ignition" bson:"ignition"`
	Status     map[string]interface{} `json:"status,omitempty" bson:"status,omitempty"` // Additional status information
}

func NewPosition(deviceID string, lat, lon float64) *Position {
	now := time.Now().UTC()
	return &Position{
		ID:         util.GenerateID(),
		DeviceID:   deviceID,
		Timestamp:  now,
		ReceivedAt: now,
		Latitude:   lat,
		Longitude:  lon,
		Protocol:   "unknown",
		Valid:      true,
		Status:     make(map[string]interface{}),
	}
}
