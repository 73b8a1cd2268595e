package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestDeviceFilter(t *testing.T) {
	from := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	tests := []struct {
		name  string
		query PositionQuery
		want  bson.M
	}{
		{name: "device only", query: PositionQuery{Limit: 5}, want: bson.M{"deviceId": "dev"}},
		{name: "from", query: PositionQuery{From: from}, want: bson.M{"deviceId": "dev", "timestamp": bson.M{"$gte": from}}},
		{name: "to", query: PositionQuery{To: to}, want: bson.M{"deviceId": "dev", "timestamp": bson.M{"$lte": to}}},
		{name: "both", query: PositionQuery{From: from, To: to}, want: bson.M{"deviceId": "dev", "timestamp": bson.M{"$gte": from, "$lte": to}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deviceFilter("dev", tt.query))
		})
	}
}
