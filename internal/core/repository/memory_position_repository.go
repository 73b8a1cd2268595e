package repository

import (
	"context"
	"maps"
	"sort"
	"sync"

	"locdecoder/internal/core/model"
)

type inMemoryPositionRepository struct {
	positions map[string]*model.Position
	mutex     sync.RWMutex
}

func NewInMemoryPositionRepository() PositionRepository {
	return &inMemoryPositionRepository{
		positions: make(map[string]*model.Position),
	}
}

// clonePosition keeps stored state out of reach of callers.
func clonePosition(p *model.Position) *model.Position {
	c := *p
	c.Status = maps.Clone(p.Status)
	return &c
}

func (r *inMemoryPositionRepository) Create(_ context.Context, position *model.Position) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.positions[position.ID] = clonePosition(position)
	return nil
}

func (r *inMemoryPositionRepository) FindByDeviceID(_ context.Context, deviceID string, query PositionQuery) ([]*model.Position, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var result []*model.Position
	for _, position := range r.positions {
		if position.DeviceID == deviceID && query.matches(position.Timestamp) {
			result = append(result, position)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	if query.Limit > 0 && len(result) > query.Limit {
		result = result[:query.Limit]
	}
	for i, position := range result {
		result[i] = clonePosition(position)
	}
	return result, nil
}

func (r *inMemoryPositionRepository) FindLatestByDeviceID(_ context.Context, deviceID string) (*model.Position, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var latest *model.Position
	for _, position := range r.positions {
		if position.DeviceID != deviceID {
			continue
		}
		if latest == nil || position.Timestamp.After(latest.Timestamp) {
			latest = position
		}
	}
	if latest == nil {
		return nil, nil
	}
	return clonePosition(latest), nil
}

func (r *inMemoryPositionRepository) FindLatest(_ context.Context) ([]*model.Position, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	latest := make(map[string]*model.Position)
	for _, position := range r.positions {
		if cur, ok := latest[position.DeviceID]; !ok || position.Timestamp.After(cur.Timestamp) {
			latest[position.DeviceID] = position
		}
	}

	result := make([]*model.Position, 0, len(latest))
	for _, position := range latest {
		result = append(result, clonePosition(position))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DeviceID < result[j].DeviceID
	})
	return result, nil
}
