package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"locdecoder/internal/cache"
	"locdecoder/internal/core/model"
	"locdecoder/internal/core/repository"
	"locdecoder/internal/infra/mq"
	"locdecoder/internal/observability"
	"locdecoder/internal/protocol/gt06"
)

var (
	ErrInvalidDeviceID  = errors.New("invalid device ID")
	ErrInvalidTimeRange = errors.New("invalid time range")
)

type PositionService interface {
	ProcessRawData(ctx context.Context, deviceID string, data []byte) (*model.Position, error)
	ProcessHex(ctx context.Context, deviceID string, hexData string) (*model.Position, error)
	GetDevicePositions(ctx context.Context, deviceID string, query repository.PositionQuery) ([]*model.Position, error)
	GetLatestPosition(ctx context.Context, deviceID string) (*model.Position, error)
	GetAllLatestPositions(ctx context.Context) ([]*model.Position, error)
}

// LatestCache holds the newest position per device. SetLatest must keep an
// entry whose Timestamp is later than the one offered.
type LatestCache interface {
	SetLatest(ctx context.Context, position *model.Position) error
	GetLatest(ctx context.Context, deviceID string) (*model.Position, error)
}

// PayloadDispatcher queues positions for the message queue.
type PayloadDispatcher interface {
	Dispatch(p mq.Payload) bool
}

type positionService struct {
	positionRepo repository.PositionRepository
	cache        LatestCache
	dispatcher   PayloadDispatcher
	decoder      *gt06.Decoder
	logger       *zap.Logger
	now          func() time.Time
}

// NewPositionService wires the ingestion pipeline. positionCache and
// dispatcher may be nil.
func NewPositionService(positionRepo repository.PositionRepository, positionCache LatestCache, dispatcher PayloadDispatcher, logger *zap.Logger) PositionService {
	return &positionService{
		positionRepo: positionRepo,
		cache:        positionCache,
		dispatcher:   dispatcher,
		decoder:      gt06.NewDecoder(),
		logger:       logger,
		now:          time.Now,
	}
}

func (s *positionService) ProcessRawData(ctx context.Context, deviceID string, data []byte) (*model.Position, error) {
	if deviceID == "" {
		return nil, ErrInvalidDeviceID
	}

	start := time.Now()
	report, err := s.decoder.Decode(data)
	observability.ObserveDecodeLatency(start)
	if err != nil {
		observability.DecodeErrors.WithLabelValues(gt06.Reason(err)).Inc()
		s.logger.Warn("Rejected packet",
			zap.String("deviceId", deviceID),
			zap.Int("length", len(data)),
			zap.Error(err))
		return nil, fmt.Errorf("decode packet: %w", err)
	}
	observability.PacketsDecoded.Inc()

	position := gt06.ToPosition(deviceID, report, s.now())
	if !position.Valid {
		s.logger.Warn("Device clock out of range, using receive time",
			zap.String("deviceId", deviceID),
			zap.Stringer("deviceTime", report.Timestamp))
	}

	if err := s.positionRepo.Create(ctx, position); err != nil {
		return nil, fmt.Errorf("store position: %w", err)
	}
	observability.PositionsStored.Inc()

	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, position); err != nil {
			observability.CacheErrors.Inc()
			s.logger.Warn("Failed to cache latest position", zap.String("deviceId", deviceID), zap.Error(err))
		}
	}

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(mq.Payload{Type: "location", DeviceID: deviceID, Data: position})
	}

	s.logger.Debug("Stored position",
		zap.String("deviceId", deviceID),
		zap.Float64("lat", position.Latitude),
		zap.Float64("lon", position.Longitude),
		zap.Uint8("satellites", position.Satellites))
	return position, nil
}

func (s *positionService) ProcessHex(ctx context.Context, deviceID string, hexData string) (*model.Position, error) {
	data, err := gt06.ParseHex(hexData)
	if err != nil {
		observability.DecodeErrors.WithLabelValues(gt06.Reason(err)).Inc()
		return nil, err
	}
	return s.ProcessRawData(ctx, deviceID, data)
}

func (s *positionService) GetDevicePositions(ctx context.Context, deviceID string, query repository.PositionQuery) ([]*model.Position, error) {
	if deviceID == "" {
		return nil, ErrInvalidDeviceID
	}
	if !query.From.IsZero() && !query.To.IsZero() && query.From.After(query.To) {
		return nil, ErrInvalidTimeRange
	}
	return s.positionRepo.FindByDeviceID(ctx, deviceID, query)
}

func (s *positionService) GetLatestPosition(ctx context.Context, deviceID string) (*model.Position, error) {
	if deviceID == "" {
		return nil, ErrInvalidDeviceID
	}

	if s.cache != nil {
		position, err := s.cache.GetLatest(ctx, deviceID)
		if err == nil {
			return position, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Failed to read latest position from cache", zap.String("deviceId", deviceID), zap.Error(err))
		}
	}
	return s.positionRepo.FindLatestByDeviceID(ctx, deviceID)
}

// GetAllLatestPositions lists the newest stored position of every device.
func (s *positionService) GetAllLatestPositions(ctx context.Context) ([]*model.Position, error) {
	return s.positionRepo.FindLatest(ctx)
}
