package mq

import (
	"context"
)

// Producer defines the interface for message queue producers
type Producer interface {
	Produce(ctx context.Context, topic string, key string, data interface{}) error
	Close()
}

// NoOpProducer is used when publishing is disabled
type NoOpProducer struct{}

func NewNoOpProducer() *NoOpProducer {
	return &NoOpProducer{}
}

func (p *NoOpProducer) Produce(ctx context.Context, topic string, key string, data interface{}) error {
	return nil
}

func (p *NoOpProducer) Close() {}

// Payload wraps every published message with its type and source device.
type Payload struct {
	Type     string      `json:"type"`
	DeviceID string      `json:"deviceId"`
	Data     interface{} `json:"data"`
}
