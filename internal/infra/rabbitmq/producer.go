package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"locdecoder/internal/config"
	"locdecoder/internal/infra/mq"
)

var ErrClosed = errors.New("rabbitmq producer is closed")

// RabbitMQProducer publishes JSON messages to a topic exchange. The
// connection is opened lazily and reopened on the next Produce after a loss.
type RabbitMQProducer struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	cfg      config.RabbitMQConfig
	logger   *zap.Logger
	mu       sync.Mutex
	isClosed bool
	dial     func(url string) (*amqp.Connection, error)
}

var _ mq.Producer = (*RabbitMQProducer)(nil)

func NewRabbitMQProducer(cfg config.RabbitMQConfig, logger *zap.Logger) (*RabbitMQProducer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("rabbitmq: url not configured")
	}
	if _, err := amqp.ParseURI(cfg.URL); err != nil {
		return nil, fmt.Errorf("rabbitmq: %w", err)
	}
	return &RabbitMQProducer{
		cfg:    cfg,
		logger: logger,
		dial:   amqp.Dial,
	}, nil
}

// channel returns an open channel, connecting first if needed. p.mu must be held.
func (p *RabbitMQProducer) channel() (*amqp.Channel, error) {
	if p.isClosed {
		return nil, ErrClosed
	}
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.closeConn()

	conn, err := p.dial(p.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		p.cfg.Exchange, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	if p.cfg.QueueName != "" {
		if _, err = ch.QueueDeclare(p.cfg.QueueName, true, false, false, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("failed to declare queue: %w", err)
		}
		if err = ch.QueueBind(p.cfg.QueueName, p.cfg.RoutingKey, p.cfg.Exchange, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("failed to bind queue: %w", err)
		}
	}

	p.conn = conn
	p.ch = ch
	p.logger.Info("Connected to RabbitMQ", zap.String("exchange", p.cfg.Exchange))
	return ch, nil
}

func (p *RabbitMQProducer) closeConn() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Produce publishes data to the exchange. topic overrides the configured
// routing key; key travels in the deviceId header.
func (p *RabbitMQProducer) Produce(ctx context.Context, topic string, key string, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	p.mu.Lock()
	ch, err := p.channel()
	p.mu.Unlock()
	if err != nil {
		return err
	}

	routingKey := p.cfg.RoutingKey
	if topic != "" {
		routingKey = topic
	}

	err = ch.PublishWithContext(ctx,
		p.cfg.Exchange, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Headers:     amqp.Table{"deviceId": key},
			Body:        body,
			Timestamp:   time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug("Published message to RabbitMQ", zap.String("exchange", p.cfg.Exchange), zap.String("routing_key", routingKey))
	return nil
}

func (p *RabbitMQProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.isClosed = true
	p.closeConn()
}
