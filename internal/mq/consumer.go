package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler — функция обработки сообщения.
// Возвращённая ошибка приводит к nack с возвратом в очередь.
type Handler func(ctx context.Context, msg *Delivery) error

// Delivery — доставленное сообщение.
type Delivery struct {
	// Message — распарсенный конверт.
	Message Message

	// Raw — сырое AMQP-сообщение.
	Raw amqp.Delivery
}

// Consumer потребляет сообщения из очереди RabbitMQ.
// Переживает разрывы соединения: после reconnect подписка
// восстанавливается.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    string
	handler  Handler
	prefetch int

	cancelFunc context.CancelFunc
}

// ConsumerConfig — конфигурация Consumer.
type ConsumerConfig struct {
	// Queue — имя очереди.
	Queue string

	// Handler — обработчик сообщений.
	Handler Handler

	// Prefetch — сколько сообщений брокер отдаёт без подтверждения.
	Prefetch int
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	return &Consumer{
		conn:     conn,
		logger:   logger,
		queue:    cfg.Queue,
		handler:  cfg.Handler,
		prefetch: prefetch,
	}
}

// Start запускает цикл потребления. Блокирует до отмены контекста.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		deliveries, err := c.subscribe()
		if err != nil {
			c.logger.Error("failed to subscribe", "queue", c.queue, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.conn.ReconnectNotify():
				continue
			}
		}

		c.logger.Info("consumer started", "queue", c.queue)

		if err := c.drain(ctx, deliveries); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("deliveries channel closed, waiting for reconnect", "queue", c.queue)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.conn.ReconnectNotify():
				continue
			}
		}
	}
}

// Stop останавливает Consumer.
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
}

// subscribe настраивает prefetch и начинает потребление.
func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, fmt.Errorf("no channel available")
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		c.queue, // queue
		"",      // consumer tag (auto-generated)
		false,   // auto-ack: подтверждаем вручную
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	return deliveries, nil
}

// drain обрабатывает сообщения до закрытия канала или отмены контекста.
func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("deliveries channel closed")
			}
			c.handle(ctx, raw)
		}
	}
}

// handle обрабатывает одно сообщение.
func (c *Consumer) handle(ctx context.Context, raw amqp.Delivery) {
	var msg Message
	if err := json.Unmarshal(raw.Body, &msg); err != nil {
		c.logger.Error("failed to unmarshal message",
			"queue", c.queue,
			"error", err,
			"body", string(raw.Body),
		)
		// Некорректное сообщение — в DLQ, повторная доставка бессмысленна.
		raw.Nack(false, false)
		return
	}

	c.logger.Debug("received message",
		"queue", c.queue,
		"message_id", msg.ID,
		"type", msg.Type,
	)

	if err := c.handler(ctx, &Delivery{Message: msg, Raw: raw}); err != nil {
		c.logger.Error("handler failed",
			"queue", c.queue,
			"message_id", msg.ID,
			"type", msg.Type,
			"error", err,
		)
		// Инфраструктурная ошибка обработчика — вернуть в очередь.
		raw.Nack(false, true)
		return
	}

	raw.Ack(false)
}
