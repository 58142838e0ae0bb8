package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeReportRequested MessageType = "report.requested"
)

// Message — конверт сообщения.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// ReportRequestedPayload — payload сообщения о поставленной задаче.
// Несёт только идентификаторы: воркер перечитывает актуальное состояние
// инвойса в момент выполнения, а не срез на момент постановки.
type ReportRequestedPayload struct {
	JobID     uuid.UUID `json:"job_id"`
	InvoiceID int64     `json:"invoice_id"`
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{conn: conn, logger: logger}
}

// PublishReportRequested публикует событие о новой задаче генерации.
// Потребитель: воркер.
func (p *Publisher) PublishReportRequested(ctx context.Context, jobID uuid.UUID, invoiceID int64) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeReportRequested,
		Payload:   ReportRequestedPayload{JobID: jobID, InvoiceID: invoiceID},
		Timestamp: time.Now(),
	}
	return p.publish(ctx, ExchangeReports, RoutingKeyGenerate, msg)
}

// publish сериализует и публикует сообщение.
func (p *Publisher) publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),
			string(routingKey),
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // переживает рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// ParsePayload парсит payload сообщения в указанный тип.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T

	// Payload после json.Unmarshal конверта — map; прогоняем через
	// json ещё раз, чтобы получить типизированную структуру.
	payloadBytes, err := json.Marshal(msg.Payload)
	if err != nil {
		return result, fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(payloadBytes, &result); err != nil {
		return result, fmt.Errorf("unmarshal payload: %w", err)
	}
	return result, nil
}
