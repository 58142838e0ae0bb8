package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Имена обменников.
const (
	ExchangeReports Exchange = "faktura.reports"
	ExchangeDLQ     Exchange = "faktura.dlq"
)

// Имена очередей.
const (
	QueueReportsGenerate Queue = "reports.generate"
	QueueDLQReports      Queue = "dlq.reports"
)

// Routing keys.
const (
	RoutingKeyGenerate   RoutingKey = "generate"
	RoutingKeyDLQReports RoutingKey = "reports"
)

// SetupTopology объявляет обменники, очереди и binding'и.
// Идемпотентно — вызывается на старте API и воркера.
func SetupTopology(conn *Connection) error {
	return conn.WithChannel(func(ch *amqp.Channel) error {
		exchanges := []Exchange{ExchangeReports, ExchangeDLQ}
		for _, ex := range exchanges {
			err := ch.ExchangeDeclare(
				string(ex), // name
				"direct",   // type
				true,       // durable
				false,      // auto-deleted
				false,      // internal
				false,      // no-wait
				nil,        // arguments
			)
			if err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex, err)
			}
		}

		// reports.generate — с DLQ: некорректные сообщения уходят
		// в dlq.reports для ручного разбора.
		dlqArgs := amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQReports),
		}

		queues := []struct {
			name Queue
			args amqp.Table
		}{
			{QueueReportsGenerate, dlqArgs},
			{QueueDLQReports, nil},
		}
		for _, q := range queues {
			_, err := ch.QueueDeclare(
				string(q.name), // name
				true,           // durable
				false,          // delete when unused
				false,          // exclusive
				false,          // no-wait
				q.args,         // arguments
			)
			if err != nil {
				return fmt.Errorf("declare queue %s: %w", q.name, err)
			}
		}

		bindings := []struct {
			queue      Queue
			routingKey RoutingKey
			exchange   Exchange
		}{
			{QueueReportsGenerate, RoutingKeyGenerate, ExchangeReports},
			{QueueDLQReports, RoutingKeyDLQReports, ExchangeDLQ},
		}
		for _, b := range bindings {
			err := ch.QueueBind(
				string(b.queue),
				string(b.routingKey),
				string(b.exchange),
				false, // no-wait
				nil,   // arguments
			)
			if err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}

		return nil
	})
}
