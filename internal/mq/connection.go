package mq

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// maxReconnectDelay — потолок экспоненциальной задержки переподключения.
const maxReconnectDelay = 30 * time.Second

// Connection — обёртка над AMQP-соединением.
//
// Следит за разрывами и переподключается с экспоненциальной задержкой;
// потребители узнают о новом соединении через ReconnectNotify.
type Connection struct {
	url    string
	logger *slog.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool

	closedCh    chan struct{}
	reconnectCh chan struct{}
}

// NewConnection устанавливает соединение с RabbitMQ и запускает
// мониторинг разрывов.
func NewConnection(url string, logger *slog.Logger) (*Connection, error) {
	c := &Connection{
		url:         url,
		logger:      logger,
		closedCh:    make(chan struct{}),
		reconnectCh: make(chan struct{}, 1),
	}

	if err := c.dial(); err != nil {
		return nil, err
	}

	go c.watch()
	return c, nil
}

// dial открывает соединение и канал.
func (c *Connection) dial() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = ch
	c.mu.Unlock()

	c.logger.Info("connected to RabbitMQ")
	return nil
}

// watch ждёт закрытия соединения и инициирует переподключение.
func (c *Connection) watch() {
	for {
		c.mu.RLock()
		closed, conn := c.closed, c.conn
		c.mu.RUnlock()

		if closed {
			return
		}
		if conn == nil {
			time.Sleep(time.Second)
			continue
		}

		notifyClose := conn.NotifyClose(make(chan *amqp.Error, 1))

		select {
		case <-c.closedCh:
			return
		case err := <-notifyClose:
			if err != nil {
				c.logger.Warn("amqp connection lost", "error", err)
			}
			c.redial()
		}
	}
}

// redial переподключается с экспоненциальной задержкой.
func (c *Connection) redial() {
	delay := time.Second

	for {
		c.mu.RLock()
		closed := c.closed
		c.mu.RUnlock()
		if closed {
			return
		}

		time.Sleep(delay)

		if err := c.dial(); err != nil {
			c.logger.Warn("reconnect failed", "error", err, "next_delay", delay)
			delay = min(delay*2, maxReconnectDelay)
			continue
		}

		// Уведомляем потребителей о новом соединении.
		select {
		case c.reconnectCh <- struct{}{}:
		default:
		}
		return
	}
}

// Channel возвращает текущий AMQP-канал (nil, если соединения нет).
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// WithChannel выполняет fn с текущим каналом.
func (c *Connection) WithChannel(fn func(ch *amqp.Channel) error) error {
	ch := c.Channel()
	if ch == nil {
		return fmt.Errorf("no channel available")
	}
	return fn(ch)
}

// ReconnectNotify возвращает канал уведомлений о переподключении.
func (c *Connection) ReconnectNotify() <-chan struct{} {
	return c.reconnectCh
}

// IsConnected сообщает, живо ли соединение. Используется health-проверкой
// брокера в API.
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// Close закрывает канал и соединение.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.closedCh)

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			return fmt.Errorf("close channel: %w", err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return fmt.Errorf("close connection: %w", err)
		}
	}

	c.logger.Info("amqp connection closed")
	return nil
}
