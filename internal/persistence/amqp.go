package persistence

import (
	"fmt"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-identity/internal/config"
)

// Broker holds the AMQP connection and the channel lifecycle events are
// published on.
type Broker struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
}

// NewBroker dials the broker and declares the durable topic exchange. It
// returns nil when no URL is configured.
func NewBroker(cfg config.EventsConfig, logger *zap.Logger) (*Broker, error) {
	if cfg.AMQPURL == "" {
		logger.Info("EVENTS_AMQP_URL not provided; events stay in-process")
		return nil, nil
	}

	conn, err := dialWithRetry(cfg.AMQPURL, 5, 2*time.Second)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	logger.Info("connected to amqp broker", zap.String("exchange", cfg.Exchange))
	return &Broker{Conn: conn, Channel: ch}, nil
}

// Close tears down the channel and connection.
func (b *Broker) Close() {
	if b == nil {
		return
	}
	if b.Channel != nil {
		_ = b.Channel.Close()
	}
	if b.Conn != nil {
		_ = b.Conn.Close()
	}
}

func dialWithRetry(url string, retries int, delay time.Duration) (*amqp.Connection, error) {
	var lastErr error
	for i := 0; i < retries; i++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("dial amqp: %w", lastErr)
}
