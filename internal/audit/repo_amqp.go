package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher is the part of *amqp.Channel the AMQP sink needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPRepo publishes each event as JSON to a topic exchange with routing
// key "call.<type>".
type AMQPRepo struct {
	pub      Publisher
	exchange string
}

func NewAMQPRepo(pub Publisher, exchange string) *AMQPRepo {
	return &AMQPRepo{pub: pub, exchange: exchange}
}

func (r *AMQPRepo) Append(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	err = r.pub.PublishWithContext(ctx, r.exchange, "call."+string(e.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.ID,
		Timestamp:    e.CreatedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

// DialAMQP connects with a bounded number of attempts and declares the
// topic exchange. The returned close func releases channel and connection.
func DialAMQP(ctx context.Context, url, exchange string, log *slog.Logger) (*amqp.Channel, func() error, error) {
	cfg := amqp.Config{Heartbeat: 30 * time.Second, Locale: "en_US"}

	var (
		conn *amqp.Connection
		err  error
	)
	for attempt := 1; attempt <= 5; attempt++ {
		conn, err = amqp.DialConfig(url, cfg)
		if err == nil {
			break
		}
		log.WarnContext(ctx, "amqp dial failed", "attempt", attempt, "err", err)
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	closeFn := func() error {
		_ = ch.Close()
		return conn.Close()
	}
	return ch, closeFn, nil
}
