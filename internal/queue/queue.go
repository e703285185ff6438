package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/galhr/portal/backend/internal/domain"
)

// DeclareMailQueue declares the durable queue shared by the api and the mail worker.
func DeclareMailQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,
		true,
		false,
		false,
		false,
		nil,
	)
	return err
}

// AMQPPublisher sends mail messages as JSON to a RabbitMQ queue.
type AMQPPublisher struct {
	ch      *amqp.Channel
	queue   string
	timeout time.Duration
}

func NewAMQPPublisher(ch *amqp.Channel, queue string, timeout time.Duration) *AMQPPublisher {
	return &AMQPPublisher{ch: ch, queue: queue, timeout: timeout}
}

func (p *AMQPPublisher) PublishMail(ctx context.Context, msg domain.MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode mail: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.ch.PublishWithContext(
		ctx,
		"",
		p.queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Type:         msg.Type,
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("publish %s mail: %w", msg.Type, err)
	}
	return nil
}

// LogPublisher stands in when no broker is configured; messages are only logged.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishMail(_ context.Context, msg domain.MailMessage) error {
	p.logger.Info("mail not queued, no broker configured", slog.String("type", msg.Type), slog.String("to", msg.To))
	return nil
}
