package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"

	"github.com/galhr/portal/backend/internal/config"
	"github.com/galhr/portal/backend/internal/queue"
)

func main() {
	/**********************************************
	 * load config and create logger
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("could not load config", slog.String("error", err.Error()))
		return
	}

	logger := cfg.NewLogger(os.Stdout)

	if cfg.RabbitMQ.DSN == "" {
		logger.Error("RABBITMQ_DSN is required by the mail worker")
		return
	}

	from := cfg.Email.From
	if from == "" {
		from = cfg.Email.SMTP.Username
	}

	/**********************************************
	 * create mail client
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
		mail.WithTimeout(time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second),
	)
	if err != nil {
		logger.Error("could not create mail client", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	dialCtx, cancelDial := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancelDial()
	if err := client.DialWithContext(dialCtx); err != nil {
		logger.Error("could not reach smtp server", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * connect rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("could not connect to rabbitmq", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("could not open channel", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	if err := queue.DeclareMailQueue(ch, cfg.RabbitMQ.Queue); err != nil {
		logger.Error("could not declare queue", slog.String("error", err.Error()))
		return
	}

	// one unacked message at a time
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error("could not set prefetch", slog.String("error", err.Error()))
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	msgs, err := ch.Consume(
		cfg.RabbitMQ.Queue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("could not consume queue", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Error("delivery channel closed")
					sigChan <- syscall.SIGTERM
					return
				}

				// bodies can carry passwords, so only the type is logged
				logger.Info("message received", slog.String("type", msg.Type))

				m, err := buildMessage(from, msg.Body)
				if err != nil {
					logger.Error("dropping message", slog.String("type", msg.Type), slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				if err := client.DialAndSendWithContext(ctx, m); err != nil {
					logger.Error("could not send mail", slog.String("type", msg.Type), slog.String("error", err.Error()))
					_ = msg.Nack(false, true)
					continue
				}

				_ = msg.Ack(false)
			}
		}
	}()

	logger.Info("waiting for messages (CTRL+C to quit)", slog.String("queue", cfg.RabbitMQ.Queue))
	<-sigChan

	logger.Info("stopping mail worker")
	cancel()
	wg.Wait()
	logger.Info("mail worker stopped")
}
