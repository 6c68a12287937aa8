package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/Foodgram/internal/config"
	"github.com/GoArmGo/Foodgram/internal/core/ports"
	"github.com/GoArmGo/Foodgram/internal/messaging/payloads"
	"github.com/goccy/go-json"

	amqp "github.com/rabbitmq/amqp091-go"
)

// retryDelay — пауза перед возвратом неудачной задачи в очередь
const retryDelay = 5 * time.Second

var (
	_ ports.MediaCleanupPublisher = (*Client)(nil)
	_ ports.MediaCleanupConsumer  = (*Client)(nil)
)

// Client представляет собой клиент RabbitMQ для очереди задач на удаление файлов
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	logger  *slog.Logger
}

// NewClient создает и инициализирует новый клиент RabbitMQ
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg.RabbitMQ.RabbitMQURL == "" {
		return nil, errors.New("RABBITMQ_URL не задан")
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	logger.Info("connected to RabbitMQ")

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	// Идемпотентно: очередь создается, только если ее еще нет
	q, err := ch.QueueDeclare(
		cfg.RabbitMQ.RabbitMQQueueName, // name
		true,                           // durable
		false,                          // delete when unused
		false,                          // exclusive
		false,                          // no-wait
		nil,                            // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}
	logger.Info("queue declared", "queue", q.Name, "messages", q.Messages)

	// Воркер берет по одной задаче
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	return &Client{conn: conn, channel: ch, queue: q, logger: logger}, nil
}

// Close закрывает канал и соединение RabbitMQ
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		c.logger.Error("failed to close RabbitMQ client", "error", err)
		return err
	}
	c.logger.Info("RabbitMQ connection closed")
	return nil
}

// PublishMediaCleanup публикует задачу на удаление файла.
func (c *Client) PublishMediaCleanup(ctx context.Context, payload payloads.MediaCleanupPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload to JSON: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		publishCtx,
		"",           // exchange
		c.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish a message: %w", err)
	}

	c.logger.Info("media cleanup published", "queue", c.queue.Name, "key", payload.Key, "reason", payload.Reason)
	return nil
}

// StartConsumingMediaCleanup начинает потребление задач из очереди.
// Обработка идет в отдельной горутине до отмены ctx или закрытия канала.
func (c *Client) StartConsumingMediaCleanup(ctx context.Context, handler func(context.Context, payloads.MediaCleanupPayload) error) error {
	msgs, err := c.channel.Consume(
		c.queue.Name, // queue
		"",           // consumer
		false,        // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	c.logger.Info("consumer registered, waiting for messages", "queue", c.queue.Name)

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Info("RabbitMQ channel closed, stopping consumer")
					return
				}
				processDelivery(ctx, msg, handler, retryDelay, c.logger)
			case <-ctx.Done():
				c.logger.Info("context cancelled, stopping RabbitMQ consumer")
				return
			}
		}
	}()

	return nil
}

// processDelivery обрабатывает одно сообщение.
// Битое сообщение отбрасывается. Неудачная задача один раз возвращается в очередь после паузы,
// повторная неудача отбрасывает ее.
func processDelivery(ctx context.Context, msg amqp.Delivery, handler func(context.Context, payloads.MediaCleanupPayload) error, delay time.Duration, logger *slog.Logger) {
	var payload payloads.MediaCleanupPayload
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		logger.Error("failed to unmarshal message", "error", err, "body", string(msg.Body))
		if err := msg.Nack(false, false); err != nil {
			logger.Error("failed to nack message", "error", err)
		}
		return
	}

	if err := handler(ctx, payload); err != nil {
		requeue := !msg.Redelivered
		if requeue {
			logger.Warn("failed to process message, will retry", "key", payload.Key, "retry_in", delay, "error", err)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
		} else {
			logger.Error("failed to process message after retry, dropping", "key", payload.Key, "error", err)
		}
		if err := msg.Nack(false, requeue); err != nil {
			logger.Error("failed to nack message", "error", err)
		}
		return
	}

	if err := msg.Ack(false); err != nil {
		logger.Error("failed to ack message", "error", err)
		return
	}
	logger.Info("message processed", "key", payload.Key)
}
