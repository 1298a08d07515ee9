package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"alterstory-server/shared/models"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EventSink получает события деревьев из брокера, например realtime.Hub.
type EventSink interface {
	Deliver(ctx context.Context, event models.StoryEvent) (int, error)
}

// StoryEventConsumer читает события из временной эксклюзивной очереди,
// привязанной к fanout exchange, и передает их в EventSink.
type StoryEventConsumer struct {
	conn         *amqp091.Connection
	ch           *amqp091.Channel
	sink         EventSink
	logger       *zap.Logger
	exchangeName string
	queueName    string
	consumerTag  string
}

func NewStoryEventConsumer(conn *amqp091.Connection, exchangeName string, sink EventSink, logger *zap.Logger) (*StoryEventConsumer, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection is nil")
	}
	if sink == nil {
		return nil, fmt.Errorf("EventSink is nil")
	}
	if exchangeName == "" {
		exchangeName = DefaultStoryEventsExchange
	}

	consumerTag := fmt.Sprintf("story_events_consumer_%d", time.Now().UnixNano())
	consumer := &StoryEventConsumer{
		conn:         conn,
		sink:         sink,
		logger:       logger.Named("StoryEventConsumer").With(zap.String("consumerTag", consumerTag)),
		exchangeName: exchangeName,
		consumerTag:  consumerTag,
	}
	if err := consumer.setupChannelAndQueue(); err != nil {
		return nil, err
	}

	consumer.logger.Info("StoryEventConsumer initialized", zap.String("exchange", exchangeName), zap.String("queue", consumer.queueName))
	return consumer, nil
}

// setupChannelAndQueue создает канал, объявляет exchange, очередь и биндинг.
func (c *StoryEventConsumer) setupChannelAndQueue() error {
	var err error
	c.ch, err = c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareStoryEventsExchange(c.ch, c.exchangeName); err != nil {
		_ = c.ch.Close()
		return fmt.Errorf("failed to declare exchange '%s': %w", c.exchangeName, err)
	}

	// Имя очереди генерирует брокер; очередь живет, пока живет соединение.
	q, err := c.ch.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = c.ch.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	c.queueName = q.Name

	if err := c.ch.QueueBind(c.queueName, "", c.exchangeName, false, nil); err != nil {
		_ = c.ch.Close()
		return fmt.Errorf("failed to bind queue '%s' to exchange '%s': %w", c.queueName, c.exchangeName, err)
	}
	return nil
}

// Run получает сообщения до отмены ctx или закрытия канала.
func (c *StoryEventConsumer) Run(ctx context.Context) error {
	deliveries, err := c.ch.Consume(
		c.queueName,
		c.consumerTag,
		false, // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}
	c.logger.Info("Listening for story events")

	for {
		select {
		case <-ctx.Done():
			c.stop()
			return nil
		case d, ok := <-deliveries:
			if !ok {
				c.logger.Warn("Story events delivery channel closed")
				return nil
			}
			c.handleDelivery(ctx, d)
		}
	}
}

func (c *StoryEventConsumer) handleDelivery(ctx context.Context, d amqp091.Delivery) {
	var event models.StoryEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		c.logger.Error("Failed to unmarshal story event, dropping", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	delivered, err := c.sink.Deliver(ctx, event)
	if err != nil {
		c.logger.Error("Failed to deliver story event", zap.String("type", string(event.Type)), zap.Error(err))
	} else {
		c.logger.Debug("Story event delivered",
			zap.String("type", string(event.Type)),
			zap.String("storyRootID", event.StoryRootID.String()),
			zap.Int("clients", delivered),
		)
	}
	// Повторная доставка не нужна: клиенты увидят актуальные данные при следующем запросе.
	if err := d.Ack(false); err != nil {
		c.logger.Error("Failed to acknowledge message", zap.Error(err))
	}
}

func (c *StoryEventConsumer) stop() {
	c.logger.Info("Stopping StoryEventConsumer...")
	if err := c.ch.Cancel(c.consumerTag, false); err != nil {
		c.logger.Warn("Failed to cancel consumer", zap.Error(err))
	}
	if err := c.ch.Close(); err != nil {
		c.logger.Warn("Failed to close consumer channel", zap.Error(err))
	}
}
