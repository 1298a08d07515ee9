package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"alterstory-server/shared/interfaces"
	"alterstory-server/shared/models"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	// DefaultStoryEventsExchange - fanout exchange событий деревьев.
	DefaultStoryEventsExchange = "story_events_exchange"
	storyEventsExchangeType    = "fanout"

	publishAttempts   = 3
	publishRetryDelay = 200 * time.Millisecond
)

// Compile-time check
var _ interfaces.StoryEventPublisher = (*RabbitMQStoryEventPublisher)(nil)

// RabbitMQStoryEventPublisher публикует события деревьев в fanout exchange.
// Каждый экземпляр сервера получает их через свою очередь, см. StoryEventConsumer.
type RabbitMQStoryEventPublisher struct {
	conn         *amqp091.Connection
	exchangeName string
	logger       *zap.Logger
	retryDelay   time.Duration

	// mu защищает только ch и открытие канала, паузы между попытками идут без него.
	mu   sync.Mutex
	ch   publishChannel
	open func() (publishChannel, error)
}

// publishChannel - часть *amqp091.Channel, которой пользуется издатель.
type publishChannel interface {
	IsClosed() bool
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// declareStoryEventsExchange объявляет exchange. Если он уже существует, ничего не произойдет.
func declareStoryEventsExchange(ch *amqp091.Channel, exchangeName string) error {
	return ch.ExchangeDeclare(
		exchangeName,
		storyEventsExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
}

// NewRabbitMQStoryEventPublisher создает издателя и объявляет exchange.
func NewRabbitMQStoryEventPublisher(conn *amqp091.Connection, exchangeName string, logger *zap.Logger) (*RabbitMQStoryEventPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}
	if exchangeName == "" {
		exchangeName = DefaultStoryEventsExchange
	}
	log := logger.Named("StoryEventPublisher")

	p := &RabbitMQStoryEventPublisher{
		conn:         conn,
		logger:       log,
		exchangeName: exchangeName,
		retryDelay:   publishRetryDelay,
	}
	p.open = p.dialChannel
	ch, err := p.open()
	if err != nil {
		return nil, err
	}
	p.ch = ch

	log.Info("Story events exchange declared", zap.String("exchange", exchangeName), zap.String("type", storyEventsExchangeType))
	return p, nil
}

func (p *RabbitMQStoryEventPublisher) dialChannel() (publishChannel, error) {
	ch, err := p.conn.Channel()
	if err != nil {
		p.logger.Error("Failed to open a channel for story events", zap.Error(err))
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	if err := declareStoryEventsExchange(ch, p.exchangeName); err != nil {
		_ = ch.Close()
		p.logger.Error("Failed to declare story events exchange", zap.String("exchange", p.exchangeName), zap.Error(err))
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", p.exchangeName, err)
	}
	return ch, nil
}

// PublishStoryEvent отправляет событие. Закрытый канал переоткрывается, всего до трех попыток.
// Блокировка держится только на время одной попытки.
func (p *RabbitMQStoryEventPublisher) PublishStoryEvent(ctx context.Context, event models.StoryEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal story event: %w", err)
	}
	logFields := []zap.Field{
		zap.String("type", string(event.Type)),
		zap.String("storyID", event.StoryID.String()),
		zap.String("storyRootID", event.StoryRootID.String()),
	}

	for attempt := 1; attempt <= publishAttempts; attempt++ {
		if err = p.publishOnce(ctx, body); err == nil {
			p.logger.Debug("Story event published", logFields...)
			return nil
		}
		p.logger.Warn("Failed to publish story event", append(logFields, zap.Int("attempt", attempt), zap.Error(err))...)
		if attempt == publishAttempts {
			break
		}
		if !sleepCtx(ctx, p.retryDelay*time.Duration(attempt)) {
			return ctx.Err()
		}
	}
	return fmt.Errorf("failed to publish story event after %d attempts: %w", publishAttempts, err)
}

// publishOnce делает одну попытку, при необходимости переоткрывая канал.
func (p *RabbitMQStoryEventPublisher) publishOnce(ctx context.Context, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		ch, err := p.open()
		if err != nil {
			return err
		}
		p.ch = ch
	}
	return p.ch.PublishWithContext(ctx,
		p.exchangeName, // exchange
		"",             // routing key (не используется для fanout)
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
}

// Close закрывает канал RabbitMQ.
func (p *RabbitMQStoryEventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch.Close()
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
