package messaging

import (
	"context"
	"testing"
	"time"

	"alterstory-server/shared/models"

	"github.com/docker/docker/client"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// chanSink складывает полученные события в канал.
type chanSink struct {
	events chan models.StoryEvent
}

func newChanSink() *chanSink {
	return &chanSink{events: make(chan models.StoryEvent, 16)}
}

func (s *chanSink) Deliver(_ context.Context, event models.StoryEvent) (int, error) {
	s.events <- event
	return 1, nil
}

type StoryEventsSuite struct {
	suite.Suite
	ctx          context.Context
	rmqContainer *rabbitmq.RabbitMQContainer
	conn         *amqp091.Connection
	logger       *zap.Logger
}

func (s *StoryEventsSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = zap.NewNop()

	var err error
	s.rmqContainer, err = rabbitmq.Run(s.ctx,
		"rabbitmq:3-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").WithStartupTimeout(3*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start rabbitmq container")

	amqpURL, err := s.rmqContainer.AmqpURL(s.ctx)
	require.NoError(s.T(), err)

	s.conn, err = amqp091.Dial(amqpURL)
	require.NoError(s.T(), err)
}

func (s *StoryEventsSuite) TearDownSuite() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if s.rmqContainer != nil {
		if err := s.rmqContainer.Terminate(s.ctx); err != nil {
			s.T().Logf("Failed to terminate rabbitmq container: %v", err)
		}
	}
}

func TestStoryEventsSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		t.Skipf("Docker client init error: %v", err)
	}
	if _, err := cli.Ping(context.Background()); err != nil {
		t.Skipf("Docker daemon is not running or accessible: %v", err)
	}
	cli.Close()

	suite.Run(t, new(StoryEventsSuite))
}

func (s *StoryEventsSuite) startConsumer(exchange string) (*chanSink, context.CancelFunc) {
	sink := newChanSink()
	consumer, err := NewStoryEventConsumer(s.conn, exchange, sink, s.logger)
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(s.ctx)
	go func() { _ = consumer.Run(ctx) }()
	return sink, cancel
}

func (s *StoryEventsSuite) TestEventReachesEveryInstance() {
	exchange := "story_events_" + uuid.NewString()
	first, stopFirst := s.startConsumer(exchange)
	defer stopFirst()
	second, stopSecond := s.startConsumer(exchange)
	defer stopSecond()

	publisher, err := NewRabbitMQStoryEventPublisher(s.conn, exchange, s.logger)
	s.Require().NoError(err)
	defer publisher.Close()

	likes := 4
	event := models.StoryEvent{
		Type:        models.EventVoteUpdate,
		StoryID:     uuid.New(),
		StoryRootID: uuid.New(),
		LikeCount:   &likes,
		OccurredAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
	s.Require().NoError(publisher.PublishStoryEvent(s.ctx, event))

	for _, sink := range []*chanSink{first, second} {
		select {
		case got := <-sink.events:
			s.Equal(event.Type, got.Type)
			s.Equal(event.StoryID, got.StoryID)
			s.Equal(event.StoryRootID, got.StoryRootID)
			s.Require().NotNil(got.LikeCount)
			s.Equal(likes, *got.LikeCount)
		case <-time.After(10 * time.Second):
			s.Fail("event was not delivered to a consumer")
		}
	}
}

func (s *StoryEventsSuite) TestPublisherReopensClosedChannel() {
	exchange := "story_events_" + uuid.NewString()
	sink, stop := s.startConsumer(exchange)
	defer stop()

	publisher, err := NewRabbitMQStoryEventPublisher(s.conn, exchange, s.logger)
	s.Require().NoError(err)
	defer publisher.Close()

	s.Require().NoError(publisher.Close())

	event := models.StoryEvent{
		Type:        models.EventContinuationAdded,
		StoryID:     uuid.New(),
		StoryRootID: uuid.New(),
		OccurredAt:  time.Now().UTC(),
	}
	s.Require().NoError(publisher.PublishStoryEvent(s.ctx, event))

	select {
	case got := <-sink.events:
		s.Equal(models.EventContinuationAdded, got.Type)
	case <-time.After(10 * time.Second):
		s.Fail("event was not delivered after channel reopen")
	}
}
