package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"alterstory-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sendBufferSize - размер очереди исходящих сообщений одного клиента.
const sendBufferSize = 64

// client - одно WebSocket соединение, подписанное на дерево rootID.
type client struct {
	id     uuid.UUID
	rootID uuid.UUID
	send   chan []byte
}

// Hub раздает события деревьев подписанным клиентам.
// Регистрация идет через Run, рассылка читает подписчиков под RLock.
type Hub struct {
	subscribers map[uuid.UUID]map[uuid.UUID]*client // rootID -> clientID -> client
	register    chan *client
	unregister  chan *client
	done        chan struct{}
	mu          sync.RWMutex
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]map[uuid.UUID]*client),
		register:    make(chan *client),
		unregister:  make(chan *client),
		done:        make(chan struct{}),
		logger:      logger.Named("RealtimeHub"),
	}
}

// Run обрабатывает регистрацию клиентов до отмены ctx. При остановке все соединения закрываются.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("Realtime hub started")
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			clients, ok := h.subscribers[c.rootID]
			if !ok {
				clients = make(map[uuid.UUID]*client)
				h.subscribers[c.rootID] = clients
			}
			clients[c.id] = c
			h.mu.Unlock()
			connectedClients.Inc()
			h.logger.Debug("Client subscribed", zap.String("clientID", c.id.String()), zap.String("storyRootID", c.rootID.String()))

		case c := <-h.unregister:
			h.remove(c)

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for rootID, clients := range h.subscribers {
				for _, c := range clients {
					close(c.send)
					connectedClients.Dec()
				}
				delete(h.subscribers, rootID)
			}
			h.mu.Unlock()
			h.logger.Info("Realtime hub stopped")
			return
		}
	}
}

// subscribe регистрирует клиента. false, если хаб уже остановлен.
func (h *Hub) subscribe(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unsubscribe(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.subscribers[c.rootID]
	if !ok {
		return
	}
	if _, ok := clients[c.id]; !ok {
		return
	}
	delete(clients, c.id)
	if len(clients) == 0 {
		delete(h.subscribers, c.rootID)
	}
	close(c.send)
	connectedClients.Dec()
	h.logger.Debug("Client unsubscribed", zap.String("clientID", c.id.String()), zap.String("storyRootID", c.rootID.String()))
}

// Subscribers возвращает число клиентов, подписанных на дерево.
func (h *Hub) Subscribers(rootID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[rootID])
}

// Deliver отправляет событие всем подписчикам его дерева и возвращает число получателей.
// Клиент с переполненной очередью пропускает событие.
func (h *Hub) Deliver(_ context.Context, event models.StoryEvent) (int, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal story event: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, c := range h.subscribers[event.StoryRootID] {
		select {
		case c.send <- payload:
			delivered++
			deliveriesTotal.WithLabelValues("sent").Inc()
		default:
			deliveriesTotal.WithLabelValues("dropped").Inc()
			h.logger.Warn("Client send queue is full, dropping event",
				zap.String("clientID", c.id.String()),
				zap.String("type", string(event.Type)),
			)
		}
	}
	return delivered, nil
}
