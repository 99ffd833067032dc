package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SubscriptionAuthorizer решает, может ли пользователь следить за отправлением.
type SubscriptionAuthorizer interface {
	CanSubscribe(ctx context.Context, userID, shipmentID uuid.UUID) bool
}

// Hub управляет WebSocket клиентами и их подписками на топики.
type Hub struct {
	mu         sync.RWMutex
	topics     map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	authorizer SubscriptionAuthorizer
	log        *logrus.Logger
}

type message struct {
	topic   string
	payload []byte
}

// NewHub создаёт новый хаб.
func NewHub(authorizer SubscriptionAuthorizer, log *logrus.Logger) *Hub {
	return &Hub{
		topics:     make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan message, 256),
		authorizer: authorizer,
		log:        log,
	}
}

// Run запускает главный цикл хаба до отмены ctx.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.subscribe(client, UserTopic(client.userID))
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg.topic, msg.payload)
		}
	}
}

// Register добавляет клиента и подписывает его на личный топик.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister удаляет клиента из всех топиков.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastToTopic отправляет событие подписчикам топика. Доставка best-effort:
// если очередь хаба заполнена, сообщение отбрасывается.
func (h *Hub) BroadcastToTopic(topic string, kind string, data interface{}) {
	raw, err := json.Marshal(map[string]interface{}{
		"type":  kind,
		"topic": topic,
		"data":  data,
	})
	if err != nil {
		h.log.WithError(err).Error("ws: не удалось сериализовать сообщение")
		return
	}

	select {
	case h.broadcast <- message{topic: topic, payload: raw}:
	default:
		h.log.WithField("topic", topic).Warn("ws: очередь рассылки переполнена")
	}
}

// SubscribeShipment подписывает клиента на изменения отправления после проверки доступа.
func (h *Hub) SubscribeShipment(ctx context.Context, client *Client, shipmentID uuid.UUID) bool {
	if h.authorizer != nil && !h.authorizer.CanSubscribe(ctx, client.userID, shipmentID) {
		return false
	}
	h.subscribe(client, ShipmentTopic(shipmentID))
	return true
}

// UnsubscribeShipment отписывает клиента от отправления.
func (h *Hub) UnsubscribeShipment(client *Client, shipmentID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropFromTopic(client, ShipmentTopic(shipmentID))
}

// RestrictShipment отписывает от отправления всех, кроме сторон сделки, и
// возвращает число отписанных клиентов. Отписанные получают unsubscribed.
func (h *Hub) RestrictShipment(shipmentID uuid.UUID, parties ...uuid.UUID) int {
	allowed := make(map[uuid.UUID]struct{}, len(parties))
	for _, id := range parties {
		allowed[id] = struct{}{}
	}
	topic := ShipmentTopic(shipmentID)

	h.mu.Lock()
	defer h.mu.Unlock()

	dropped := 0
	for client := range h.topics[topic] {
		if _, ok := allowed[client.userID]; ok {
			continue
		}
		h.dropFromTopic(client, topic)
		client.reply("unsubscribed", map[string]string{"topic": topic, "reason": "shipment_assigned"})
		dropped++
	}
	return dropped
}

// Subscribers возвращает число подписчиков топика.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) subscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.topics[topic]; !ok {
		h.topics[topic] = make(map[*Client]struct{})
	}
	h.topics[topic][client] = struct{}{}
	client.topics[topic] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for topic := range client.topics {
		h.dropFromTopic(client, topic)
	}
}

func (h *Hub) dropFromTopic(client *Client, topic string) {
	if clients, ok := h.topics[topic]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.topics, topic)
		}
	}
	delete(client.topics, topic)
}

func (h *Hub) send(topic string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.topics[topic] {
		select {
		case client.send <- payload:
		default:
			// медленный клиент переподключится и перечитает состояние
			client.closeAsync()
		}
	}
}

// ShipmentTopic - топик изменений отправления.
func ShipmentTopic(id uuid.UUID) string {
	return "shipment:" + id.String()
}

// UserTopic - личный топик пользователя.
func UserTopic(id uuid.UUID) string {
	return "user:" + id.String()
}

// AuthorizerFunc позволяет использовать функцию как SubscriptionAuthorizer.
type AuthorizerFunc func(ctx context.Context, userID, shipmentID uuid.UUID) bool

func (f AuthorizerFunc) CanSubscribe(ctx context.Context, userID, shipmentID uuid.UUID) bool {
	return f(ctx, userID, shipmentID)
}
