package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ignatzorin/parcel-trip-backend/internal/goroutine"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Client представляет одно подключение WebSocket.
type Client struct {
	conn      *websocket.Conn
	hub       *Hub
	userID    uuid.UUID
	send      chan []byte
	topics    map[string]struct{}
	closeOnce sync.Once
}

// clientCommand - сообщение от клиента.
type clientCommand struct {
	Action     string `json:"action"`
	ShipmentID string `json:"shipment_id"`
}

// NewClient создаёт нового клиента.
func NewClient(conn *websocket.Conn, hub *Hub, userID uuid.UUID) *Client {
	return &Client{
		conn:   conn,
		hub:    hub,
		userID: userID,
		send:   make(chan []byte, 32),
		topics: make(map[string]struct{}),
	}
}

// Run регистрирует клиента и обслуживает соединение до его закрытия.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	goroutine.SafeGo("ws-write-pump", c.writePump)
	c.readPump(ctx)
}

// Close закрывает соединение. Повторные вызовы игнорируются.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.hub.Unregister(c)
		c.conn.Close()
	})
}

func (c *Client) closeAsync() {
	goroutine.SafeGo("ws-client-close", c.Close)
}

func (c *Client) readPump(ctx context.Context) {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).WithField("user_id", c.userID).Debug("ws: соединение закрыто")
			}
			return
		}
		c.handleCommand(ctx, raw)
	}
}

func (c *Client) handleCommand(ctx context.Context, raw []byte) {
	var cmd clientCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.reply("error", map[string]string{"message": "некорректное сообщение"})
		return
	}

	shipmentID, err := uuid.Parse(cmd.ShipmentID)
	if err != nil {
		c.reply("error", map[string]string{"message": "некорректный shipment_id"})
		return
	}

	switch cmd.Action {
	case "subscribe":
		if !c.hub.SubscribeShipment(ctx, c, shipmentID) {
			c.reply("error", map[string]string{"message": "нет доступа к отправлению"})
			return
		}
		c.reply("subscribed", map[string]string{"topic": ShipmentTopic(shipmentID)})
	case "unsubscribe":
		c.hub.UnsubscribeShipment(c, shipmentID)
		c.reply("unsubscribed", map[string]string{"topic": ShipmentTopic(shipmentID)})
	default:
		c.reply("error", map[string]string{"message": "неизвестное действие"})
	}
}

func (c *Client) reply(kind string, data interface{}) {
	raw, err := json.Marshal(map[string]interface{}{"type": kind, "data": data})
	if err != nil {
		return
	}
	select {
	case c.send <- raw:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
