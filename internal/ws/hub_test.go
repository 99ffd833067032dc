package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/parcel-trip-backend/internal/logger"
)

type allowList map[uuid.UUID]bool

func (a allowList) CanSubscribe(_ context.Context, _ uuid.UUID, shipmentID uuid.UUID) bool {
	return a[shipmentID]
}

type wsMessage struct {
	Type  string          `json:"type"`
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

// startHubServer поднимает хаб и возвращает функцию подключения от имени пользователя.
func startHubServer(t *testing.T, authorizer SubscriptionAuthorizer) (*Hub, func(userID uuid.UUID) *websocket.Conn) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(authorizer, logger.Discard())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.URL.Query().Get("user"))
		if err != nil {
			http.Error(w, "bad user", http.StatusBadRequest)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(conn, hub, userID).Run(ctx)
	}))
	t.Cleanup(srv.Close)

	dial := func(userID uuid.UUID) *websocket.Conn {
		conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"?user="+userID.String(), nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return conn
	}
	return hub, dial
}

func startHub(t *testing.T, authorizer SubscriptionAuthorizer, userID uuid.UUID) (*Hub, *websocket.Conn) {
	t.Helper()
	hub, dial := startHubServer(t, authorizer)
	return hub, dial(userID)
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHub_SubscribeAndBroadcast(t *testing.T) {
	shipmentID := uuid.New()
	userID := uuid.New()
	hub, conn := startHub(t, allowList{shipmentID: true}, userID)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "subscribe", "shipment_id": shipmentID.String()}))
	ack := readMessage(t, conn)
	assert.Equal(t, "subscribed", ack.Type)

	hub.BroadcastToTopic(ShipmentTopic(shipmentID), "bid_placed", map[string]float64{"amount": 90})
	msg := readMessage(t, conn)
	assert.Equal(t, "bid_placed", msg.Type)
	assert.Equal(t, ShipmentTopic(shipmentID), msg.Topic)
	assert.JSONEq(t, `{"amount":90}`, string(msg.Data))
}

func TestHub_PersonalTopic(t *testing.T) {
	userID := uuid.New()
	hub, conn := startHub(t, allowList{}, userID)

	require.Eventually(t, func() bool { return hub.Subscribers(UserTopic(userID)) == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastToTopic(UserTopic(userID), "penalty_received", map[string]float64{"amount": 20})
	msg := readMessage(t, conn)
	assert.Equal(t, "penalty_received", msg.Type)
}

func TestHub_SubscribeDenied(t *testing.T) {
	userID := uuid.New()
	hub, conn := startHub(t, allowList{}, userID)
	shipmentID := uuid.New()

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "subscribe", "shipment_id": shipmentID.String()}))
	msg := readMessage(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Zero(t, hub.Subscribers(ShipmentTopic(shipmentID)))

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "subscribe", "shipment_id": "bad"}))
	assert.Equal(t, "error", readMessage(t, conn).Type)
}

func TestHub_UnregisterDropsTopics(t *testing.T) {
	userID := uuid.New()
	hub, conn := startHub(t, allowList{}, userID)

	require.Eventually(t, func() bool { return hub.Subscribers(UserTopic(userID)) == 1 }, time.Second, 10*time.Millisecond)
	conn.Close()
	require.Eventually(t, func() bool { return hub.Subscribers(UserTopic(userID)) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RestrictShipmentKeepsOnlyParties(t *testing.T) {
	shipmentID := uuid.New()
	party, stranger := uuid.New(), uuid.New()
	hub, dial := startHubServer(t, allowList{shipmentID: true})

	partyConn := dial(party)
	strangerConn := dial(stranger)
	for _, conn := range []*websocket.Conn{partyConn, strangerConn} {
		require.NoError(t, conn.WriteJSON(map[string]string{"action": "subscribe", "shipment_id": shipmentID.String()}))
		require.Equal(t, "subscribed", readMessage(t, conn).Type)
	}
	require.Equal(t, 2, hub.Subscribers(ShipmentTopic(shipmentID)))

	assert.Equal(t, 1, hub.RestrictShipment(shipmentID, party, uuid.New()))
	assert.Equal(t, 1, hub.Subscribers(ShipmentTopic(shipmentID)))

	notice := readMessage(t, strangerConn)
	assert.Equal(t, "unsubscribed", notice.Type)
	assert.JSONEq(t, `{"topic":"`+ShipmentTopic(shipmentID)+`","reason":"shipment_assigned"}`, string(notice.Data))

	hub.BroadcastToTopic(ShipmentTopic(shipmentID), "shipment_picked_up", map[string]string{"status": "in_transit"})
	assert.Equal(t, "shipment_picked_up", readMessage(t, partyConn).Type)

	require.NoError(t, strangerConn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := strangerConn.ReadMessage()
	assert.Error(t, err)
}
