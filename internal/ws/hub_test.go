package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inventory-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelNames(t *testing.T) {
	assert.Equal(t, "inventory:p1", ProductChannel("p1"))
	assert.Equal(t, "inventory:p1:w1", ProductWarehouseChannel("p1", "w1"))
	assert.Equal(t, "low-stock:w1", LowStockChannel("w1"))
	assert.Equal(t, "low-stock:all", LowStockAllChannel)
}

func newTestClient(h *Hub, buffer int) *Client {
	c := &Client{
		hub:      h,
		send:     make(chan []byte, buffer),
		channels: make(map[string]struct{}),
	}
	h.register(c)
	return c
}

func TestBroadcastReachesSubscribers(t *testing.T) {
	hub := NewHub()

	subscribed := newTestClient(hub, 8)
	subscribed.subscribe(ProductChannel("p1"))
	other := newTestClient(hub, 8)
	other.subscribe(ProductChannel("p2"))

	hub.EmitInventoryUpdate(&models.InventoryRecord{ProductID: "p1", WarehouseID: "w1", Quantity: 5})

	select {
	case msg := <-subscribed.send:
		var envelope struct {
			Event string                 `json:"event"`
			Data  models.InventoryRecord `json:"data"`
		}
		require.NoError(t, json.Unmarshal(msg, &envelope))
		assert.Equal(t, "inventory:update", envelope.Event)
		assert.Equal(t, "p1", envelope.Data.ProductID)
	default:
		t.Fatal("subscribed client received nothing")
	}

	assert.Empty(t, other.send, "unsubscribed client must receive nothing")
}

func TestBroadcastDeliversOncePerClient(t *testing.T) {
	hub := NewHub()

	// Subscribed to both channels an inventory update fans out to.
	client := newTestClient(hub, 8)
	client.subscribe(ProductChannel("p1"))
	client.subscribe(ProductWarehouseChannel("p1", "w1"))

	hub.EmitInventoryUpdate(&models.InventoryRecord{ProductID: "p1", WarehouseID: "w1"})

	assert.Len(t, client.send, 1)
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()

	client := newTestClient(hub, 1)
	client.subscribe(LowStockAllChannel)

	hub.EmitLowStockAlert(&models.LowStockAlert{ProductID: "p1", WarehouseID: "w1"})
	hub.EmitLowStockAlert(&models.LowStockAlert{ProductID: "p2", WarehouseID: "w1"})

	assert.Len(t, client.send, 1, "overflow drops instead of blocking")
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, 1)

	hub.unregister(client)

	_, open := <-client.send
	assert.False(t, open)

	// Unregistering twice must not panic on a closed channel.
	hub.unregister(client)
}

func TestWebSocketSubscribeRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()

	router := gin.New()
	router.GET("/ws", hub.HandleWebSocket)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(subscribeMessage{Action: "subscribe", Channel: LowStockAllChannel}))

	// Wait for the read pump to process the subscription.
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		for c := range hub.clients {
			if c.subscribedToAny([]string{LowStockAllChannel}) {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	hub.EmitLowStockAlert(&models.LowStockAlert{ProductID: "p1", WarehouseID: "w1", CurrentQuantity: 3})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var envelope struct {
		Event string               `json:"event"`
		Data  models.LowStockAlert `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&envelope))
	assert.Equal(t, "low-stock:alert", envelope.Event)
	assert.Equal(t, "p1", envelope.Data.ProductID)
}
