package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-posture/pkg/protocol"
)

// Dashboard connection limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10 // must stay below pongWait

	// Dashboards only send small control messages such as ping.
	maxMessageSize = 4 * 1024

	// Events and status updates a dashboard may fall behind by before the
	// hub drops it.
	sendBuffer = 256

	// Pongs queued for a dashboard that pings faster than it reads.
	replyBuffer = 4
)

// Client is one dashboard subscribed to a hub's events or status updates.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// send is owned by the hub, which closes it on unregister.
	send chan Message
	// replies carries answers to the dashboard's own requests. Never closed.
	replies chan Message
}

// NewClient subscribes a dashboard connection to hub.
// It returns nil if the hub has stopped.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	c := &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan Message, sendBuffer),
		replies: make(chan Message, replyBuffer),
	}
	select {
	case hub.register <- c:
		return c
	case <-hub.quit:
		return nil
	}
}

// Run serves the connection until the dashboard goes away or the hub stops.
// It must be called from the websocket handler, which owns conn.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump answers dashboard pings and notices disconnects.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if reply, ok := replyTo(data, time.Now()); ok {
			select {
			case c.replies <- reply:
			default:
				// Dashboard is pinging faster than it reads.
			}
		}
	}
}

// replyTo returns the answer to a dashboard message, if it needs one.
// Only protocol pings are answered; anything else is ignored.
func replyTo(data []byte, now time.Time) (Message, bool) {
	msg, err := protocol.ParseMessage(data)
	if err != nil || msg.Type != protocol.TypePing {
		return Message{}, false
	}
	ping, err := msg.GetPingData()
	if err != nil {
		return Message{}, false
	}
	pong, err := protocol.NewPongMessage(ping.ID, msg.Timestamp, now.UnixMilli())
	if err != nil {
		return Message{}, false
	}
	out, err := FromProtocol(pong)
	if err != nil {
		return Message{}, false
	}
	return out, true
}

// writePump is the only writer on the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case m, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(m); err != nil {
				return
			}

		case m := <-c.replies:
			if err := c.write(m); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(m Message) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	kind := websocket.TextMessage
	if m.Type == BinaryMessage {
		kind = websocket.BinaryMessage
	}
	return c.conn.WriteMessage(kind, m.Data)
}
