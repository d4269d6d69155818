package websocket

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"parley-signaling-server/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Conn adapts a gorilla websocket connection to domain.Connection.
// The read pump runs disconnect cleanup exactly once when the socket
// dies.
type Conn struct {
	id        domain.ConnID
	ws        *websocket.Conn
	send      chan []byte
	registrar domain.Registrar
	handler   domain.EventHandler
}

func NewConn(id domain.ConnID, ws *websocket.Conn, registrar domain.Registrar, handler domain.EventHandler) *Conn {
	return &Conn{
		id:        id,
		ws:        ws,
		send:      make(chan []byte, 256),
		registrar: registrar,
		handler:   handler,
	}
}

func (c *Conn) ID() domain.ConnID { return c.id }

func (c *Conn) Send(ev domain.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
		return nil
	default:
		return websocket.ErrCloseSent
	}
}

func (c *Conn) Close() error {
	return c.ws.Close()
}

func (c *Conn) Start() {
	c.registrar.Register(c)
	go c.writePump()
	go c.readPump()
	c.handler.HandleOpen(c)
}

func (c *Conn) readPump() {
	defer func() {
		c.registrar.Unregister(c)
		c.handler.HandleClose(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("read error", "clientId", c.id, "error", err)
			}
			return
		}

		c.handler.Handle(c, data)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
