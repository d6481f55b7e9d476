package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	readWait  = 5 * time.Minute
)

// ErrMalformedMessage means a message could be read but not decoded.
// The connection is still usable.
var ErrMalformedMessage = errors.New("malformed message")

// Conn serializes writes on a WebSocket connection. gorilla/websocket
// allows one concurrent reader and one concurrent writer.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// NewConn wraps an upgraded connection.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func (c *Conn) WriteTyped(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func (c *Conn) WriteError(seq uint64, errMsg string) error {
	return c.WriteTyped(ErrorResponse{Event: EventError, Seq: seq, Error: errMsg})
}

// ReadRaw reads one message with a read deadline, returning its envelope
// and raw bytes for a second, action-specific decode.
func (c *Conn) ReadRaw() (RequestEnvelope, []byte, error) {
	c.ws.SetReadDeadline(time.Now().Add(readWait))
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return RequestEnvelope{}, nil, err
	}
	var env RequestEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return RequestEnvelope{}, nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return env, data, nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.ws.Close()
}
