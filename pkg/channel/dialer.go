package channel

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the subset of a WebSocket connection the session needs. It is
// satisfied by *websocket.Conn; tests substitute their own implementations.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	Close() error
}

// Dialer opens the persistent transport to the controller.
type Dialer interface {
	DialContext(ctx context.Context, url string) (Conn, error)
}

// wsDialer is the production Dialer backed by gorilla/websocket.
type wsDialer struct {
	dialer *websocket.Dialer
}

// NewDialer returns a Dialer using gorilla's default WebSocket dialer with
// the given handshake timeout.
func NewDialer(handshakeTimeout time.Duration) Dialer {
	return &wsDialer{
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

func (d *wsDialer) DialContext(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}
