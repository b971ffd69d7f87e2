package link

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"

	"golang.org/x/net/websocket"
)

// WebSocketDialer connects to a websocket serial bridge (e.g. an
// ESP-based bridge next to the robot) which forwards binary frames to
// and from the robot's serial port.
type WebSocketDialer struct {
	URL    string
	Origin string
}

// WebSocket wraps a websocket connection as a Link.
type WebSocket struct {
	conn   *websocket.Conn
	closed atomic.Bool
}

// Dial implements Dialer.
func (d *WebSocketDialer) Dial(ctx context.Context) (Link, error) {
	origin := d.Origin
	if origin == "" {
		u, err := url.Parse(d.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid URL %q: %w", d.URL, err)
		}
		origin = "http://" + u.Host
	}
	conf, err := websocket.NewConfig(d.URL, origin)
	if err != nil {
		return nil, err
	}
	conn, err := conf.DialContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("websocket %s: %w", d.URL, err)
	}
	conn.PayloadType = websocket.BinaryFrame
	return &WebSocket{conn: conn}, nil
}

// Read implements Link. It blocks until bytes arrive or the link is closed.
func (w *WebSocket) Read(p []byte) (int, error) {
	if w.closed.Load() {
		return 0, ErrClosed
	}
	return w.conn.Read(p)
}

// Write implements Link.
func (w *WebSocket) Write(p []byte) (int, error) {
	if w.closed.Load() {
		return 0, ErrClosed
	}
	return w.conn.Write(p)
}

// IsOpen implements Link.
func (w *WebSocket) IsOpen() bool {
	return !w.closed.Load()
}

// Close implements Link.
func (w *WebSocket) Close() error {
	if w.closed.Swap(true) {
		return nil
	}
	return w.conn.Close()
}
