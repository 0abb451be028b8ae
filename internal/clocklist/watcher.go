// ABOUTME: WebSocket subscription to clock list change notifications
// ABOUTME: Reconnects after a delay until its context is cancelled
package clocklist

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/harperreed/tzscroll/internal/protocol"
)

// DefaultReconnectDelay is how long the watcher waits between connection attempts
const DefaultReconnectDelay = 3 * time.Second

// Watcher listens on the backend's notification socket
type Watcher struct {
	url    string
	Delay  time.Duration
	dialer *websocket.Dialer
}

// NewWatcher creates a watcher for the backend at addr
func NewWatcher(addr string) (*Watcher, error) {
	base, err := BaseURL(addr)
	if err != nil {
		return nil, err
	}

	u := *base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/clocks/ws"

	return &Watcher{
		url:    u.String(),
		Delay:  DefaultReconnectDelay,
		dialer: &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
	}, nil
}

// URL returns the socket address being watched
func (w *Watcher) URL() string {
	return w.url
}

// Watch calls notify for every change until ctx is done. After a reconnect it
// also calls notify, since changes may have been missed while disconnected.
func (w *Watcher) Watch(ctx context.Context, notify func(protocol.ClocksChanged)) error {
	for attempt := 0; ; attempt++ {
		err := w.watchOnce(ctx, attempt > 0, notify)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("Clock watcher disconnected: %v, retrying in %v", err, w.Delay)

		timer := time.NewTimer(w.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (w *Watcher) watchOnce(ctx context.Context, reconnect bool, notify func(protocol.ClocksChanged)) error {
	conn, _, err := w.dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	log.Printf("Watching clock list at %s", w.url)
	if reconnect {
		notify(protocol.ClocksChanged{Reason: "reconnected"})
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Failed to parse clock notification: %v", err)
			continue
		}

		switch msg.Type {
		case protocol.TypeHello:
			log.Printf("Clock list server says hello")
		case protocol.TypeChanged:
			payload, _ := json.Marshal(msg.Payload)
			var changed protocol.ClocksChanged
			if err := json.Unmarshal(payload, &changed); err != nil {
				log.Printf("Failed to parse clocks/changed payload: %v", err)
				continue
			}
			notify(changed)
		default:
			log.Printf("Unknown message type: %s", msg.Type)
		}
	}
}
