// ABOUTME: WebSocket hub for clock list change notifications
// ABOUTME: Tracks connected watchers and fans out messages to them
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/harperreed/tzscroll/internal/protocol"
	"github.com/harperreed/tzscroll/internal/version"
)

// watcher is one connected notification socket
type watcher struct {
	id       string
	conn     *websocket.Conn
	sendChan chan protocol.Message
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	wt := &watcher{
		id:       uuid.New().String(),
		conn:     conn,
		sendChan: make(chan protocol.Message, 16),
	}

	s.watchersMu.Lock()
	if s.closing {
		s.watchersMu.Unlock()
		conn.Close()
		return
	}
	s.watchers[wt.id] = wt
	s.watchersMu.Unlock()
	log.Printf("Watcher connected from %s", r.RemoteAddr)
	s.updateTUI()

	defer func() {
		s.watchersMu.Lock()
		delete(s.watchers, wt.id)
		close(wt.sendChan)
		s.watchersMu.Unlock()
		conn.Close()
		log.Printf("Watcher disconnected: %s", r.RemoteAddr)
		s.updateTUI()
	}()

	wt.sendChan <- protocol.Message{
		Type: protocol.TypeHello,
		Payload: protocol.ServerHello{
			ServerID: s.serverID,
			Name:     s.config.Name,
			Version:  version.Version,
		},
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.watcherWriter(wt)
	}()

	// Watchers only listen; reads just detect the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}

// watcherWriter sends queued messages and keeps the socket alive
func (s *Server) watcherWriter(wt *watcher) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case msg, ok := <-wt.sendChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Error marshaling message: %v", err)
				continue
			}
			wt.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := wt.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("Error writing message: %v", err)
				wt.conn.Close()
				return
			}

		case <-ticker.C:
			if err := wt.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				wt.conn.Close()
				return
			}
		}
	}
}

// broadcast queues msg for every watcher. Slow watchers miss messages rather
// than stall the sender.
func (s *Server) broadcast(msg protocol.Message) {
	s.watchersMu.RLock()
	defer s.watchersMu.RUnlock()

	for _, wt := range s.watchers {
		select {
		case wt.sendChan <- msg:
		default:
			log.Printf("Watcher %s send buffer full, dropping %s", wt.id, msg.Type)
		}
	}
}

func (s *Server) watcherCount() int {
	s.watchersMu.RLock()
	defer s.watchersMu.RUnlock()
	return len(s.watchers)
}

func (s *Server) closeWatchers() {
	s.watchersMu.Lock()
	defer s.watchersMu.Unlock()

	s.closing = true
	for _, wt := range s.watchers {
		wt.conn.Close()
	}
}
