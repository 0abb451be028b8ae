// ABOUTME: Clock list backend server
// ABOUTME: Serves the REST endpoints, the change notification socket and mDNS advertisement
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/harperreed/tzscroll/internal/discovery"
	"github.com/harperreed/tzscroll/internal/store"
	"golang.org/x/sync/errgroup"
)

// DefaultPort is where the backend listens unless configured otherwise
const DefaultPort = 8930

// Config holds server configuration
type Config struct {
	Port       int
	Name       string
	EnableMDNS bool
	Debug      bool
	UseTUI     bool
}

// Server is the clock list backend
type Server struct {
	config   Config
	serverID string
	store    store.Store

	upgrader websocket.Upgrader
	mux      *http.ServeMux

	httpServer *http.Server
	addr       net.Addr
	addrMu     sync.RWMutex
	ready      chan struct{}

	// Change notification watchers
	watchers   map[string]*watcher
	watchersMu sync.RWMutex
	closing    bool
	wg         sync.WaitGroup

	mdnsManager *discovery.Manager

	tui       *ServerTUI
	startTime time.Time

	stopChan chan struct{}
	stopOnce sync.Once
}

// New creates a server around the given clock list
func New(config Config, st store.Store) *Server {
	if st == nil {
		st = store.NewMemory()
	}

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		store:    st,
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Local network tool; any origin may watch the list
				if origin := r.Header.Get("Origin"); origin != "" && config.Debug {
					log.Printf("[DEBUG] Accepting watcher from origin: %s", origin)
				}
				return true
			},
		},
		watchers:  make(map[string]*watcher),
		ready:     make(chan struct{}),
		startTime: time.Now(),
		stopChan:  make(chan struct{}),
	}

	s.mux.HandleFunc("GET /clocks", s.handleList)
	s.mux.HandleFunc("POST /clocks", s.handleAdd)
	s.mux.HandleFunc("DELETE /clocks/{id}", s.handleDelete)
	s.mux.HandleFunc("GET /clocks/ws", s.handleWatch)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	return s
}

// Handler exposes the routes without starting a listener
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Addr returns the bound listen address once Start is serving
func (s *Server) Addr() net.Addr {
	s.addrMu.RLock()
	defer s.addrMu.RUnlock()
	return s.addr
}

// Ready is closed once the listener is bound
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Start serves until ctx is cancelled, Stop is called, or the TUI quits
func (s *Server) Start(ctx context.Context) error {
	log.Printf("Server starting: %s (ID: %s)", s.config.Name, s.serverID)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.addrMu.Lock()
	s.addr = ln.Addr()
	s.addrMu.Unlock()
	close(s.ready)

	port := s.config.Port
	if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
		port = tcp.Port
	}
	log.Printf("Clock list server listening on %s", ln.Addr())

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        port,
			ServerMode:  true,
		})
		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}

	s.httpServer = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	var tuiQuit <-chan struct{}
	if s.config.UseTUI {
		s.tui = NewServerTUI()
		tuiQuit = s.tui.QuitChan()
		g.Go(func() error {
			return s.tui.Start(s.config.Name, port)
		})
		s.updateTUI()
	}

	g.Go(func() error {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
			log.Printf("Server shutting down...")
		case <-s.stopChan:
			log.Printf("Server shutting down...")
		case <-tuiQuit:
			log.Printf("TUI quit requested, shutting down...")
		}
		s.shutdown()
		return nil
	})

	err = g.Wait()
	s.wg.Wait()
	log.Printf("Server stopped cleanly")
	return err
}

// Stop asks a running Start to return
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

func (s *Server) shutdown() {
	if s.tui != nil {
		s.tui.Stop()
	}
	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Hijacked sockets are not closed by Shutdown
	s.closeWatchers()
}
