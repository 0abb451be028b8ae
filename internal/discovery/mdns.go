// ABOUTME: mDNS service discovery for tzscroll clock list servers
// ABOUTME: Servers advertise themselves; timeline clients browse for them
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/harperreed/tzscroll/internal/version"
	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service clock list servers advertise
const ServiceType = "_tzscroll._tcp"

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	ServerMode  bool // If true, Advertise publishes ServiceType
	// QueryTimeout bounds each browse round; zero means one second
	QueryTimeout time.Duration
}

// Manager handles mDNS operations
type Manager struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	servers chan *ServerInfo
}

// ServerInfo describes a discovered server
type ServerInfo struct {
	Name string
	Host string
	Port int
	// Version is what the server advertised in its TXT record, if anything
	Version string
}

// Addr is the host:port to reach the server at
func (s *ServerInfo) Addr() string {
	return net.JoinHostPort(s.Host, fmt.Sprintf("%d", s.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	if config.QueryTimeout <= 0 {
		config.QueryTimeout = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		servers: make(chan *ServerInfo, 10),
	}
}

// Advertise publishes this clock list server via mDNS until Stop
func (m *Manager) Advertise() error {
	if !m.config.ServerMode {
		return fmt.Errorf("only servers advertise")
	}

	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		[]string{"path=/clocks", "version=" + version.Version},
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for clock list servers in the background
func (m *Manager) Browse() {
	go m.browseLoop()
}

func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)
		done := make(chan struct{})

		go func() {
			defer close(done)
			for entry := range entries {
				server := entryInfo(entry)
				if server == nil {
					continue
				}

				log.Printf("Discovered server: %s at %s", server.Name, server.Addr())

				select {
				case m.servers <- server:
				case <-m.ctx.Done():
				}
			}
		}()

		params := &mdns.QueryParam{
			Service: ServiceType,
			Domain:  "local",
			Timeout: m.config.QueryTimeout,
			Entries: entries,
		}

		err := mdns.Query(params)
		close(entries)
		<-done

		if err != nil {
			log.Printf("mDNS query failed: %v", err)
			select {
			case <-m.ctx.Done():
				return
			case <-time.After(m.config.QueryTimeout):
			}
		}
	}
}

// entryInfo converts an mDNS answer, or returns nil when it has no address
func entryInfo(entry *mdns.ServiceEntry) *ServerInfo {
	var host string
	switch {
	case entry.AddrV4 != nil:
		host = entry.AddrV4.String()
	case entry.AddrV6 != nil:
		host = entry.AddrV6.String()
	default:
		return nil
	}

	info := &ServerInfo{
		Name: entry.Name,
		Host: host,
		Port: entry.Port,
	}
	for _, field := range entry.InfoFields {
		if v, ok := strings.CutPrefix(field, "version="); ok {
			info.Version = v
		}
	}
	return info
}

// Servers returns the channel of discovered servers
func (m *Manager) Servers() <-chan *ServerInfo {
	return m.servers
}

// Stop stops the discovery manager
func (m *Manager) Stop() {
	m.cancel()
}

// FindServer browses until the first server answers or timeout passes
func FindServer(ctx context.Context, timeout time.Duration) (*ServerInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	mgr := NewManager(Config{})
	mgr.Browse()
	defer mgr.Stop()

	select {
	case server := <-mgr.Servers():
		return server, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("no %s server found: %w", ServiceType, ctx.Err())
	}
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
