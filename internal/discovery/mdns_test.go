// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests manager setup and conversion of mDNS answers
package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/hashicorp/mdns"
)

func TestNewManager(t *testing.T) {
	mgr := NewManager(Config{ServiceName: "Test Clocks", Port: 8930})
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}
	if mgr.config.QueryTimeout != time.Second {
		t.Errorf("expected default query timeout of 1s, got %v", mgr.config.QueryTimeout)
	}
	mgr.Stop()
}

func TestAdvertiseRequiresServerMode(t *testing.T) {
	mgr := NewManager(Config{ServiceName: "viewer", Port: 8930})
	defer mgr.Stop()

	if err := mgr.Advertise(); err == nil {
		t.Error("expected clients to be refused advertisement")
	}
}

func TestEntryInfo(t *testing.T) {
	tests := []struct {
		name     string
		entry    *mdns.ServiceEntry
		expected string
	}{
		{"ipv4", &mdns.ServiceEntry{Name: "a", AddrV4: net.ParseIP("192.168.1.5"), Port: 8930}, "192.168.1.5:8930"},
		{"ipv6", &mdns.ServiceEntry{Name: "b", AddrV6: net.ParseIP("fe80::1"), Port: 8930}, "[fe80::1]:8930"},
	}

	for _, tt := range tests {
		info := entryInfo(tt.entry)
		if info == nil {
			t.Errorf("%s: expected server info", tt.name)
			continue
		}
		if info.Addr() != tt.expected {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.expected, info.Addr())
		}
	}

	withTXT := entryInfo(&mdns.ServiceEntry{
		Name:       "c",
		AddrV4:     net.ParseIP("10.0.0.2"),
		Port:       8930,
		InfoFields: []string{"path=/clocks", "version=1.2.3"},
	})
	if withTXT.Version != "1.2.3" {
		t.Errorf("expected version from TXT record, got %q", withTXT.Version)
	}

	if entryInfo(&mdns.ServiceEntry{Name: "none"}) != nil {
		t.Error("expected entries without an address to be skipped")
	}
}

func TestFindServerTimesOut(t *testing.T) {
	if testing.Short() {
		t.Skip("touches the network")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := FindServer(ctx, time.Second); err == nil {
		t.Error("expected error when the context is already done")
	}
}
