// ABOUTME: Tests for the clock list backend
// ABOUTME: Exercises REST routes, change broadcasts and graceful shutdown
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/harperreed/tzscroll/internal/protocol"
	"github.com/harperreed/tzscroll/internal/store"
	"go.uber.org/goleak"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(Config{Name: "test"}, store.NewMemory())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func postClock(t *testing.T, base, city, zone string) *http.Response {
	t.Helper()
	q := url.Values{"city": {city}, "timezone": {zone}}
	resp, err := http.Post(base+"/clocks?"+q.Encode(), "", nil)
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	return resp
}

func TestListStartsEmpty(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/clocks")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	defer resp.Body.Close()

	var cities []protocol.City
	if err := json.NewDecoder(resp.Body).Decode(&cities); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if cities == nil || len(cities) != 0 {
		t.Errorf("expected an empty JSON array, got %v", cities)
	}
}

func TestAddListDelete(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postClock(t, ts.URL, "Tokyo", "Asia/Tokyo")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var created protocol.City
	json.NewDecoder(resp.Body).Decode(&created)
	if created.ID == "" || created.City != "Tokyo" {
		t.Errorf("unexpected created city: %+v", created)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/clocks/"+created.ID, nil)
	del, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	del.Body.Close()
	if del.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", del.StatusCode)
	}

	again, _ := http.DefaultClient.Do(req)
	again.Body.Close()
	if again.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for a second delete, got %d", again.StatusCode)
	}
}

func TestAddRejectsBadInput(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		city, zone string
	}{
		{"", "Asia/Tokyo"},
		{"Atlantis", "Ocean/Atlantis"},
	}

	for _, tt := range tests {
		resp := postClock(t, ts.URL, tt.city, tt.zone)
		var body protocol.ErrorResponse
		json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%q/%q: expected 400, got %d", tt.city, tt.zone, resp.StatusCode)
		}
		if body.Error == "" {
			t.Errorf("%q/%q: expected an error message", tt.city, tt.zone)
		}
	}
}

func TestWatchersHearChanges(t *testing.T) {
	s, ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/clocks/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	var hello protocol.Message
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&hello); err != nil || hello.Type != protocol.TypeHello {
		t.Fatalf("expected server hello, got %+v (%v)", hello, err)
	}

	// Registration happens before the hello is queued
	if s.watcherCount() != 1 {
		t.Errorf("expected 1 watcher, got %d", s.watcherCount())
	}

	postClock(t, ts.URL, "Lima", "America/Lima").Body.Close()

	var msg struct {
		Type    string                 `json:"type"`
		Payload protocol.ClocksChanged `json:"payload"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if msg.Type != protocol.TypeChanged || msg.Payload.Reason != "added" || msg.Payload.Count != 1 {
		t.Errorf("unexpected notification: %+v", msg)
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	postClock(t, ts.URL, "Oslo", "Europe/Oslo").Body.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "ok" || body["clocks"] != float64(1) {
		t.Errorf("unexpected health body: %v", body)
	}
}

// brokenStore fails every read, like a database that went away
type brokenStore struct {
	store.Memory
}

func (b *brokenStore) List() ([]protocol.City, error) {
	return nil, errors.New("disk gone")
}

func TestStoreFailures(t *testing.T) {
	s := New(Config{Name: "test"}, &brokenStore{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/clocks")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500 from list, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 from health, got %d", resp.StatusCode)
	}
}

func TestStartAndStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := New(Config{Port: 0, Name: "test"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	select {
	case <-s.Ready():
	case err := <-done:
		t.Fatalf("server failed to start: %v", err)
	}

	base := fmt.Sprintf("http://127.0.0.1:%d", s.Addr().(*net.TCPAddr).Port)
	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get(base + "/healthz")
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	resp.Body.Close()

	// An open watcher must not hold up shutdown
	wsURL := "ws" + strings.TrimPrefix(base, "http") + "/clocks/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	var hello protocol.Message
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("expected server hello: %v", err)
	}

	s.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
