// ABOUTME: REST client for the backend clock list
// ABOUTME: Lists, adds and deletes cities; concurrent list calls share one request
package clocklist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harperreed/tzscroll/internal/protocol"
	"github.com/harperreed/tzscroll/internal/version"
	"golang.org/x/sync/singleflight"
)

// ErrStatus is returned when the backend answers with a non-2xx status
var ErrStatus = errors.New("unexpected status")

// Source is where the timeline gets its cities from
type Source interface {
	List(ctx context.Context) ([]protocol.City, error)
	Add(ctx context.Context, city, timezone string) (protocol.City, error)
	Delete(ctx context.Context, id string) error
}

// HTTPSource talks to the backend REST endpoints
type HTTPSource struct {
	base   *url.URL
	client *http.Client
	group  singleflight.Group
}

// NewHTTPSource creates a client for addr, which is either "host:port" or a
// full http(s) URL
func NewHTTPSource(addr string) (*HTTPSource, error) {
	base, err := BaseURL(addr)
	if err != nil {
		return nil, err
	}

	return &HTTPSource{
		base:   base,
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// BaseURL normalizes a backend address
func BaseURL(addr string) (*url.URL, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("empty server address")
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}

	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", addr, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid server address %q: missing host", addr)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u, nil
}

// Addr returns the base URL requests go to
func (s *HTTPSource) Addr() string {
	return s.base.String()
}

// List fetches every city. Calls made while a fetch is in flight get its result.
func (s *HTTPSource) List(ctx context.Context) ([]protocol.City, error) {
	v, err, _ := s.group.Do("list", func() (interface{}, error) {
		var cities []protocol.City
		if err := s.do(ctx, http.MethodGet, s.endpoint("/clocks", nil), &cities); err != nil {
			return nil, err
		}
		return cities, nil
	})
	if err != nil {
		return nil, err
	}

	shared := v.([]protocol.City)
	out := make([]protocol.City, len(shared))
	copy(out, shared)
	return out, nil
}

// Add creates a city and returns it with its new id
func (s *HTTPSource) Add(ctx context.Context, city, timezone string) (protocol.City, error) {
	q := url.Values{}
	q.Set("city", city)
	q.Set("timezone", timezone)

	var created protocol.City
	if err := s.do(ctx, http.MethodPost, s.endpoint("/clocks", q), &created); err != nil {
		return protocol.City{}, err
	}
	return created, nil
}

// Delete removes a city by id
func (s *HTTPSource) Delete(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, s.endpoint("/clocks/"+url.PathEscape(id), nil), nil)
}

func (s *HTTPSource) endpoint(path string, q url.Values) string {
	u := *s.base
	u.Path += path
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (s *HTTPSource) do(ctx context.Context, method, target string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body protocol.ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &body) != nil || body.Error == "" {
			body.Error = strings.TrimSpace(string(data))
		}
		return fmt.Errorf("%s %s: %w %d: %s", method, req.URL.Path, ErrStatus, resp.StatusCode, body.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
