// ABOUTME: Clock list wire types shared by the backend and the timeline client
// ABOUTME: Defines city records and change notification messages
package protocol

// Message types sent over the clock list WebSocket
const (
	TypeHello   = "server/hello"
	TypeChanged = "clocks/changed"
)

// Message is the top-level wrapper for all notification messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// City is one clock on the timeline
type City struct {
	ID       string `json:"id"`
	City     string `json:"city"`
	Timezone string `json:"timezone"`
}

// ServerHello greets a new watcher
type ServerHello struct {
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Version  string `json:"version"`
}

// ClocksChanged tells watchers to re-fetch the list
type ClocksChanged struct {
	Reason string `json:"reason"` // "added" or "deleted"; watchers report "reconnected" themselves
	ID     string `json:"id"`
	Count  int    `json:"count"`
}

// ErrorResponse is the body of a failed REST call
type ErrorResponse struct {
	Error string `json:"error"`
}
