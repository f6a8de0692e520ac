// Package events is the fire-and-forget event-publication contract.
// Publish failures are logged and never surfaced to pipeline callers.
package events

// Publisher broadcasts JSON-serializable payloads to connected
// collaborators (dashboards, demo UIs).
type Publisher interface {
	Broadcast(event string, payload interface{})
	BroadcastToRoom(room, event string, payload interface{})
}

// Nop discards all events. Used in tests and when no broker is configured.
type Nop struct{}

func (Nop) Broadcast(string, interface{})                {}
func (Nop) BroadcastToRoom(string, string, interface{}) {}
