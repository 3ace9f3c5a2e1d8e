package events

// KindChanged is published for changes made outside the gateway.
const KindChanged = "changed"

// Event tells clients that the listing may have changed.
type Event struct {
	Type      string `json:"type"`
	Filename  string `json:"filename,omitempty"`
	Timestamp string `json:"timestamp"`
}
