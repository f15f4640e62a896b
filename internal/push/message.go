// Package push talks to the Expo push notification gateway.
package push

import "regexp"

// MaxBatchSize is the gateway's limit on messages per request.
const MaxBatchSize = 100

// Message is one notification to one device.
type Message struct {
	To        string            `json:"to"`
	Title     string            `json:"title,omitempty"`
	Body      string            `json:"body,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	Sound     string            `json:"sound,omitempty"`
	Priority  string            `json:"priority,omitempty"`
	ChannelID string            `json:"channelId,omitempty"`
}

// Ticket statuses.
const (
	TicketOK    = "ok"
	TicketError = "error"
)

// Ticket is the gateway's per-message receipt.
type Ticket struct {
	Status  string        `json:"status"`
	ID      string        `json:"id,omitempty"`
	Message string        `json:"message,omitempty"`
	Details TicketDetails `json:"details,omitzero"`
}

// TicketDetails carries the machine-readable failure reason, e.g. DeviceNotRegistered.
type TicketDetails struct {
	Error string `json:"error,omitempty"`
}

// OK reports whether the gateway accepted the message.
func (t Ticket) OK() bool {
	return t.Status == TicketOK
}

var (
	expoTokenPattern = regexp.MustCompile(`^(ExponentPushToken|ExpoPushToken)\[[^\]]+\]$`)
	uuidTokenPattern = regexp.MustCompile(`(?i)^[a-z\d]{8}-[a-z\d]{4}-[a-z\d]{4}-[a-z\d]{4}-[a-z\d]{12}$`)
)

// ValidAddress reports whether token has a format the gateway accepts.
func ValidAddress(token string) bool {
	return expoTokenPattern.MatchString(token) || uuidTokenPattern.MatchString(token)
}

// Chunk partitions messages into consecutive batches of at most max
// messages, preserving order. A max outside 1..MaxBatchSize is clamped
// to MaxBatchSize.
func Chunk(messages []Message, max int) [][]Message {
	if max <= 0 || max > MaxBatchSize {
		max = MaxBatchSize
	}

	batches := make([][]Message, 0, (len(messages)+max-1)/max)
	for start := 0; start < len(messages); start += max {
		end := min(start+max, len(messages))
		batches = append(batches, messages[start:end:end])
	}
	return batches
}
