package event

import (
	"log/slog"
	"sync"
	"time"
)

// Type names a purchase lifecycle event.
type Type string

const (
	TypeLookupPerformed     Type = "purchase.threed_lookup"
	TypeThreeDAuthenticated Type = "purchase.threed_authenticated"
	TypeRedirected          Type = "purchase.redirected"
	TypeApproved            Type = "purchase.approved"
	TypeDeclined            Type = "purchase.declined"
	TypeCascadeExhausted    Type = "purchase.cascade_exhausted"
)

// Event is one audit record emitted as a purchase process moves.
type Event struct {
	Type          Type      `json:"event_type"`
	SessionID     string    `json:"session_id"`
	BillerName    string    `json:"biller_name,omitempty"`
	SubmitAttempt int       `json:"submit_attempt,omitempty"`
	Success       bool      `json:"success"`
	Timestamp     time.Time `json:"timestamp"`
}

// Publisher records purchase lifecycle events and logs their delivery. It
// stands in for the event-ingestion collaborator; shaping BI payloads is out
// of scope here.
type Publisher struct {
	mu     sync.Mutex
	events []Event
	logger *slog.Logger
}

// NewPublisher creates an event publisher.
func NewPublisher(logger *slog.Logger) *Publisher {
	return &Publisher{logger: logger}
}

// Publish records an event.
func (p *Publisher) Publish(eventType Type, sessionID, billerName string, submitAttempt int, success bool) {
	event := Event{
		Type:          eventType,
		SessionID:     sessionID,
		BillerName:    billerName,
		SubmitAttempt: submitAttempt,
		Success:       success,
		Timestamp:     time.Now().UTC(),
	}

	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()

	p.logger.Info("purchase event",
		"event_type", string(eventType),
		"session_id", sessionID,
		"biller_name", billerName,
		"submit_attempt", submitAttempt,
		"success", success,
	)
}

// Events returns all recorded events.
func (p *Publisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]Event, len(p.events))
	copy(result, p.events)
	return result
}

// EventsBySession returns the events recorded for one session.
func (p *Publisher) EventsBySession(sessionID string) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var result []Event
	for _, e := range p.events {
		if e.SessionID == sessionID {
			result = append(result, e)
		}
	}
	return result
}

// Clear removes all recorded events.
func (p *Publisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
