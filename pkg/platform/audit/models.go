package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// apply different retention.
type EventCategory string

const (
	// CategoryCompliance covers records that now exist upstream because of us.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers rejected or suspicious submissions.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine pipeline activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted by the registration flow. Keep it transport-agnostic so
// stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	AttemptID string        `json:"attempt_id"`
	PersonID  string        `json:"person_id,omitempty"`
	Role      string        `json:"role,omitempty"`
	Status    string        `json:"status,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	// ActorIP is empty in regulated mode.
	ActorIP string `json:"actor_ip,omitempty"`
}

type AuditEvent string

const (
	EventRegistrationAttempted AuditEvent = "registration_attempted"
	EventRegistrationResumed   AuditEvent = "registration_resumed"
	EventRegistrationRejected  AuditEvent = "registration_rejected"
	EventPersonCreated         AuditEvent = "person_created"
	EventRegistrationSettled   AuditEvent = "registration_settled"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventPersonCreated:       CategoryCompliance,
	EventRegistrationSettled: CategoryCompliance,

	EventRegistrationRejected: CategorySecurity,

	EventRegistrationAttempted: CategoryOperations,
	EventRegistrationResumed:   CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists or forwards audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Lister is implemented by stores that can read events back.
type Lister interface {
	ListByAttempt(ctx context.Context, attemptID string) ([]Event, error)
}

// Emitter is what domain code depends on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
