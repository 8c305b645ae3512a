package notification

import (
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// NotificationType defines the type of notification.
type NotificationType string

const (
	TypeTask              NotificationType = "task"
	TypeRenewal           NotificationType = "renewal"
	TypePartnerOnboarding NotificationType = "partner-onboarding"
	TypeCustomerActivity  NotificationType = "customer-activity"
	TypeSystem            NotificationType = "system"
	TypeEscalation        NotificationType = "escalation"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case TypeTask, TypeRenewal, TypePartnerOnboarding, TypeCustomerActivity, TypeSystem, TypeEscalation:
		return true
	}
	return false
}

// Priority is how urgently a notification needs attention.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities: urgent > high > medium > low > unknown.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Notification represents a dashboard notification for the acting user.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Priority  Priority         `json:"priority"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
	Read      bool             `json:"read"`
	ActionURL string           `json:"action_url,omitempty"`
}

// NotificationID builds the stable id of a notification from its type, the id
// of the entity that triggered it and a rule-specific discriminator. The same
// inputs always produce the same id.
func NotificationID(t NotificationType, sourceID, discriminator string) string {
	parts := []string{string(t), sourceID}
	if d := slug.Make(discriminator); d != "" {
		parts = append(parts, d)
	}
	return strings.Join(parts, ":")
}

// less orders notifications newest first, then by priority, then by id.
func less(a, b Notification) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
		return ra > rb
	}
	return a.ID < b.ID
}
