package domain

import (
	"time"

	"github.com/google/uuid"
)

// TrailEntry is one audit-trail record for a field change on an audit.
// The trail is how the system demonstrates who triggered a lifecycle change
// and when, so it is written in the same transaction as the change itself.
type TrailEntry struct {
	ID       string    `json:"id"`
	AuditID  string    `json:"audit_id"`
	Field    string    `json:"field"`
	OldValue string    `json:"old_value"`
	NewValue string    `json:"new_value"`
	ActorID  string    `json:"actor_id"`
	At       time.Time `json:"at"`
}

// NewTrailEntry creates a trail record for a field change.
func NewTrailEntry(auditID, field, oldValue, newValue, actorID string) *TrailEntry {
	return &TrailEntry{
		ID:       uuid.NewString(),
		AuditID:  auditID,
		Field:    field,
		OldValue: oldValue,
		NewValue: newValue,
		ActorID:  actorID,
		At:       time.Now(),
	}
}

// NewStatusTrailEntry creates a trail record for a status transition.
func NewStatusTrailEntry(auditID string, from, to AuditStatus, actorID string) *TrailEntry {
	return NewTrailEntry(auditID, "status", string(from), string(to), actorID)
}
