package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Audit actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Entity names as they appear in the change feed and in error messages.
const (
	EntityOrganization = "Organization"
	EntityEvent        = "Event"
	EntityTicket       = "Ticket"
)

// AuditEntry records one committed mutation.
type AuditEntry struct {
	ID         uuid.UUID       `json:"id"`
	Entity     string          `json:"entity"`
	EntityID   uuid.UUID       `json:"entity_id"`
	Action     string          `json:"action"`
	Snapshot   json.RawMessage `json:"snapshot,omitempty"`
	ArchiveKey string          `json:"archive_key,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AuditFilter narrows GET /audit.
type AuditFilter struct {
	Entity   string
	EntityID *uuid.UUID
	Limit    int
}
