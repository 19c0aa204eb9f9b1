package models

import (
	"time"

	"github.com/google/uuid"
)

// Event belongs to exactly one organization and owns its tickets.
type Event struct {
	ID          uuid.UUID `json:"event_id"`
	OrgID       uuid.UUID `json:"org_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Date        Date      `json:"date"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// EventDetail is an event with its tickets (GET /events/:id).
type EventDetail struct {
	Event
	Tickets []Ticket `json:"tickets"`
}

// EventInput is the body for POST /events. Date is kept as text until validated.
type EventInput struct {
	OrgID       string `json:"org_id" validate:"required,uuid"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Date        string `json:"date" validate:"required,calendardate"`
	Location    string `json:"location" validate:"required"`
	Category    string `json:"category" validate:"required"`
}

// EventPatch is the body for PUT /events/:id.
type EventPatch struct {
	OrgID       *string `json:"org_id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	Location    *string `json:"location"`
	Category    *string `json:"category"`
}

// EventFilter narrows GET /events/search. Empty fields do not filter.
type EventFilter struct {
	Category string
	Location string
}

// Input returns the event's current writable fields.
func (e *Event) Input() EventInput {
	return EventInput{
		OrgID:       e.OrgID.String(),
		Name:        e.Name,
		Description: e.Description,
		Date:        e.Date.String(),
		Location:    e.Location,
		Category:    e.Category,
	}
}

// Apply overlays the supplied fields onto in.
func (p EventPatch) Apply(in EventInput) EventInput {
	if p.OrgID != nil {
		in.OrgID = *p.OrgID
	}
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Date != nil {
		in.Date = *p.Date
	}
	if p.Location != nil {
		in.Location = *p.Location
	}
	if p.Category != nil {
		in.Category = *p.Category
	}
	return in
}
