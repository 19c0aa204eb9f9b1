package models

import (
	"time"

	"github.com/google/uuid"
)

// Ticket is a priced allocation for one event.
type Ticket struct {
	ID                uuid.UUID `json:"ticket_id"`
	EventID           uuid.UUID `json:"event_id"`
	Type              string    `json:"type"`
	Price             float64   `json:"price"`
	QuantityAvailable int       `json:"quantityAvailable"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// TicketInput is the body for POST /tickets. Pointers distinguish a missing value from zero.
type TicketInput struct {
	EventID           string   `json:"event_id" validate:"required,uuid"`
	Type              string   `json:"type" validate:"required"`
	Price             *float64 `json:"price" validate:"required,min=0"`
	QuantityAvailable *int     `json:"quantityAvailable" validate:"required,min=0,max=2147483647"`
}

// TicketPatch is the body for PUT /tickets/:id.
type TicketPatch struct {
	EventID           *string  `json:"event_id"`
	Type              *string  `json:"type"`
	Price             *float64 `json:"price"`
	QuantityAvailable *int     `json:"quantityAvailable"`
}

// Input returns the ticket's current writable fields.
func (t *Ticket) Input() TicketInput {
	price, qty := t.Price, t.QuantityAvailable
	return TicketInput{
		EventID:           t.EventID.String(),
		Type:              t.Type,
		Price:             &price,
		QuantityAvailable: &qty,
	}
}

// Apply overlays the supplied fields onto in.
func (p TicketPatch) Apply(in TicketInput) TicketInput {
	if p.EventID != nil {
		in.EventID = *p.EventID
	}
	if p.Type != nil {
		in.Type = *p.Type
	}
	if p.Price != nil {
		in.Price = p.Price
	}
	if p.QuantityAvailable != nil {
		in.QuantityAvailable = p.QuantityAvailable
	}
	return in
}
