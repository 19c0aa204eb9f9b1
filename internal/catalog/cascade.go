package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/models"
)

// Result lists every row removed by a delete, parent first.
type Result struct {
	Organization *models.Organization `json:"organization,omitempty"`
	Events       []models.Event       `json:"events,omitempty"`
	Tickets      []models.Ticket      `json:"tickets,omitempty"`
}

// DeleteOrganization removes an organization, its events and their tickets.
// It must run inside tx; the caller commits or rolls back the whole unit.
func DeleteOrganization(ctx context.Context, tx pgx.Tx, orgID uuid.UUID) (*Result, error) {
	var locked uuid.UUID
	err := tx.QueryRow(ctx, `SELECT org_id FROM organizations WHERE org_id = $1 FOR UPDATE`, orgID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(models.EntityOrganization, orgID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("lock organization: %w", err)
	}

	// Locking the events blocks concurrent ticket inserts until commit, after which
	// their foreign key check fails instead of leaving an orphan.
	rows, err := tx.Query(ctx, `SELECT event_id FROM events WHERE org_id = $1 FOR UPDATE`, orgID)
	if err != nil {
		return nil, fmt.Errorf("lock events: %w", err)
	}
	eventIDs, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("lock events: %w", err)
	}

	res := &Result{Events: []models.Event{}, Tickets: []models.Ticket{}}
	if len(eventIDs) > 0 {
		rows, err = tx.Query(ctx, `DELETE FROM tickets
			WHERE event_id IN (SELECT event_id FROM events WHERE org_id = $1)
			RETURNING `+TicketColumns, orgID)
		if err != nil {
			return nil, fmt.Errorf("delete tickets: %w", err)
		}
		if res.Tickets, err = CollectTickets(rows); err != nil {
			return nil, fmt.Errorf("delete tickets: %w", err)
		}

		rows, err = tx.Query(ctx, `DELETE FROM events WHERE org_id = $1 RETURNING `+EventColumns, orgID)
		if err != nil {
			return nil, fmt.Errorf("delete events: %w", err)
		}
		if res.Events, err = CollectEvents(rows); err != nil {
			return nil, fmt.Errorf("delete events: %w", err)
		}
	}

	rows, err = tx.Query(ctx, `DELETE FROM organizations WHERE org_id = $1 RETURNING `+OrganizationColumns, orgID)
	if err != nil {
		return nil, fmt.Errorf("delete organization: %w", err)
	}
	if res.Organization, err = OneOrganization(rows); err != nil {
		return nil, fmt.Errorf("delete organization: %w", err)
	}
	return res, nil
}

// DeleteEvent removes an event and its tickets inside tx.
func DeleteEvent(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) (*Result, error) {
	var locked uuid.UUID
	err := tx.QueryRow(ctx, `SELECT event_id FROM events WHERE event_id = $1 FOR UPDATE`, eventID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(models.EntityEvent, eventID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("lock event: %w", err)
	}

	rows, err := tx.Query(ctx, `DELETE FROM tickets WHERE event_id = $1 RETURNING `+TicketColumns, eventID)
	if err != nil {
		return nil, fmt.Errorf("delete tickets: %w", err)
	}
	res := &Result{}
	if res.Tickets, err = CollectTickets(rows); err != nil {
		return nil, fmt.Errorf("delete tickets: %w", err)
	}

	rows, err = tx.Query(ctx, `DELETE FROM events WHERE event_id = $1 RETURNING `+EventColumns, eventID)
	if err != nil {
		return nil, fmt.Errorf("delete event: %w", err)
	}
	ev, err := OneEvent(rows)
	if err != nil {
		return nil, fmt.Errorf("delete event: %w", err)
	}
	res.Events = []models.Event{*ev}
	return res, nil
}

// EventIDs returns the ids of the deleted events.
func (r *Result) EventIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Events))
	for _, e := range r.Events {
		ids = append(ids, e.ID)
	}
	return ids
}

// TicketIDs returns the ids of the deleted tickets.
func (r *Result) TicketIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Tickets))
	for _, t := range r.Tickets {
		ids = append(ids, t.ID)
	}
	return ids
}
