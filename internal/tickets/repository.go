package tickets

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/catalog"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/validation"
	"github.com/aura-events/backend/pkg/database"
)

// Repository handles ticket persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a tickets repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create validates in and inserts a new ticket. The event must already exist.
func (r *Repository) Create(ctx context.Context, in models.TicketInput) (*models.Ticket, error) {
	eventID, err := parseInput(in)
	if err != nil {
		return nil, err
	}
	const q = `INSERT INTO tickets (ticket_id, event_id, type, price, quantity_available)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + catalog.TicketColumns
	rows, err := database.Conn(ctx, r.pool).Query(ctx, q, uuid.New(), eventID, in.Type, *in.Price, *in.QuantityAvailable)
	if err != nil {
		return nil, apperr.Persistence("create ticket", eventViolation(err, eventID))
	}
	t, err := catalog.OneTicket(rows)
	if err != nil {
		return nil, apperr.Persistence("create ticket", eventViolation(err, eventID))
	}
	return t, nil
}

// GetByID returns a ticket by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	const q = `SELECT ` + catalog.TicketColumns + ` FROM tickets WHERE ticket_id = $1`
	rows, err := database.Conn(ctx, r.pool).Query(ctx, q, id)
	if err != nil {
		return nil, apperr.Persistence("get ticket", err)
	}
	t, err := catalog.OneTicket(rows)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(models.EntityTicket, id.String())
	}
	if err != nil {
		return nil, apperr.Persistence("get ticket", err)
	}
	return t, nil
}

// List returns all tickets.
func (r *Repository) List(ctx context.Context) ([]models.Ticket, error) {
	const q = `SELECT ` + catalog.TicketColumns + ` FROM tickets ORDER BY created_at, ticket_id`
	rows, err := database.Conn(ctx, r.pool).Query(ctx, q)
	if err != nil {
		return nil, apperr.Persistence("list tickets", err)
	}
	list, err := catalog.CollectTickets(rows)
	if err != nil {
		return nil, apperr.Persistence("list tickets", err)
	}
	return list, nil
}

// ListByEvent returns the tickets of one event.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Ticket, error) {
	const q = `SELECT ` + catalog.TicketColumns + ` FROM tickets WHERE event_id = $1 ORDER BY price, created_at`
	rows, err := database.Conn(ctx, r.pool).Query(ctx, q, eventID)
	if err != nil {
		return nil, apperr.Persistence("list tickets by event", err)
	}
	list, err := catalog.CollectTickets(rows)
	if err != nil {
		return nil, apperr.Persistence("list tickets by event", err)
	}
	return list, nil
}

// Update merges patch onto the stored ticket, validates the result and saves it.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch models.TicketPatch) (*models.Revision[models.Ticket], error) {
	var rev models.Revision[models.Ticket]
	err := database.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+catalog.TicketColumns+` FROM tickets WHERE ticket_id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		current, err := catalog.OneTicket(rows)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound(models.EntityTicket, id.String())
		}
		if err != nil {
			return err
		}

		in := patch.Apply(current.Input())
		eventID, err := parseInput(in)
		if err != nil {
			return err
		}

		const q = `UPDATE tickets
			SET event_id = $1, type = $2, price = $3, quantity_available = $4, updated_at = NOW()
			WHERE ticket_id = $5
			RETURNING ` + catalog.TicketColumns
		rows, err = tx.Query(ctx, q, eventID, in.Type, *in.Price, *in.QuantityAvailable, id)
		if err != nil {
			return eventViolation(err, eventID)
		}
		updated, err := catalog.OneTicket(rows)
		if err != nil {
			return eventViolation(err, eventID)
		}
		rev = models.Revision[models.Ticket]{Before: *current, After: *updated}
		return nil
	})
	if err != nil {
		return nil, apperr.Persistence("update ticket", err)
	}
	return &rev, nil
}

// Delete removes one ticket. Tickets own nothing, so no cascade is needed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	const q = `DELETE FROM tickets WHERE ticket_id = $1 RETURNING ` + catalog.TicketColumns
	rows, err := database.Conn(ctx, r.pool).Query(ctx, q, id)
	if err != nil {
		return nil, apperr.Persistence("delete ticket", err)
	}
	t, err := catalog.OneTicket(rows)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(models.EntityTicket, id.String())
	}
	if err != nil {
		return nil, apperr.Persistence("delete ticket", err)
	}
	return t, nil
}

func parseInput(in models.TicketInput) (uuid.UUID, error) {
	if err := validation.Struct(in); err != nil {
		return uuid.Nil, err
	}
	eventID, err := uuid.Parse(in.EventID)
	if err != nil {
		return uuid.Nil, apperr.Invalid("event_id", "Invalid UUID for event_id")
	}
	return eventID, nil
}

func eventViolation(err error, eventID uuid.UUID) error {
	if database.IsForeignKeyViolation(err) {
		return &apperr.ForeignKeyError{Field: "event_id", Entity: models.EntityEvent, ID: eventID.String()}
	}
	return err
}
