package events

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/catalog"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/validation"
	"github.com/aura-events/backend/pkg/database"
)

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create validates in and inserts a new event. The organization must already exist.
func (r *Repository) Create(ctx context.Context, in models.EventInput) (*models.Event, error) {
	orgID, date, err := parseInput(in)
	if err != nil {
		return nil, err
	}
	const q = `INSERT INTO events (event_id, org_id, name, description, date, location, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + catalog.EventColumns
	rows, err := database.Conn(ctx, r.pool).Query(ctx, q, uuid.New(), orgID, in.Name, in.Description, date, in.Location, in.Category)
	if err != nil {
		return nil, apperr.Persistence("create event", orgViolation(err, orgID))
	}
	ev, err := catalog.OneEvent(rows)
	if err != nil {
		return nil, apperr.Persistence("create event", orgViolation(err, orgID))
	}
	return ev, nil
}

// GetByID returns an event by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	const q = `SELECT ` + catalog.EventColumns + ` FROM events WHERE event_id = $1`
	rows, err := database.Conn(ctx, r.pool).Query(ctx, q, id)
	if err != nil {
		return nil, apperr.Persistence("get event", err)
	}
	ev, err := catalog.OneEvent(rows)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(models.EntityEvent, id.String())
	}
	if err != nil {
		return nil, apperr.Persistence("get event", err)
	}
	return ev, nil
}

// GetWithTickets returns an event and its tickets.
func (r *Repository) GetWithTickets(ctx context.Context, id uuid.UUID) (*models.EventDetail, error) {
	ev, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	const q = `SELECT ` + catalog.TicketColumns + ` FROM tickets WHERE event_id = $1 ORDER BY price, created_at`
	rows, err := database.Conn(ctx, r.pool).Query(ctx, q, id)
	if err != nil {
		return nil, apperr.Persistence("list event tickets", err)
	}
	tickets, err := catalog.CollectTickets(rows)
	if err != nil {
		return nil, apperr.Persistence("list event tickets", err)
	}
	return &models.EventDetail{Event: *ev, Tickets: tickets}, nil
}

// List returns all events ordered by date.
func (r *Repository) List(ctx context.Context) ([]models.Event, error) {
	return r.Search(ctx, models.EventFilter{})
}

// Search filters events by category (case-insensitive, whole value) and location
// (case-insensitive substring). Empty filter fields are ignored.
func (r *Repository) Search(ctx context.Context, f models.EventFilter) ([]models.Event, error) {
	var (
		conds []string
		args  []any
	)
	if c := strings.TrimSpace(f.Category); c != "" {
		args = append(args, c)
		conds = append(conds, "LOWER(category) = LOWER($"+strconv.Itoa(len(args))+")")
	}
	if l := strings.TrimSpace(f.Location); l != "" {
		args = append(args, "%"+escapeLike(l)+"%")
		conds = append(conds, "location ILIKE $"+strconv.Itoa(len(args)))
	}
	q := `SELECT ` + catalog.EventColumns + ` FROM events`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY date, created_at"

	rows, err := database.Conn(ctx, r.pool).Query(ctx, q, args...)
	if err != nil {
		return nil, apperr.Persistence("search events", err)
	}
	list, err := catalog.CollectEvents(rows)
	if err != nil {
		return nil, apperr.Persistence("search events", err)
	}
	return list, nil
}

// Update merges patch onto the stored event, validates the result and saves it.
// Moving an event to another organization requires that organization to exist.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch models.EventPatch) (*models.Revision[models.Event], error) {
	var rev models.Revision[models.Event]
	err := database.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+catalog.EventColumns+` FROM events WHERE event_id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		current, err := catalog.OneEvent(rows)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound(models.EntityEvent, id.String())
		}
		if err != nil {
			return err
		}

		in := patch.Apply(current.Input())
		orgID, date, err := parseInput(in)
		if err != nil {
			return err
		}

		const q = `UPDATE events
			SET org_id = $1, name = $2, description = $3, date = $4, location = $5, category = $6, updated_at = NOW()
			WHERE event_id = $7
			RETURNING ` + catalog.EventColumns
		rows, err = tx.Query(ctx, q, orgID, in.Name, in.Description, date, in.Location, in.Category, id)
		if err != nil {
			return orgViolation(err, orgID)
		}
		updated, err := catalog.OneEvent(rows)
		if err != nil {
			return orgViolation(err, orgID)
		}
		rev = models.Revision[models.Event]{Before: *current, After: *updated}
		return nil
	})
	if err != nil {
		return nil, apperr.Persistence("update event", err)
	}
	return &rev, nil
}

// Delete removes the event and its tickets atomically.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (*catalog.Result, error) {
	var res *catalog.Result
	err := database.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		res, err = catalog.DeleteEvent(ctx, tx, id)
		return err
	})
	if errors.Is(err, database.ErrRollback) {
		return nil, fmt.Errorf("delete event %s: %w: %v", id, apperr.ErrCascadeIncomplete, err)
	}
	if err != nil {
		return nil, apperr.Persistence("delete event", err)
	}
	return res, nil
}

func parseInput(in models.EventInput) (uuid.UUID, models.Date, error) {
	if err := validation.Struct(in); err != nil {
		return uuid.Nil, models.Date{}, err
	}
	orgID, err := uuid.Parse(in.OrgID)
	if err != nil {
		return uuid.Nil, models.Date{}, apperr.Invalid("org_id", "Invalid UUID for org_id")
	}
	date, err := models.ParseDate(in.Date)
	if err != nil {
		return uuid.Nil, models.Date{}, apperr.Invalid("date", "Invalid date format")
	}
	return orgID, date, nil
}

func orgViolation(err error, orgID uuid.UUID) error {
	if database.IsForeignKeyViolation(err) {
		return &apperr.ForeignKeyError{Field: "org_id", Entity: models.EntityOrganization, ID: orgID.String()}
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
