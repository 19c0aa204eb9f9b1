// Package seed loads the bootstrap catalog on first start.
package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/events"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/organizations"
	"github.com/aura-events/backend/internal/tickets"
	"github.com/aura-events/backend/pkg/database"
)

// lockKey serializes seeding across processes started against the same database.
const lockKey = 7264001

type ticketSeed struct {
	Type     string
	Price    float64
	Quantity int
}

type eventSeed struct {
	Name, Description, Date, Location, Category string
	Tickets                                     []ticketSeed
}

type orgSeed struct {
	Name, Description, ContactEmail string
	Events                          []eventSeed
}

var bootstrap = []orgSeed{
	{
		Name: "Tech United", Description: "Promotes technology innovation", ContactEmail: "info@techunited.com",
		Events: []eventSeed{
			{
				Name: "Tech Conference 2024", Description: "Annual tech conference", Date: "2024-11-15",
				Location: "Convention Center", Category: "Technology",
				Tickets: []ticketSeed{{"Regular", 100, 50}, {"VIP", 250, 20}},
			},
			{
				Name: "AI Workshop", Description: "Hands-on AI workshop", Date: "2024-12-01",
				Location: "Tech United HQ", Category: "Technology",
				Tickets: []ticketSeed{{"General Admission", 50, 100}},
			},
		},
	},
	{
		Name: "Arts Collective", Description: "Supporting local artists", ContactEmail: "info@artscollective.org",
		Events: []eventSeed{
			{
				Name: "Art Exhibition", Description: "Showcasing local artists", Date: "2024-10-27",
				Location: "City Gallery", Category: "Arts",
				Tickets: []ticketSeed{{"Standard", 20, 75}},
			},
		},
	},
}

// Stats counts the rows a Run inserted.
type Stats struct {
	Organizations int
	Events        int
	Tickets       int
}

// Seeder inserts the bootstrap catalog through the regular stores.
type Seeder struct {
	pool    *pgxpool.Pool
	orgs    *organizations.Repository
	events  *events.Repository
	tickets *tickets.Repository
	logger  *zap.Logger
}

// New creates a Seeder.
func New(pool *pgxpool.Pool, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		pool:    pool,
		orgs:    organizations.NewRepository(pool),
		events:  events.NewRepository(pool),
		tickets: tickets.NewRepository(pool),
		logger:  logger,
	}
}

// Run inserts the bootstrap catalog when the organizations table is empty.
// The whole load is one transaction, so a failure leaves the database untouched.
func (s *Seeder) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	err := database.WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, lockKey); err != nil {
			return fmt.Errorf("seed lock: %w", err)
		}
		n, err := s.orgs.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		for _, o := range bootstrap {
			org, err := s.orgs.Create(ctx, models.OrganizationInput{
				Name: o.Name, Description: o.Description, ContactEmail: o.ContactEmail,
			})
			if err != nil {
				return fmt.Errorf("seed organization %q: %w", o.Name, err)
			}
			stats.Organizations++

			for _, e := range o.Events {
				ev, err := s.events.Create(ctx, models.EventInput{
					OrgID: org.ID.String(), Name: e.Name, Description: e.Description,
					Date: e.Date, Location: e.Location, Category: e.Category,
				})
				if err != nil {
					return fmt.Errorf("seed event %q: %w", e.Name, err)
				}
				stats.Events++

				for _, t := range e.Tickets {
					price, qty := t.Price, t.Quantity
					if _, err := s.tickets.Create(ctx, models.TicketInput{
						EventID: ev.ID.String(), Type: t.Type, Price: &price, QuantityAvailable: &qty,
					}); err != nil {
						return fmt.Errorf("seed ticket %q: %w", t.Type, err)
					}
					stats.Tickets++
				}
			}
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	if stats.Organizations > 0 {
		s.logger.Info("seed data inserted",
			zap.Int("organizations", stats.Organizations),
			zap.Int("events", stats.Events),
			zap.Int("tickets", stats.Tickets),
		)
	} else {
		s.logger.Info("seed skipped, catalog not empty")
	}
	return stats, nil
}
