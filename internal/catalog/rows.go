// Package catalog holds the row shapes shared by the organization, event and ticket
// stores, and the explicit cascading deletes that keep the hierarchy free of orphans.
package catalog

import (
	"github.com/jackc/pgx/v5"

	"github.com/aura-events/backend/internal/models"
)

// Column lists in models struct field order, for pgx.RowToStructByPos.
const (
	OrganizationColumns = `org_id, name, description, contact_email, created_at, updated_at`
	EventColumns        = `event_id, org_id, name, description, date, location, category, created_at, updated_at`
	TicketColumns       = `ticket_id, event_id, type, price, quantity_available, created_at, updated_at`
)

// CollectOrganizations drains rows into organizations. The result is never nil.
func CollectOrganizations(rows pgx.Rows) ([]models.Organization, error) {
	return collect(rows, pgx.RowToStructByPos[models.Organization])
}

// CollectEvents drains rows into events. The result is never nil.
func CollectEvents(rows pgx.Rows) ([]models.Event, error) {
	return collect(rows, pgx.RowToStructByPos[models.Event])
}

// CollectTickets drains rows into tickets. The result is never nil.
func CollectTickets(rows pgx.Rows) ([]models.Ticket, error) {
	return collect(rows, pgx.RowToStructByPos[models.Ticket])
}

// OneOrganization reads exactly one organization; pgx.ErrNoRows when empty.
func OneOrganization(rows pgx.Rows) (*models.Organization, error) {
	return pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByPos[models.Organization])
}

// OneEvent reads exactly one event; pgx.ErrNoRows when empty.
func OneEvent(rows pgx.Rows) (*models.Event, error) {
	return pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByPos[models.Event])
}

// OneTicket reads exactly one ticket; pgx.ErrNoRows when empty.
func OneTicket(rows pgx.Rows) (*models.Ticket, error) {
	return pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByPos[models.Ticket])
}

func collect[T any](rows pgx.Rows, fn pgx.RowToFunc[T]) ([]T, error) {
	list, err := pgx.CollectRows(rows, fn)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []T{}
	}
	return list, nil
}
