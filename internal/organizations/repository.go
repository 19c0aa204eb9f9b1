package organizations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/catalog"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/validation"
	"github.com/aura-events/backend/pkg/database"
)

// Repository handles organization persistence. Deletes cascade through catalog.DeleteOrganization.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organizations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create validates in and inserts a new organization with a fresh id.
func (r *Repository) Create(ctx context.Context, in models.OrganizationInput) (*models.Organization, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	const q = `INSERT INTO organizations (org_id, name, description, contact_email)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + catalog.OrganizationColumns
	rows, err := database.Conn(ctx, r.pool).Query(ctx, q, uuid.New(), in.Name, in.Description, in.ContactEmail)
	if err != nil {
		return nil, apperr.Persistence("create organization", err)
	}
	org, err := catalog.OneOrganization(rows)
	if err != nil {
		return nil, apperr.Persistence("create organization", err)
	}
	return org, nil
}

// GetByID returns an organization by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	const q = `SELECT ` + catalog.OrganizationColumns + ` FROM organizations WHERE org_id = $1`
	rows, err := database.Conn(ctx, r.pool).Query(ctx, q, id)
	if err != nil {
		return nil, apperr.Persistence("get organization", err)
	}
	org, err := catalog.OneOrganization(rows)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(models.EntityOrganization, id.String())
	}
	if err != nil {
		return nil, apperr.Persistence("get organization", err)
	}
	return org, nil
}

// GetWithEvents returns an organization and the events it owns.
func (r *Repository) GetWithEvents(ctx context.Context, id uuid.UUID) (*models.OrganizationDetail, error) {
	org, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	const q = `SELECT ` + catalog.EventColumns + ` FROM events WHERE org_id = $1 ORDER BY date, created_at`
	rows, err := database.Conn(ctx, r.pool).Query(ctx, q, id)
	if err != nil {
		return nil, apperr.Persistence("list organization events", err)
	}
	events, err := catalog.CollectEvents(rows)
	if err != nil {
		return nil, apperr.Persistence("list organization events", err)
	}
	return &models.OrganizationDetail{Organization: *org, Events: events}, nil
}

// List returns all organizations ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Organization, error) {
	const q = `SELECT ` + catalog.OrganizationColumns + ` FROM organizations ORDER BY name, created_at`
	rows, err := database.Conn(ctx, r.pool).Query(ctx, q)
	if err != nil {
		return nil, apperr.Persistence("list organizations", err)
	}
	list, err := catalog.CollectOrganizations(rows)
	if err != nil {
		return nil, apperr.Persistence("list organizations", err)
	}
	return list, nil
}

// Count returns the number of organizations.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := database.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM organizations`).Scan(&n); err != nil {
		return 0, apperr.Persistence("count organizations", err)
	}
	return n, nil
}

// Update merges patch onto the stored organization, validates the result and saves it.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch models.OrganizationPatch) (*models.Revision[models.Organization], error) {
	var rev models.Revision[models.Organization]
	err := database.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+catalog.OrganizationColumns+` FROM organizations WHERE org_id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		current, err := catalog.OneOrganization(rows)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound(models.EntityOrganization, id.String())
		}
		if err != nil {
			return err
		}

		in := patch.Apply(current.Input())
		if err := validation.Struct(in); err != nil {
			return err
		}

		const q = `UPDATE organizations SET name = $1, description = $2, contact_email = $3, updated_at = NOW()
			WHERE org_id = $4
			RETURNING ` + catalog.OrganizationColumns
		rows, err = tx.Query(ctx, q, in.Name, in.Description, in.ContactEmail, id)
		if err != nil {
			return err
		}
		updated, err := catalog.OneOrganization(rows)
		if err != nil {
			return err
		}
		rev = models.Revision[models.Organization]{Before: *current, After: *updated}
		return nil
	})
	if err != nil {
		return nil, apperr.Persistence("update organization", err)
	}
	return &rev, nil
}

// Delete removes the organization together with its events and their tickets, atomically.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (*catalog.Result, error) {
	var res *catalog.Result
	err := database.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		res, err = catalog.DeleteOrganization(ctx, tx, id)
		return err
	})
	if errors.Is(err, database.ErrRollback) {
		return nil, fmt.Errorf("delete organization %s: %w: %v", id, apperr.ErrCascadeIncomplete, err)
	}
	if err != nil {
		return nil, apperr.Persistence("delete organization", err)
	}
	return res, nil
}
