package audit

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/database"
)

// MaxList caps the number of entries returned by List.
const MaxList = 100

// Repository handles audit_log persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an audit repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores e. Entries are keyed by job ID so a redelivered job is recorded once.
func (r *Repository) Insert(ctx context.Context, e *models.AuditEntry) error {
	const q = `INSERT INTO audit_log (id, entity, entity_id, action, snapshot, archive_key, occurred_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		ON CONFLICT (id) DO NOTHING`
	var snapshot any
	if len(e.Snapshot) > 0 {
		snapshot = string(e.Snapshot)
	}
	_, err := database.Conn(ctx, r.pool).Exec(ctx, q, e.ID, e.Entity, e.EntityID, e.Action, snapshot, e.ArchiveKey, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns entries matching f, newest first.
func (r *Repository) List(ctx context.Context, f models.AuditFilter) ([]models.AuditEntry, error) {
	var (
		where []string
		args  []any
	)
	if f.Entity != "" {
		args = append(args, f.Entity)
		where = append(where, "entity = $"+strconv.Itoa(len(args)))
	}
	if f.EntityID != nil {
		args = append(args, *f.EntityID)
		where = append(where, "entity_id = $"+strconv.Itoa(len(args)))
	}
	limit := f.Limit
	if limit <= 0 || limit > MaxList {
		limit = MaxList
	}
	args = append(args, limit)

	q := `SELECT id, entity, entity_id, action, snapshot, COALESCE(archive_key, ''), occurred_at, created_at FROM audit_log`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY occurred_at DESC, created_at DESC LIMIT $" + strconv.Itoa(len(args))

	rows, err := database.Conn(ctx, r.pool).Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.AuditEntry, error) {
		var (
			e        models.AuditEntry
			snapshot []byte
		)
		err := row.Scan(&e.ID, &e.Entity, &e.EntityID, &e.Action, &snapshot, &e.ArchiveKey, &e.OccurredAt, &e.CreatedAt)
		e.Snapshot = snapshot
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	if list == nil {
		list = []models.AuditEntry{}
	}
	return list, nil
}
