package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/testutil"
)

func entry(entity string, id uuid.UUID, action string, at time.Time) *models.AuditEntry {
	return &models.AuditEntry{
		ID: uuid.New(), Entity: entity, EntityID: id, Action: action,
		Snapshot: json.RawMessage(`{"name":"Tech United"}`), OccurredAt: at,
	}
}

func TestRepository_InsertIsIdempotent(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	r := NewRepository(pool)

	e := entry(models.EntityOrganization, uuid.New(), models.ActionCreate, time.Now().UTC())
	require.NoError(t, r.Insert(ctx, e))
	require.NoError(t, r.Insert(ctx, e))
	assert.Equal(t, 1, testutil.CountRows(t, ctx, pool, "audit_log"))

	list, err := r.List(ctx, models.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, e.ID, list[0].ID)
	assert.JSONEq(t, string(e.Snapshot), string(list[0].Snapshot))
	assert.Empty(t, list[0].ArchiveKey)
}

func TestRepository_ListFiltersNewestFirst(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	r := NewRepository(pool)

	org := uuid.New()
	base := time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, r.Insert(ctx, entry(models.EntityOrganization, org, models.ActionCreate, base)))
	require.NoError(t, r.Insert(ctx, entry(models.EntityOrganization, org, models.ActionUpdate, base.Add(time.Minute))))
	del := entry(models.EntityOrganization, org, models.ActionDelete, base.Add(2*time.Minute))
	del.ArchiveKey = "archive/organization/x.json"
	require.NoError(t, r.Insert(ctx, del))
	require.NoError(t, r.Insert(ctx, entry(models.EntityTicket, uuid.New(), models.ActionCreate, base)))
	noSnapshot := entry(models.EntityEvent, uuid.New(), models.ActionUpdate, base)
	noSnapshot.Snapshot = nil
	require.NoError(t, r.Insert(ctx, noSnapshot))

	list, err := r.List(ctx, models.AuditFilter{Entity: models.EntityOrganization, EntityID: &org})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, models.ActionDelete, list[0].Action)
	assert.Equal(t, "archive/organization/x.json", list[0].ArchiveKey)
	assert.Equal(t, models.ActionCreate, list[2].Action)

	tickets, err := r.List(ctx, models.AuditFilter{Entity: models.EntityTicket})
	require.NoError(t, err)
	assert.Len(t, tickets, 1)

	limited, err := r.List(ctx, models.AuditFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	events, err := r.List(ctx, models.AuditFilter{Entity: models.EntityEvent})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].Snapshot)
}
