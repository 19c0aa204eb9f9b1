package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/testutil"
)

func TestRun_Idempotent(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	s := New(pool, nil)

	stats, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Organizations: 2, Events: 3, Tickets: 4}, stats)

	stats, err = s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)

	assert.Equal(t, 2, testutil.CountRows(t, ctx, pool, "organizations"))
	assert.Equal(t, 3, testutil.CountRows(t, ctx, pool, "events"))
	assert.Equal(t, 4, testutil.CountRows(t, ctx, pool, "tickets"))
}

func TestRun_SkipsNonEmptyCatalog(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	s := New(pool, nil)

	_, err := s.orgs.Create(ctx, models.OrganizationInput{Name: "Existing", Description: "d", ContactEmail: "a@b.co"})
	require.NoError(t, err)

	stats, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
	assert.Equal(t, 0, testutil.CountRows(t, ctx, pool, "events"))
}

func TestRun_SeededTree(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	s := New(pool, nil)
	_, err := s.Run(ctx)
	require.NoError(t, err)

	found, err := s.events.Search(ctx, models.EventFilter{Category: "technology"})
	require.NoError(t, err)
	require.Len(t, found, 2)

	detail, err := s.events.GetWithTickets(ctx, found[0].ID)
	require.NoError(t, err)
	assert.NotEmpty(t, detail.Tickets)
}
