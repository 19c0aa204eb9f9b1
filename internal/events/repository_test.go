package events

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/testutil"
)

func newOrg(t *testing.T, ctx context.Context, r *Repository) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := r.pool.Exec(ctx, `INSERT INTO organizations (org_id, name, description, contact_email)
		VALUES ($1, 'Tech United', 'Promotes technology innovation', 'info@techunited.com')`, id)
	require.NoError(t, err)
	return id
}

func eventInput(orgID uuid.UUID, name, date, location, category string) models.EventInput {
	return models.EventInput{
		OrgID: orgID.String(), Name: name, Description: name + " description",
		Date: date, Location: location, Category: category,
	}
}

func TestRepository_CreateGetRoundTrip(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	r := NewRepository(pool)
	orgID := newOrg(t, ctx, r)

	in := eventInput(orgID, "Tech Conference 2024", "2024-11-15", "Convention Center", "Technology")
	ev, err := r.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "2024-11-15", ev.Date.String())

	got, err := r.GetByID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, in, got.Input())

	detail, err := r.GetWithTickets(ctx, ev.ID)
	require.NoError(t, err)
	assert.NotNil(t, detail.Tickets)
	assert.Empty(t, detail.Tickets)
}

func TestRepository_CreateAcceptsTimestampDate(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	r := NewRepository(pool)
	orgID := newOrg(t, ctx, r)

	ev, err := r.Create(ctx, eventInput(orgID, "AI Workshop", "2024-12-01T10:00:00Z", "HQ", "Technology"))
	require.NoError(t, err)
	assert.Equal(t, "2024-12-01", ev.Date.String())
}

func TestRepository_CreateStoresFirstDayOfEra(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	r := NewRepository(pool)
	orgID := newOrg(t, ctx, r)

	ev, err := r.Create(ctx, eventInput(orgID, "Founding", "0001-01-01", "Rome", "History"))
	require.NoError(t, err)

	got, err := r.GetByID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "0001-01-01", got.Date.String())
}

func TestRepository_CreateRejectsUnknownOrganization(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	r := NewRepository(pool)

	missing := uuid.New()
	_, err := r.Create(ctx, eventInput(missing, "Ghost", "2024-11-15", "Nowhere", "None"))
	var fk *apperr.ForeignKeyError
	require.ErrorAs(t, err, &fk)
	assert.Equal(t, "org_id", fk.Field)
	assert.Equal(t, missing.String(), fk.ID)
	assert.Equal(t, 0, testutil.CountRows(t, ctx, pool, "events"))
}

func TestRepository_CreateInvalid(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	r := NewRepository(pool)
	orgID := newOrg(t, ctx, r)

	_, err := r.Create(ctx, eventInput(orgID, "Bad date", "2024-02-30", "HQ", "Technology"))
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "date", ve.Fields[0].Field)

	_, err = r.Create(ctx, models.EventInput{OrgID: "ORG001"})
	require.ErrorAs(t, err, &ve)
	assert.GreaterOrEqual(t, len(ve.Fields), 5)
	assert.Equal(t, 0, testutil.CountRows(t, ctx, pool, "events"))
}

func TestRepository_Search(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	r := NewRepository(pool)
	orgID := newOrg(t, ctx, r)

	for _, in := range []models.EventInput{
		eventInput(orgID, "Tech Conference 2024", "2024-11-15", "Convention Center", "Technology"),
		eventInput(orgID, "AI Workshop", "2024-12-01", "Tech United HQ", "Technology"),
		eventInput(orgID, "Art Exhibition", "2024-10-27", "City Gallery", "Arts"),
		eventInput(orgID, "Sale", "2024-10-28", "100%_Off Mall", "Retail"),
	} {
		_, err := r.Create(ctx, in)
		require.NoError(t, err)
	}

	all, err := r.Search(ctx, models.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "Art Exhibition", all[0].Name)

	listed, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, all, listed)

	tech, err := r.Search(ctx, models.EventFilter{Category: "tEcHnOlOgY"})
	require.NoError(t, err)
	assert.Len(t, tech, 2)

	partial, err := r.Search(ctx, models.EventFilter{Category: "Tech"})
	require.NoError(t, err)
	assert.Empty(t, partial)

	hq, err := r.Search(ctx, models.EventFilter{Location: "united hq"})
	require.NoError(t, err)
	require.Len(t, hq, 1)
	assert.Equal(t, "AI Workshop", hq[0].Name)

	both, err := r.Search(ctx, models.EventFilter{Category: "technology", Location: "center"})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "Tech Conference 2024", both[0].Name)

	literal, err := r.Search(ctx, models.EventFilter{Location: "%_"})
	require.NoError(t, err)
	require.Len(t, literal, 1)
	assert.Equal(t, "Sale", literal[0].Name)

	none, err := r.Search(ctx, models.EventFilter{Category: "Sports"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestRepository_PartialUpdate(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	r := NewRepository(pool)
	orgID := newOrg(t, ctx, r)
	ev, err := r.Create(ctx, eventInput(orgID, "AI Workshop", "2024-12-01", "Tech United HQ", "Technology"))
	require.NoError(t, err)

	loc := "Innovation Lab"
	rev, err := r.Update(ctx, ev.ID, models.EventPatch{Location: &loc})
	require.NoError(t, err)
	assert.Equal(t, "Tech United HQ", rev.Before.Location)
	assert.Equal(t, loc, rev.After.Location)
	assert.Equal(t, ev.Name, rev.After.Name)
	assert.Equal(t, ev.Date.String(), rev.After.Date.String())

	missing := uuid.New().String()
	_, err = r.Update(ctx, ev.ID, models.EventPatch{OrgID: &missing})
	var fk *apperr.ForeignKeyError
	require.ErrorAs(t, err, &fk)

	other := newOrg(t, ctx, r)
	moved := other.String()
	rev, err = r.Update(ctx, ev.ID, models.EventPatch{OrgID: &moved})
	require.NoError(t, err)
	assert.Equal(t, orgID, rev.Before.OrgID)
	assert.Equal(t, other, rev.After.OrgID)
}

func TestRepository_DeleteCascadesTickets(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	r := NewRepository(pool)
	orgID := newOrg(t, ctx, r)

	ev, err := r.Create(ctx, eventInput(orgID, "Tech Conference 2024", "2024-11-15", "Convention Center", "Technology"))
	require.NoError(t, err)
	keep, err := r.Create(ctx, eventInput(orgID, "AI Workshop", "2024-12-01", "HQ", "Technology"))
	require.NoError(t, err)
	for _, id := range []uuid.UUID{ev.ID, ev.ID, keep.ID} {
		_, err := pool.Exec(ctx, `INSERT INTO tickets (ticket_id, event_id, type, price, quantity_available)
			VALUES ($1, $2, 'Regular', 100, 50)`, uuid.New(), id)
		require.NoError(t, err)
	}

	res, err := r.Delete(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, orgID, res.Events[0].OrgID)
	assert.Len(t, res.Tickets, 2)

	_, err = r.GetByID(ctx, ev.ID)
	assert.True(t, apperr.IsNotFound(err))
	assert.Equal(t, 1, testutil.CountRows(t, ctx, pool, "tickets"))
	assert.Equal(t, 1, testutil.CountRows(t, ctx, pool, "organizations"))

	_, err = r.Delete(ctx, ev.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestRepository_MissingRows(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	r := NewRepository(pool)
	id := uuid.New()

	_, err := r.GetWithTickets(ctx, id)
	assert.True(t, apperr.IsNotFound(err))
	name := "x"
	_, err = r.Update(ctx, id, models.EventPatch{Name: &name})
	assert.True(t, apperr.IsNotFound(err))
	_, err = r.Delete(ctx, id)
	assert.True(t, apperr.IsNotFound(err))
}
