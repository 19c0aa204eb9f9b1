package organizations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/cache"
	"github.com/aura-events/backend/internal/catalog"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/queue"
	"github.com/aura-events/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Create(ctx context.Context, in models.OrganizationInput) (*models.Organization, error) {
	args := m.Called(ctx, in)
	org, _ := args.Get(0).(*models.Organization)
	return org, args.Error(1)
}

func (m *mockStore) GetWithEvents(ctx context.Context, id uuid.UUID) (*models.OrganizationDetail, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*models.OrganizationDetail)
	return d, args.Error(1)
}

func (m *mockStore) List(ctx context.Context) ([]models.Organization, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.Organization)
	return list, args.Error(1)
}

func (m *mockStore) Update(ctx context.Context, id uuid.UUID, patch models.OrganizationPatch) (*models.Revision[models.Organization], error) {
	args := m.Called(ctx, id, patch)
	rev, _ := args.Get(0).(*models.Revision[models.Organization])
	return rev, args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, id uuid.UUID) (*catalog.Result, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*catalog.Result)
	return res, args.Error(1)
}

type fixture struct {
	store  *mockStore
	router *gin.Engine
	mr     *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := &mockStore{}
	r := gin.New()
	NewHandler(store, cache.NewRedis(client, time.Minute), queue.NewQueue(client, nil), nil).Register(r)
	return &fixture{store: store, router: r, mr: mr}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, response.Body) {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var out response.Body
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func (f *fixture) changes(t *testing.T) []queue.ChangePayload {
	t.Helper()
	if !f.mr.Exists(queue.QueueChanges) {
		return nil
	}
	raw, err := f.mr.List(queue.QueueChanges)
	require.NoError(t, err)
	var out []queue.ChangePayload
	for _, r := range raw {
		var job queue.Job
		require.NoError(t, json.Unmarshal([]byte(r), &job))
		var p queue.ChangePayload
		require.NoError(t, json.Unmarshal(job.Payload, &p))
		out = append(out, p)
	}
	return out
}

func sampleOrg() *models.Organization {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.Organization{
		ID: uuid.New(), Name: "Tech United", Description: "Promotes technology innovation",
		ContactEmail: "info@techunited.com", CreatedAt: now, UpdatedAt: now,
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	org := sampleOrg()
	in := models.OrganizationInput{Name: org.Name, Description: org.Description, ContactEmail: org.ContactEmail}
	f.store.On("Create", mock.Anything, in).Return(org, nil)

	w, body := f.do(t, http.MethodPost, "/organizations", in)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, body.Success)
	data := body.Data.(map[string]any)
	assert.Equal(t, org.ID.String(), data["org_id"])
	assert.Equal(t, "info@techunited.com", data["contactEmail"])

	changes := f.changes(t)
	require.Len(t, changes, 1)
	assert.Equal(t, models.ActionCreate, changes[0].Action)
	assert.Equal(t, org.ID, changes[0].EntityID)
	f.store.AssertExpectations(t)
}

func TestCreate_ValidationError(t *testing.T) {
	f := newFixture(t)
	f.store.On("Create", mock.Anything, mock.Anything).Return(nil, &apperr.ValidationError{Fields: []apperr.FieldError{
		{Field: "name", Message: "Name is required"},
		{Field: "contactEmail", Message: "Invalid email format"},
	}})

	w, body := f.do(t, http.MethodPost, "/organizations", map[string]string{"contactEmail": "nope"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeValidationFailed, body.Code)
	assert.Len(t, body.Errors, 2)
	assert.Empty(t, f.changes(t))
}

func TestCreate_MalformedBody(t *testing.T) {
	f := newFixture(t)
	w, body := f.do(t, http.MethodPost, "/organizations", "{not json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeInvalidRequestBody, body.Code)
	f.store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	f.store.On("List", mock.Anything).Return([]models.Organization{*sampleOrg(), *sampleOrg()}, nil)

	w, body := f.do(t, http.MethodGet, "/organizations", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body.Data, 2)
}

func TestList_StoreFailureHidesDetail(t *testing.T) {
	f := newFixture(t)
	f.store.On("List", mock.Anything).Return(nil, apperr.Persistence("list organizations", errors.New("connection refused")))

	w, body := f.do(t, http.MethodGet, "/organizations", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Server error", body.Error)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestGetByID_CachesDetail(t *testing.T) {
	f := newFixture(t)
	org := sampleOrg()
	detail := &models.OrganizationDetail{Organization: *org, Events: []models.Event{}}
	f.store.On("GetWithEvents", mock.Anything, org.ID).Return(detail, nil).Once()

	w, body := f.do(t, http.MethodGet, "/organizations/"+org.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, org.Name, body.Data.(map[string]any)["name"])
	assert.True(t, f.mr.Exists(cache.OrganizationKey(org.ID)))

	w, body = f.do(t, http.MethodGet, "/organizations/"+org.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, org.Name, body.Data.(map[string]any)["name"])
	f.store.AssertNumberOfCalls(t, "GetWithEvents", 1)
}

func TestGetByID_DeleteDuringReadIsNotCached(t *testing.T) {
	f := newFixture(t)
	org := sampleOrg()
	path := "/organizations/" + org.ID.String()
	detail := &models.OrganizationDetail{Organization: *org, Events: []models.Event{}}
	f.store.On("Delete", mock.Anything, org.ID).Return(&catalog.Result{Organization: org}, nil)
	f.store.On("GetWithEvents", mock.Anything, org.ID).Return(detail, nil).Once().
		Run(func(mock.Arguments) {
			w, _ := f.do(t, http.MethodDelete, path, nil)
			require.Equal(t, http.StatusNoContent, w.Code)
		})
	f.store.On("GetWithEvents", mock.Anything, org.ID).
		Return(nil, apperr.NotFound(models.EntityOrganization, org.ID.String())).Once()

	w, _ := f.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assertInvalidated(t, f.mr, cache.OrganizationKey(org.ID))

	w, _ = f.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	f.store.AssertNumberOfCalls(t, "GetWithEvents", 2)
}

func TestGetByID_NotFound(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.store.On("GetWithEvents", mock.Anything, id).Return(nil, apperr.NotFound(models.EntityOrganization, id.String()))

	w, body := f.do(t, http.MethodGet, "/organizations/"+id.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Organization not found", body.Error)
}

func TestGetByID_NonUUIDIsNotFound(t *testing.T) {
	f := newFixture(t)
	w, body := f.do(t, http.MethodGet, "/organizations/ORG001", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.CodeNotFound, body.Code)
}

func TestUpdate_InvalidatesCache(t *testing.T) {
	f := newFixture(t)
	before := sampleOrg()
	after := *before
	after.Name = "Tech United Global"
	name := after.Name
	patch := models.OrganizationPatch{Name: &name}
	f.store.On("Update", mock.Anything, before.ID, patch).
		Return(&models.Revision[models.Organization]{Before: *before, After: after}, nil)
	require.NoError(t, f.mr.Set(cache.OrganizationKey(before.ID), `{"org_id":"stale"}`))

	w, body := f.do(t, http.MethodPut, "/organizations/"+before.ID.String(), map[string]string{"name": name})

	assert.Equal(t, http.StatusOK, w.Code)
	data := body.Data.(map[string]any)
	assert.Equal(t, name, data["name"])
	assert.Equal(t, before.ContactEmail, data["contactEmail"])
	assertInvalidated(t, f.mr, cache.OrganizationKey(before.ID))

	changes := f.changes(t)
	require.Len(t, changes, 1)
	assert.Equal(t, models.ActionUpdate, changes[0].Action)
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.store.On("Update", mock.Anything, id, mock.Anything).Return(nil, apperr.NotFound(models.EntityOrganization, id.String()))

	w, _ := f.do(t, http.MethodPut, "/organizations/"+id.String(), map[string]string{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDelete_InvalidatesSubtree(t *testing.T) {
	f := newFixture(t)
	org := sampleOrg()
	ev := models.Event{ID: uuid.New(), OrgID: org.ID}
	tk := models.Ticket{ID: uuid.New(), EventID: ev.ID}
	f.store.On("Delete", mock.Anything, org.ID).Return(&catalog.Result{
		Organization: org, Events: []models.Event{ev}, Tickets: []models.Ticket{tk},
	}, nil)
	for _, k := range []string{cache.OrganizationKey(org.ID), cache.EventKey(ev.ID), cache.TicketKey(tk.ID)} {
		require.NoError(t, f.mr.Set(k, "{}"))
	}

	w, _ := f.do(t, http.MethodDelete, "/organizations/"+org.ID.String(), nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	assertInvalidated(t, f.mr, cache.OrganizationKey(org.ID))
	assertInvalidated(t, f.mr, cache.EventKey(ev.ID))
	assertInvalidated(t, f.mr, cache.TicketKey(tk.ID))

	changes := f.changes(t)
	require.Len(t, changes, 1)
	assert.Equal(t, models.ActionDelete, changes[0].Action)
	assert.Contains(t, string(changes[0].Snapshot), tk.ID.String())
}

func TestDelete_CascadeIncomplete(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.store.On("Delete", mock.Anything, id).Return(nil, apperr.Persistence("delete organization", apperr.ErrCascadeIncomplete))

	w, body := f.do(t, http.MethodDelete, "/organizations/"+id.String(), nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, response.CodeCascadeIncomplete, body.Code)
	assert.Empty(t, f.changes(t))
}

func TestHandler_WorksWithoutRedis(t *testing.T) {
	store := &mockStore{}
	r := gin.New()
	NewHandler(store, nil, nil, nil).Register(r)
	org := sampleOrg()
	store.On("Delete", mock.Anything, org.ID).Return(&catalog.Result{Organization: org}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/organizations/"+org.ID.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func assertInvalidated(t *testing.T, mr *miniredis.Miniredis, key string) {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err, key)
	assert.Equal(t, cache.Tombstone, v, key)
}
