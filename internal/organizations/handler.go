package organizations

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/cache"
	"github.com/aura-events/backend/internal/catalog"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/validation"
	"github.com/aura-events/backend/pkg/queue"
	"github.com/aura-events/backend/pkg/response"
)

// Store is the organization persistence used by Handler. *Repository implements it.
type Store interface {
	Create(ctx context.Context, in models.OrganizationInput) (*models.Organization, error)
	GetWithEvents(ctx context.Context, id uuid.UUID) (*models.OrganizationDetail, error)
	List(ctx context.Context) ([]models.Organization, error)
	Update(ctx context.Context, id uuid.UUID, patch models.OrganizationPatch) (*models.Revision[models.Organization], error)
	Delete(ctx context.Context, id uuid.UUID) (*catalog.Result, error)
}

// Handler handles organization HTTP endpoints.
type Handler struct {
	store     Store
	cache     cache.Cache
	publisher queue.Publisher
	logger    *zap.Logger
}

// NewHandler creates an organizations handler. Nil cache and publisher disable caching and the change feed.
func NewHandler(store Store, c cache.Cache, publisher queue.Publisher, logger *zap.Logger) *Handler {
	if c == nil {
		c = cache.Nop{}
	}
	if publisher == nil {
		publisher = queue.Discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, cache: c, publisher: publisher, logger: logger}
}

// Register mounts the organization routes on r.
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/organizations")
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// List handles GET /organizations.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /organizations/:id. The body includes the organization's events.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	key := cache.OrganizationKey(id)

	var detail models.OrganizationDetail
	if hit, err := h.cache.Get(ctx, key, &detail); err != nil {
		h.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		response.OK(c, detail)
		return
	}

	d, err := h.store.GetWithEvents(ctx, id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if err := h.cache.Set(ctx, key, d); err != nil {
		h.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	response.OK(c, d)
}

// Create handles POST /organizations.
func (h *Handler) Create(c *gin.Context) {
	var in models.OrganizationInput
	if !validation.BindJSON(c, &in) {
		return
	}
	org, err := h.store.Create(c.Request.Context(), in)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	h.publish(c.Request.Context(), org.ID, models.ActionCreate, org)
	response.Created(c, org)
}

// Update handles PUT /organizations/:id. Fields absent from the body keep their value.
func (h *Handler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var patch models.OrganizationPatch
	if !validation.BindJSON(c, &patch) {
		return
	}
	rev, err := h.store.Update(c.Request.Context(), id, patch)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	h.invalidate(c.Request.Context(), cache.OrganizationKey(id))
	h.publish(c.Request.Context(), id, models.ActionUpdate, rev)
	response.OK(c, rev.After)
}

// Delete handles DELETE /organizations/:id, removing its events and their tickets too.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	res, err := h.store.Delete(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	keys := []string{cache.OrganizationKey(id)}
	for _, eid := range res.EventIDs() {
		keys = append(keys, cache.EventKey(eid))
	}
	for _, tid := range res.TicketIDs() {
		keys = append(keys, cache.TicketKey(tid))
	}
	h.invalidate(c.Request.Context(), keys...)
	h.publish(c.Request.Context(), id, models.ActionDelete, res)

	h.logger.Info("organization deleted",
		zap.String("org_id", id.String()),
		zap.Int("events", len(res.Events)),
		zap.Int("tickets", len(res.Tickets)),
	)
	response.NoContent(c)
}

// parseID reads :id. A value that is not a UUID cannot name any organization.
func (h *Handler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, apperr.NotFound(models.EntityOrganization, c.Param("id")))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) invalidate(ctx context.Context, keys ...string) {
	if err := h.cache.Delete(ctx, keys...); err != nil {
		h.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (h *Handler) publish(ctx context.Context, id uuid.UUID, action string, snapshot any) {
	payload, err := queue.NewChange(models.EntityOrganization, id, action, snapshot)
	if err == nil {
		err = h.publisher.EnqueueChange(ctx, payload)
	}
	if err != nil {
		h.logger.Warn("publish change failed", zap.String("org_id", id.String()), zap.String("action", action), zap.Error(err))
	}
}
