package events

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

// Store is the event persistence used by Handler.
type Store interface {
	Create(ctx context.Context, in models.EventInput) (*models.Event, error)
	GetWithTickets(ctx context.Context, id uuid.UUID) (*models.EventDetail, error)
	List(ctx context.Context) ([]models.Event, error)
	Search(ctx context.Context, f models.EventFilter) ([]models.Event, error)
	Update(ctx context.Context, id uuid.UUID, patch models.EventPatch) (*models.Revision[models.Event], error)
	Delete(ctx context.Context, id uuid.UUID) (*catalog.Result, error)
}

// Handler handles event HTTP endpoints.
type Handler struct {
	store     Store
	cache     cache.Cache
	publisher queue.Publisher
	logger    *zap.Logger
}

// NewHandler creates an events handler.
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

// Register mounts the event routes on r.
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/events")
	g.GET("", h.List)
	g.GET("/search", h.Search)
	g.GET("/:id", h.GetByID)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// List handles GET /events.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Search handles GET /events/search?category=&location=.
func (h *Handler) Search(c *gin.Context) {
	list, err := h.store.Search(c.Request.Context(), models.EventFilter{
		Category: c.Query("category"),
		Location: c.Query("location"),
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /events/:id. The body includes the event's tickets.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	key := cache.EventKey(id)

	var detail models.EventDetail
	if hit, err := h.cache.Get(ctx, key, &detail); err != nil {
		h.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		response.OK(c, detail)
		return
	}

	d, err := h.store.GetWithTickets(ctx, id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if err := h.cache.Set(ctx, key, d); err != nil {
		h.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	response.OK(c, d)
}

// Create handles POST /events.
func (h *Handler) Create(c *gin.Context) {
	var in models.EventInput
	if !validation.BindJSON(c, &in) {
		return
	}
	ev, err := h.store.Create(c.Request.Context(), in)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	h.invalidate(c.Request.Context(), cache.OrganizationKey(ev.OrgID))
	h.publish(c.Request.Context(), ev.ID, models.ActionCreate, ev)
	response.Created(c, ev)
}

// Update handles PUT /events/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var patch models.EventPatch
	if !validation.BindJSON(c, &patch) {
		return
	}
	rev, err := h.store.Update(c.Request.Context(), id, patch)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	h.invalidate(c.Request.Context(),
		cache.EventKey(id),
		cache.OrganizationKey(rev.Before.OrgID),
		cache.OrganizationKey(rev.After.OrgID),
	)
	h.publish(c.Request.Context(), id, models.ActionUpdate, rev)
	response.OK(c, rev.After)
}

// Delete handles DELETE /events/:id, removing its tickets too.
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

	keys := []string{cache.EventKey(id)}
	for _, ev := range res.Events {
		keys = append(keys, cache.OrganizationKey(ev.OrgID))
	}
	for _, tid := range res.TicketIDs() {
		keys = append(keys, cache.TicketKey(tid))
	}
	h.invalidate(c.Request.Context(), keys...)
	h.publish(c.Request.Context(), id, models.ActionDelete, res)
	response.NoContent(c)
}

func (h *Handler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, apperr.NotFound(models.EntityEvent, c.Param("id")))
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
	payload, err := queue.NewChange(models.EntityEvent, id, action, snapshot)
	if err == nil {
		err = h.publisher.EnqueueChange(ctx, payload)
	}
	if err != nil {
		h.logger.Warn("publish change failed", zap.String("event_id", id.String()), zap.String("action", action), zap.Error(err))
	}
}
