package tickets

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/cache"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/validation"
	"github.com/aura-events/backend/pkg/queue"
	"github.com/aura-events/backend/pkg/response"
)

// Store is the ticket persistence used by Handler.
type Store interface {
	Create(ctx context.Context, in models.TicketInput) (*models.Ticket, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	List(ctx context.Context) ([]models.Ticket, error)
	Update(ctx context.Context, id uuid.UUID, patch models.TicketPatch) (*models.Revision[models.Ticket], error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
}

// Handler handles ticket HTTP endpoints.
type Handler struct {
	store     Store
	cache     cache.Cache
	publisher queue.Publisher
	logger    *zap.Logger
}

// NewHandler creates a tickets handler.
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

// Register mounts the ticket routes on r.
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/tickets")
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// List handles GET /tickets.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /tickets/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	key := cache.TicketKey(id)

	var cached models.Ticket
	if hit, err := h.cache.Get(ctx, key, &cached); err != nil {
		h.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		response.OK(c, cached)
		return
	}

	t, err := h.store.GetByID(ctx, id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if err := h.cache.Set(ctx, key, t); err != nil {
		h.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	response.OK(c, t)
}

// Create handles POST /tickets.
func (h *Handler) Create(c *gin.Context) {
	var in models.TicketInput
	if !validation.BindJSON(c, &in) {
		return
	}
	t, err := h.store.Create(c.Request.Context(), in)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	h.invalidate(c.Request.Context(), cache.EventKey(t.EventID))
	h.publish(c.Request.Context(), t.ID, models.ActionCreate, t)
	response.Created(c, t)
}

// Update handles PUT /tickets/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var patch models.TicketPatch
	if !validation.BindJSON(c, &patch) {
		return
	}
	rev, err := h.store.Update(c.Request.Context(), id, patch)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	h.invalidate(c.Request.Context(),
		cache.TicketKey(id),
		cache.EventKey(rev.Before.EventID),
		cache.EventKey(rev.After.EventID),
	)
	h.publish(c.Request.Context(), id, models.ActionUpdate, rev)
	response.OK(c, rev.After)
}

// Delete handles DELETE /tickets/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	t, err := h.store.Delete(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	h.invalidate(c.Request.Context(), cache.TicketKey(id), cache.EventKey(t.EventID))
	h.publish(c.Request.Context(), id, models.ActionDelete, t)
	response.NoContent(c)
}

func (h *Handler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, apperr.NotFound(models.EntityTicket, c.Param("id")))
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
	payload, err := queue.NewChange(models.EntityTicket, id, action, snapshot)
	if err == nil {
		err = h.publisher.EnqueueChange(ctx, payload)
	}
	if err != nil {
		h.logger.Warn("publish change failed", zap.String("ticket_id", id.String()), zap.String("action", action), zap.Error(err))
	}
}
