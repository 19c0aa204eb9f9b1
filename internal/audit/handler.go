package audit

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/response"
)

// Lister reads the audit trail.
type Lister interface {
	List(ctx context.Context, f models.AuditFilter) ([]models.AuditEntry, error)
}

// Handler handles audit HTTP endpoints.
type Handler struct {
	repo   Lister
	logger *zap.Logger
}

// NewHandler creates an audit handler.
func NewHandler(repo Lister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Register mounts GET /audit on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/audit", h.List)
}

// List handles GET /audit?entity=&entity_id=&limit=.
func (h *Handler) List(c *gin.Context) {
	f := models.AuditFilter{Entity: c.Query("entity")}
	if raw := c.Query("entity_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Error(c, h.logger, apperr.Invalid("entity_id", "Invalid UUID for entity_id"))
			return
		}
		f.EntityID = &id
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.Error(c, h.logger, apperr.Invalid("limit", "Limit must be a positive integer"))
			return
		}
		f.Limit = n
	}
	list, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}
