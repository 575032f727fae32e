package audit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditService "github.com/jwalitptl/transplant-api/internal/service/audit"
	"github.com/jwalitptl/transplant-api/pkg/errors"
	"github.com/jwalitptl/transplant-api/pkg/httputil"
)

type Handler struct {
	svc *auditService.Service
}

func NewHandler(svc *auditService.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/audit/:entityType/:id", h.History)
}

// History returns the audit trail for one entity, newest first.
func (h *Handler) History(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	logs, err := h.svc.History(c.Request.Context(), c.Param("entityType"), id)
	if err != nil {
		httputil.RespondWithError(c, errors.NewStorageFailure(err))
		return
	}
	httputil.RespondWithSuccess(c, logs)
}
