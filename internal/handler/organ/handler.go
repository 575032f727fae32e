package organ

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/transplant-api/internal/model"
	"github.com/jwalitptl/transplant-api/internal/service/allocation"
	"github.com/jwalitptl/transplant-api/pkg/httputil"
	"github.com/jwalitptl/transplant-api/pkg/validator"
)

type Handler struct {
	svc       *allocation.Service
	validator validator.Validator
}

func NewHandler(svc *allocation.Service, v validator.Validator) *Handler {
	return &Handler{svc: svc, validator: v}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	organs := r.Group("/organs")
	{
		organs.POST("", h.RecordProcurement)
		organs.GET("", h.ListWithViability)
		organs.GET("/:id/viability", h.GetViability)
		organs.GET("/:id/matches", h.FindMatches)
		organs.PATCH("/:id/status", h.UpdateStatus)
	}
}

// RecordProcurement registers a procured organ and runs an immediate matcher
// pass over the waitlist. The candidates come back with the organ.
func (h *Handler) RecordProcurement(c *gin.Context) {
	var req model.RecordProcurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	organ, candidates, err := h.svc.RecordOrganProcurement(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, gin.H{
		"organ":      organ,
		"candidates": candidates,
	})
}

func (h *Handler) ListWithViability(c *gin.Context) {
	organs, err := h.svc.GetAvailableOrgansWithViability(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, organs)
}

func (h *Handler) GetViability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	report, err := h.svc.GetOrganViability(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, report)
}

func (h *Handler) FindMatches(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	candidates, err := h.svc.FindMatches(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, candidates)
}

type updateStatusRequest struct {
	Status model.OrganStatus `json:"status" validate:"required,oneof=available allocated expired"`
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	organ, err := h.svc.UpdateOrganStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, organ)
}
