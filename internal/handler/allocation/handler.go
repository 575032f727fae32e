package allocation

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/transplant-api/internal/model"
	allocationService "github.com/jwalitptl/transplant-api/internal/service/allocation"
	"github.com/jwalitptl/transplant-api/pkg/httputil"
	"github.com/jwalitptl/transplant-api/pkg/validator"
)

type Handler struct {
	svc       *allocationService.Service
	validator validator.Validator
}

func NewHandler(svc *allocationService.Service, v validator.Validator) *Handler {
	return &Handler{svc: svc, validator: v}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	allocations := r.Group("/allocations")
	{
		allocations.POST("", h.RequestAllocation)
		allocations.GET("", h.List)
		allocations.GET("/:id", h.Get)
		allocations.POST("/:id/respond", h.Respond)
	}
}

func (h *Handler) RequestAllocation(c *gin.Context) {
	var req model.RequestAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	alloc, err := h.svc.RequestAllocation(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, alloc)
}

func (h *Handler) Respond(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	var req model.RespondToAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	alloc, err := h.svc.RespondToAllocation(c.Request.Context(), id, req.Decision)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, alloc)
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.AllocationFilters{
		Status: model.AllocationStatus(c.Query("status")),
	}
	if raw := c.Query("organ_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithValidationError(c, err)
			return
		}
		filters.OrganID = id
	}
	if raw := c.Query("recipient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithValidationError(c, err)
			return
		}
		filters.RecipientID = id
	}

	allocations, err := h.svc.GetAllocations(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, allocations)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	alloc, err := h.svc.GetAllocation(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, alloc)
}
