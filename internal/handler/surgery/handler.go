package surgery

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/transplant-api/internal/model"
	"github.com/jwalitptl/transplant-api/internal/service/allocation"
	"github.com/jwalitptl/transplant-api/internal/service/hospital"
	"github.com/jwalitptl/transplant-api/pkg/httputil"
	"github.com/jwalitptl/transplant-api/pkg/validator"
)

type Handler struct {
	allocations *allocation.Service
	hospitals   *hospital.Service
	validator   validator.Validator
}

func NewHandler(allocations *allocation.Service, hospitals *hospital.Service, v validator.Validator) *Handler {
	return &Handler{allocations: allocations, hospitals: hospitals, validator: v}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	surgeries := r.Group("/surgeries")
	{
		surgeries.POST("", h.Schedule)
		surgeries.GET("", h.List)
	}
}

// Schedule consumes an accepted allocation and drives the transplant cascade.
func (h *Handler) Schedule(c *gin.Context) {
	var req model.ScheduleSurgeryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	surgery, err := h.allocations.ScheduleSurgery(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, surgery)
}

func (h *Handler) List(c *gin.Context) {
	surgeries, err := h.hospitals.ListSurgeries(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, surgeries)
}
