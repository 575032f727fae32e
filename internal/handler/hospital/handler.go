package hospital

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/transplant-api/internal/model"
	hospitalService "github.com/jwalitptl/transplant-api/internal/service/hospital"
	"github.com/jwalitptl/transplant-api/pkg/httputil"
	"github.com/jwalitptl/transplant-api/pkg/validator"
)

type Handler struct {
	svc       *hospitalService.Service
	validator validator.Validator
}

func NewHandler(svc *hospitalService.Service, v validator.Validator) *Handler {
	return &Handler{svc: svc, validator: v}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	hospitals := r.Group("/hospitals")
	{
		hospitals.POST("", h.Register)
		hospitals.GET("", h.List)
		hospitals.GET("/stats", h.Stats)
		hospitals.GET("/:id", h.Get)
		hospitals.POST("/:id/capabilities", h.AddCapability)
		hospitals.POST("/:id/surgeons", h.RegisterSurgeon)
		hospitals.GET("/:id/surgeons", h.ListSurgeons)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.CreateHospitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	hospital, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, hospital)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	hospital, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, hospital)
}

func (h *Handler) List(c *gin.Context) {
	hospitals, err := h.svc.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, hospitals)
}

func (h *Handler) AddCapability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	var req model.AddCapabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	if err := h.svc.AddCapability(c.Request.Context(), id, req.TypeName); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, gin.H{"hospital_id": id, "type_name": req.TypeName})
}

func (h *Handler) RegisterSurgeon(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	var req model.CreateSurgeonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	surgeon, err := h.svc.RegisterSurgeon(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, surgeon)
}

func (h *Handler) ListSurgeons(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	surgeons, err := h.svc.ListSurgeons(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, surgeons)
}

// Stats reports surgery counts and success rates per hospital.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, stats)
}
