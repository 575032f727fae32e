package donor

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/transplant-api/internal/model"
	donorService "github.com/jwalitptl/transplant-api/internal/service/donor"
	"github.com/jwalitptl/transplant-api/pkg/httputil"
	"github.com/jwalitptl/transplant-api/pkg/validator"
)

type Handler struct {
	svc       *donorService.Service
	validator validator.Validator
}

func NewHandler(svc *donorService.Service, v validator.Validator) *Handler {
	return &Handler{svc: svc, validator: v}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	donors := r.Group("/donors")
	{
		donors.POST("", h.Register)
		donors.GET("", h.List)
		donors.GET("/:id", h.Get)
		donors.PUT("/:id", h.Update)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.CreateDonorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	donor, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, donor)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	donor, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, donor)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	var req model.UpdateDonorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	donor, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, donor)
}

func (h *Handler) List(c *gin.Context) {
	donors, err := h.svc.List(c.Request.Context(), model.DonorStatus(c.Query("status")))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, donors)
}
