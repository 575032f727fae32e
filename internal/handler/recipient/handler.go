package recipient

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/transplant-api/internal/model"
	recipientService "github.com/jwalitptl/transplant-api/internal/service/recipient"
	"github.com/jwalitptl/transplant-api/pkg/httputil"
	"github.com/jwalitptl/transplant-api/pkg/validator"
)

const defaultCriticalUrgency = 4

type Handler struct {
	svc       *recipientService.Service
	validator validator.Validator
}

func NewHandler(svc *recipientService.Service, v validator.Validator) *Handler {
	return &Handler{svc: svc, validator: v}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	recipients := r.Group("/recipients")
	{
		recipients.POST("", h.Register)
		recipients.GET("", h.List)
		recipients.GET("/critical", h.ListCritical)
		recipients.GET("/wait-times", h.WaitTimeStats)
		recipients.GET("/:id", h.Get)
		recipients.PUT("/:id", h.Update)
		recipients.GET("/:id/follow-ups", h.ListFollowUps)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.CreateRecipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	recipient, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, recipient)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	recipient, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, recipient)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	var req model.UpdateRecipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	recipient, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, recipient)
}

func (h *Handler) List(c *gin.Context) {
	recipients, err := h.svc.List(c.Request.Context(), model.RecipientStatus(c.Query("status")))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, recipients)
}

// ListCritical reports waiting recipients at or above the urgency floor.
func (h *Handler) ListCritical(c *gin.Context) {
	minUrgency := defaultCriticalUrgency
	if raw := c.Query("min_urgency"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httputil.RespondWithValidationError(c, err)
			return
		}
		minUrgency = parsed
	}

	recipients, err := h.svc.ListCritical(c.Request.Context(), minUrgency)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, recipients)
}

func (h *Handler) WaitTimeStats(c *gin.Context) {
	stats, err := h.svc.WaitTimeStats(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, stats)
}

func (h *Handler) ListFollowUps(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	appointments, err := h.svc.ListFollowUps(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}
