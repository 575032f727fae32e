package waitlist

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
	waitlist := r.Group("/waitlist")
	{
		waitlist.POST("", h.Add)
		waitlist.GET("", h.List)
		waitlist.DELETE("/:recipientId/:typeName", h.Remove)
	}
}

func (h *Handler) Add(c *gin.Context) {
	var req model.AddToWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	entry, err := h.svc.AddToWaitlist(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, entry)
}

// List returns waitlist entries with recipient details, ordered by priority.
func (h *Handler) List(c *gin.Context) {
	filters := &model.WaitlistFilters{
		TypeName: c.Query("type"),
		Status:   model.WaitlistStatus(c.Query("status")),
	}
	if raw := c.Query("recipient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithValidationError(c, err)
			return
		}
		filters.RecipientID = id
	}

	entries, err := h.svc.GetWaitlist(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, entries)
}

// Remove deletes the entry outright. A later re-add starts a fresh wait clock.
func (h *Handler) Remove(c *gin.Context) {
	recipientID, err := uuid.Parse(c.Param("recipientId"))
	if err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	typeName := c.Param("typeName")

	if err := h.svc.RemoveFromWaitlist(c.Request.Context(), recipientID, typeName); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"removed": true})
}
