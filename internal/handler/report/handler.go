package report

import (
	"github.com/gin-gonic/gin"

	reportService "github.com/jwalitptl/transplant-api/internal/service/report"
	"github.com/jwalitptl/transplant-api/pkg/httputil"
)

type Handler struct {
	svc *reportService.Service
}

func NewHandler(svc *reportService.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/reports/dashboard", h.Dashboard)
}

func (h *Handler) Dashboard(c *gin.Context) {
	stats, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, stats)
}
