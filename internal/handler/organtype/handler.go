package organtype

import (
	"database/sql"
	stderrors "errors"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/transplant-api/internal/service/catalog"
	"github.com/jwalitptl/transplant-api/pkg/errors"
	"github.com/jwalitptl/transplant-api/pkg/httputil"
)

// Handler serves the organ-type catalog, immutable reference data.
type Handler struct {
	svc *catalog.Service
}

func NewHandler(svc *catalog.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	types := r.Group("/organ-types")
	{
		types.GET("", h.List)
		types.GET("/:name", h.Get)
	}
}

func (h *Handler) List(c *gin.Context) {
	organTypes, err := h.svc.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, errors.NewStorageFailure(err))
		return
	}
	httputil.RespondWithSuccess(c, organTypes)
}

func (h *Handler) Get(c *gin.Context) {
	organType, err := h.svc.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			httputil.RespondWithError(c, errors.NewNotFound("organ type", err))
			return
		}
		httputil.RespondWithError(c, errors.NewStorageFailure(err))
		return
	}
	httputil.RespondWithSuccess(c, organType)
}
