package advice

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/emr-assistant/internal/service/advice"
	"github.com/jwalitptl/emr-assistant/pkg/errors"
	"github.com/jwalitptl/emr-assistant/pkg/httputil"
)

type Handler struct {
	retriever *advice.Retriever
}

func NewHandler(retriever *advice.Retriever) *Handler {
	return &Handler{retriever: retriever}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/advice", h.GetAdvice)
	r.GET("/advice/entries", h.ListEntries)
}

func (h *Handler) GetAdvice(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		httputil.RespondWithError(c, errors.NewBadRequest("query parameter q is required", nil))
		return
	}

	text, found := h.retriever.Lookup(q)
	httputil.RespondWithSuccess(c, gin.H{
		"advice": text,
		"found":  found,
	})
}

func (h *Handler) ListEntries(c *gin.Context) {
	httputil.RespondWithSuccess(c, h.retriever.Entries())
}
