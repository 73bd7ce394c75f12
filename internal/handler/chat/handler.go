package chat

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/emr-assistant/internal/handler"
	"github.com/jwalitptl/emr-assistant/internal/model"
	"github.com/jwalitptl/emr-assistant/internal/service/chat"
	"github.com/jwalitptl/emr-assistant/internal/service/query"
	"github.com/jwalitptl/emr-assistant/pkg/httputil"
)

type Handler struct {
	service *chat.Service
	router  *query.Router
}

func NewHandler(service *chat.Service, router *query.Router) *Handler {
	return &Handler{service: service, router: router}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/chat")
	{
		g.GET("/greeting", h.Greeting)
		g.POST("", h.SendMessage)
		g.POST("/route", h.Route)
	}
}

func (h *Handler) Greeting(c *gin.Context) {
	httputil.RespondWithSuccess(c, gin.H{"reply": h.service.Greeting()})
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req model.ChatRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	reply, err := h.service.Handle(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, reply)
}

// Route runs only the record router, without falling back to the LLM.
func (h *Handler) Route(c *gin.Context) {
	var req model.RouteRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	res, err := h.router.Route(c.Request.Context(), req.Message)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"matched": res != nil,
		"data":    res,
	})
}
