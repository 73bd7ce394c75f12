package record

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/emr-assistant/internal/handler"
	"github.com/jwalitptl/emr-assistant/internal/model"
	"github.com/jwalitptl/emr-assistant/internal/service/emr"
	"github.com/jwalitptl/emr-assistant/pkg/errors"
	"github.com/jwalitptl/emr-assistant/pkg/httputil"
)

type Handler struct {
	service *emr.Service
}

func NewHandler(service *emr.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("", h.FindUser)
		users.GET("/:id", h.GetUser)
		users.GET("/:id/vitals", h.GetVitals)
		users.GET("/:id/genotype", h.GetGenotype)
		users.GET("/:id/blood-pressure", h.GetBloodPressure)
		users.GET("/:id/appointments", h.ListAppointments)
	}

	doctors := r.Group("/doctors")
	{
		doctors.GET("", h.ListDoctors)
		doctors.GET("/availability", h.GetAvailability)
	}

	r.POST("/appointments", h.BookAppointment)
}

func (h *Handler) FindUser(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		httputil.RespondWithError(c, errors.NewBadRequest("query parameter name is required", nil))
		return
	}

	user, err := h.service.GetUserByName(c.Request.Context(), name)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if user == nil {
		httputil.RespondWithError(c, errors.NewNotFound("user", nil))
		return
	}
	httputil.RespondWithSuccess(c, user)
}

func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, user)
}

func (h *Handler) GetVitals(c *gin.Context) {
	vitals, err := h.service.GetUserVitals(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if vitals == nil {
		c.JSON(http.StatusNotFound, httputil.NewErrorResponse(emr.NoVitals))
		return
	}
	httputil.RespondWithSuccess(c, vitals)
}

func (h *Handler) GetGenotype(c *gin.Context) {
	v, err := h.service.GetUserGenotype(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"genotype": v})
}

func (h *Handler) GetBloodPressure(c *gin.Context) {
	v, err := h.service.GetUserBloodPressure(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"blood_pressure": v})
}

func (h *Handler) ListAppointments(c *gin.Context) {
	appts, err := h.service.ListAppointments(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, appts)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	docs, err := h.service.ListDoctors(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, docs)
}

func (h *Handler) GetAvailability(c *gin.Context) {
	date := c.Query("date")
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("date must be formatted YYYY-MM-DD", err))
		return
	}

	docs, err := h.service.GetDoctorAvailability(c.Request.Context(), date)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if docs == nil {
		docs = []*model.Doctor{}
	}
	httputil.RespondWithSuccess(c, gin.H{"date": date, "doctors": docs})
}

func (h *Handler) BookAppointment(c *gin.Context) {
	var req model.BookAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	msg, err := h.service.BookAppointment(c.Request.Context(), req.UserID, req.Date, req.ProcedureType, req.DoctorName)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, model.BookingResult{
		Booked:  msg != emr.UserNotFound && msg != emr.DoctorNotAvailable,
		Message: msg,
	})
}
