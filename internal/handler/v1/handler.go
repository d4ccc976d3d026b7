package v1

import (
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/calendar"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	appts      appointment.Repository
	grid       *calendar.Grid
	reschedule *service.RescheduleController
	sessions   *service.SessionService
	log        *zap.Logger
}

func NewHandler(
	appts appointment.Repository,
	grid *calendar.Grid,
	reschedule *service.RescheduleController,
	sessions *service.SessionService,
	log *zap.Logger,
) *Handler {
	return &Handler{
		appts:      appts,
		grid:       grid,
		reschedule: reschedule,
		sessions:   sessions,
		log:        log,
	}
}

// Register mounts the v1 routes on rg, normally the /api/v1 group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/doctors/:doctorID/days/:date/layout", h.DayLayout)
	rg.POST("/appointments/:id/reschedule", h.Reschedule)

	s := rg.Group("/sessions")
	s.POST("", h.EnsureSession)
	s.GET("/:key", h.GetSession)
	s.POST("/:key/arrival", h.MarkArrival)
	s.POST("/:key/departure", h.MarkDeparture)
	s.POST("/:key/stats/refresh", h.RefreshStats)
	s.GET("/:key/post-departure", h.PostDepartureInfo)
	s.POST("/:key/top-ups", h.TopUp)
}
