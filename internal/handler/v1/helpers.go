package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/clock"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/session"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActorHeader names the operator on whose behalf a request is made, for the audit trail.
const ActorHeader = "X-Actor"

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondServiceError(c *gin.Context, log *zap.Logger, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	var conflict *service.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: appointment.ErrSlotOccupied.Error(),
			Code:  "SLOT_OCCUPIED",
			Details: map[string]string{
				"appointment_id": conflict.Conflict.ID.String(),
				"start_time":     conflict.Conflict.StartTime.String(),
				"end_time":       conflict.Conflict.EndTime.String(),
			},
		})
		return
	}

	switch {
	case errors.Is(err, appointment.ErrAppointmentNotFound),
		errors.Is(err, session.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, appointment.ErrSlotOccupied):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "SLOT_OCCUPIED"})

	case errors.Is(err, session.ErrVersionConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "VERSION_CONFLICT"})

	case errors.Is(err, service.ErrDragInProgress),
		errors.Is(err, service.ErrDragNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, appointment.ErrOutOfHours):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "OUT_OF_HOURS"})

	case errors.Is(err, session.ErrNotArrived),
		errors.Is(err, session.ErrInvalidKey),
		errors.Is(err, clock.ErrInvalidDate),
		errors.Is(err, clock.ErrInvalidTimeOfDay),
		errors.Is(err, appointment.ErrInvalidDuration),
		errors.Is(err, appointment.ErrEndTimeMismatch):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	case errors.Is(err, session.ErrNoUnpaidFees):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "NO_UNPAID_FEES"})

	case errors.Is(err, service.ErrStoreWriteFailed):
		log.Error("store write failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "the change could not be saved, please retry",
			Code:  "STORE_WRITE_FAILED",
		})

	default:
		log.Error("unhandled service error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func parseSessionKey(c *gin.Context) (session.Key, bool) {
	key, err := session.ParseKey(c.Param("key"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return session.Key{}, false
	}
	return key, true
}

// requestContext carries the caller's identity into the service layer.
func requestContext(c *gin.Context) context.Context {
	return service.WithRequestMeta(c.Request.Context(), service.RequestMeta{
		Actor:     c.GetHeader(ActorHeader),
		IPAddress: c.ClientIP(),
		RequestID: c.GetString(middleware.RequestIDKey),
	})
}
